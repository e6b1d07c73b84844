package database

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ray-remotestate/restro/config"
)

type Backend string

const (
	BackendSQLite   Backend = config.BackendSQLite
	BackendPostgres Backend = config.BackendPostgres
	BackendREST     Backend = config.BackendREST
)

// Row is one record keyed by column name.
type Row map[string]any

// Result is what a mutation reports back. LastInsertID is only set by inserts.
type Result struct {
	LastInsertID int64
	RowsAffected int64
}

type outcome struct {
	rows   []Row
	result Result
}

// engine is implemented once per backend. raw runs SQL-shaped text, dispatch runs a
// validated Intent.
type engine interface {
	raw(ctx context.Context, query string, args []any, wantRows bool) (*outcome, error)
	dispatch(ctx context.Context, in *Intent) (*outcome, error)
	bumpCounter(ctx context.Context, restaurantID int64, day string, counter Counter) error
	close() error
}

// Store is the storage-agnostic data surface used by the rest of the application.
type Store struct {
	backend Backend
	eng     engine
	now     func() time.Time
	log     *logrus.Entry
}

var Restro *Store

type Option func(*Store)

// WithClock replaces time.Now for the statistics windows.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func newStore(backend Backend, eng engine, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		eng:     eng,
		now:     time.Now,
		log:     logrus.WithField("backend", string(backend)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Backend() Backend {
	return s.backend
}

// Get returns the first matching row or ErrNoRows.
func (s *Store) Get(ctx context.Context, query string, args ...any) (Row, error) {
	out, err := s.raw(ctx, query, args, true)
	if err != nil {
		return nil, err
	}
	if len(out.rows) == 0 {
		return nil, ErrNoRows
	}
	return out.rows[0], nil
}

// All returns every matching row; no match is an empty slice, not an error.
func (s *Store) All(ctx context.Context, query string, args ...any) ([]Row, error) {
	out, err := s.raw(ctx, query, args, true)
	if err != nil {
		return nil, err
	}
	return out.rows, nil
}

func (s *Store) Run(ctx context.Context, query string, args ...any) (Result, error) {
	out, err := s.raw(ctx, query, args, false)
	if err != nil {
		return Result{}, err
	}
	return out.result, nil
}

func (s *Store) Find(ctx context.Context, in *Intent) ([]Row, error) {
	if in != nil && in.Op != OpSelect {
		return nil, fmt.Errorf("%w: Find needs a select, got %s", ErrUnsupportedOperation, in.Op)
	}
	out, err := s.dispatch(ctx, in)
	if err != nil {
		return nil, err
	}
	return out.rows, nil
}

// First runs a select limited to one row and returns it or ErrNoRows.
func (s *Store) First(ctx context.Context, in *Intent) (Row, error) {
	if in != nil && in.Limit == 0 {
		in.Limit = 1
	}
	rows, err := s.Find(ctx, in)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	return rows[0], nil
}

func (s *Store) Exec(ctx context.Context, in *Intent) (Result, error) {
	out, err := s.dispatch(ctx, in)
	if err != nil {
		return Result{}, err
	}
	return out.result, nil
}

func (s *Store) Close() error {
	return s.eng.close()
}

func (s *Store) raw(ctx context.Context, query string, args []any, wantRows bool) (*outcome, error) {
	s.log.WithField("query", query).Debug("raw query")
	out, err := s.eng.raw(ctx, query, normalizeArgs(args), wantRows)
	if err != nil {
		return nil, err
	}
	if out.rows == nil {
		out.rows = []Row{}
	}
	return out, nil
}

func (s *Store) dispatch(ctx context.Context, in *Intent) (*outcome, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"op": in.Op.String(), "table": in.Table}).Debug("dispatch")
	out, err := s.eng.dispatch(ctx, normalizeIntent(in))
	if err != nil {
		return nil, err
	}
	if out.rows == nil {
		out.rows = []Row{}
	}
	return out, nil
}

func normalizeIntent(in *Intent) *Intent {
	cp := *in
	cp.Conditions = make([]Condition, len(in.Conditions))
	for i, c := range in.Conditions {
		cp.Conditions[i] = Condition{Column: c.Column, Value: normalizeArg(c.Value)}
	}
	cp.Values = normalizeFields(in.Values)
	cp.Set = normalizeFields(in.Set)
	return &cp
}

func normalizeFields(fields []Field) []Field {
	out := make([]Field, len(fields))
	for i, f := range fields {
		out[i] = Field{Column: f.Column, Value: normalizeArg(f.Value)}
	}
	return out
}

// ConnectAndMigrate opens the configured backend, brings its schema up to date and
// installs it as Restro.
func ConnectAndMigrate(ctx context.Context, cfg config.Database) error {
	var (
		store *Store
		err   error
	)
	switch Backend(cfg.Backend) {
	case BackendSQLite:
		store, err = OpenSQLite(ctx, cfg.SQLitePath)
	case BackendPostgres:
		store, err = OpenPostgres(ctx, cfg.PostgresURL)
	case BackendREST:
		store, err = OpenREST(cfg.SupabaseURL, cfg.SupabaseKey, &http.Client{Timeout: cfg.Timeout})
	default:
		err = fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	if err != nil {
		return err
	}

	Restro = store
	return nil
}

func ShutdownDatabase() error {
	if Restro == nil {
		return nil
	}
	return Restro.Close()
}
