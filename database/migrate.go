package database

import (
	"bytes"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Installed next to the schema so the rest backend can increment counters atomically.
//
//go:embed postgres/functions.sql
var postgresFunctions string

func migrateUp(m *migrate.Migrate) error {
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func migrateSQLite(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	driver, err := sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
	if err != nil {
		return fmt.Errorf("sqlite migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return err
	}
	return migrateUp(m)
}

func migratePostgres(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		return fmt.Errorf("postgres migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", dialectSource{Driver: src}, "postgres", driver)
	if err != nil {
		return err
	}
	if err := migrateUp(m); err != nil {
		return err
	}

	if _, err := db.Exec(postgresFunctions); err != nil {
		return fmt.Errorf("install functions: %w", err)
	}
	return nil
}

// dialectSource serves the embedded-dialect migrations with RewriteDialect applied.
type dialectSource struct {
	source.Driver
}

func (s dialectSource) ReadUp(version uint) (io.ReadCloser, string, error) {
	r, id, err := s.Driver.ReadUp(version)
	if err != nil {
		return nil, "", err
	}
	return rewriteBody(r, id)
}

func (s dialectSource) ReadDown(version uint) (io.ReadCloser, string, error) {
	r, id, err := s.Driver.ReadDown(version)
	if err != nil {
		return nil, "", err
	}
	return rewriteBody(r, id)
}

func rewriteBody(r io.ReadCloser, id string) (io.ReadCloser, string, error) {
	defer r.Close()
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, "", err
	}
	return io.NopCloser(bytes.NewBufferString(RewriteDialect(string(body)))), id, nil
}
