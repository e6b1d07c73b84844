package database

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// OpenSQLite opens the embedded engine at path (":memory:" for a throwaway database) and
// applies the embedded migrations.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// one connection: the engine serializes I/O and an in-memory database lives on it
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := migrateSQLite(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return newStore(BackendSQLite, &sqlEngine{backend: BackendSQLite, db: db}, opts...), nil
}

func sqliteDSN(path string) string {
	if path == ":memory:" {
		return "file::memory:?" + sqlitePragmas
	}
	return "file:" + filepath.Clean(path) + "?" + sqlitePragmas + "&_pragma=journal_mode(WAL)"
}
