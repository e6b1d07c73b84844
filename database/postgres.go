package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
)

// OpenPostgres connects with a lib/pq URL, migrates the schema through the dialect
// rewrite and installs the counter function.
func OpenPostgres(ctx context.Context, url string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("postgres url is required")
	}

	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres db: %w", err)
	}
	if err := migratePostgres(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	eng := &sqlEngine{backend: BackendPostgres, db: db, rebind: true, returning: true}
	return newStore(BackendPostgres, eng, opts...), nil
}
