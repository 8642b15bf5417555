// Package postgres opens PostgreSQL databases for the migration engine through
// pgx's database/sql adapter.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

// Open parses dsn, opens a database/sql handle backed by pgx, and pings it.
// The context can be used to cancel the ping. The caller owns the handle.
//
// The DSN is documented here: https://pkg.go.dev/github.com/jackc/pgx/v5#ParseConfig
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	connConfig, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PostgreSQL DSN: %w", err)
	}

	db := stdlib.OpenDB(*connConfig)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL database: %w", err)
	}

	return db, nil
}
