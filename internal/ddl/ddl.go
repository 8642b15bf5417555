// Package ddl renders the dialect-specific statements used by the migration
// engine: the history table DDL, its queries, and table renames.
package ddl

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownDialect is returned by Lookup for unsupported dialect names.
var ErrUnknownDialect = errors.New("ddl: unknown dialect")

// Builder renders SQL text for one SQL dialect. Implementations are stateless.
type Builder interface {
	// Name returns the canonical dialect name.
	Name() string

	// QuoteIdentifier quotes a table or column name.
	QuoteIdentifier(name string) string

	// CreateHistoryTable returns an idempotent CREATE TABLE statement for the
	// migration history table.
	CreateHistoryTable(table string) string

	// InsertHistory returns an INSERT taking (version, sql, created_timestamp).
	InsertHistory(table string) string

	// Timestamp converts t into the created_timestamp argument of InsertHistory,
	// in the form the column's CURRENT_TIMESTAMP default produces.
	Timestamp(t time.Time) any

	// SelectCurrentVersion returns a query yielding the version of the most
	// recently inserted history row.
	SelectCurrentVersion(table string) string

	// SelectHistory returns a query listing every history row in insertion order.
	SelectHistory(table string) string

	// RenameTable returns a statement renaming from to to.
	RenameTable(from, to string) string
}

// Lookup resolves a dialect by name. Driver names are accepted as aliases.
func Lookup(name string) (Builder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "sqlite", "sqlite3":
		return SQLite{}, nil
	case "postgres", "postgresql", "pgx":
		return Postgres{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, name)
}

// quoteIdentifier wraps name in double quotes, doubling embedded quotes.
// Both supported dialects accept the ANSI form.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func selectHistory(b Builder, table string) string {
	return "SELECT id, version, sql, created_timestamp FROM " + b.QuoteIdentifier(table) + " ORDER BY id ASC"
}

func selectCurrentVersion(b Builder, table string) string {
	return "SELECT version FROM " + b.QuoteIdentifier(table) + " ORDER BY id DESC LIMIT 1"
}

func renameTable(b Builder, from, to string) string {
	return "ALTER TABLE " + b.QuoteIdentifier(from) + " RENAME TO " + b.QuoteIdentifier(to)
}
