package ddl

import "time"

// Postgres renders statements for PostgreSQL.
type Postgres struct{}

// Name implements Builder.
func (Postgres) Name() string { return "postgres" }

// QuoteIdentifier implements Builder.
func (Postgres) QuoteIdentifier(name string) string { return quoteIdentifier(name) }

// CreateHistoryTable implements Builder.
func (d Postgres) CreateHistoryTable(table string) string {
	return "CREATE TABLE IF NOT EXISTS " + d.QuoteIdentifier(table) + " (" +
		"id BIGSERIAL PRIMARY KEY, " +
		"version INTEGER NOT NULL, " +
		"sql TEXT NULL, " +
		"created_timestamp TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP)"
}

// InsertHistory implements Builder.
func (d Postgres) InsertHistory(table string) string {
	return "INSERT INTO " + d.QuoteIdentifier(table) + " (version, sql, created_timestamp) VALUES ($1, $2, $3)"
}

// Timestamp implements Builder. pgx encodes time.Time natively.
func (Postgres) Timestamp(t time.Time) any { return t.UTC() }

// SelectCurrentVersion implements Builder.
func (d Postgres) SelectCurrentVersion(table string) string { return selectCurrentVersion(d, table) }

// SelectHistory implements Builder.
func (d Postgres) SelectHistory(table string) string { return selectHistory(d, table) }

// RenameTable implements Builder.
func (d Postgres) RenameTable(from, to string) string { return renameTable(d, from, to) }
