package ddl

import "time"

// SQLiteTimestampLayout is the text form of SQLite's CURRENT_TIMESTAMP, which
// the date and time functions accept.
const SQLiteTimestampLayout = "2006-01-02 15:04:05"

// SQLite renders statements for SQLite.
type SQLite struct{}

// Name implements Builder.
func (SQLite) Name() string { return "sqlite" }

// QuoteIdentifier implements Builder.
func (SQLite) QuoteIdentifier(name string) string { return quoteIdentifier(name) }

// CreateHistoryTable implements Builder.
func (d SQLite) CreateHistoryTable(table string) string {
	return "CREATE TABLE IF NOT EXISTS " + d.QuoteIdentifier(table) + " (" +
		"id INTEGER PRIMARY KEY AUTOINCREMENT, " +
		"version INTEGER NOT NULL, " +
		"sql TEXT NULL, " +
		"created_timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP)"
}

// InsertHistory implements Builder.
func (d SQLite) InsertHistory(table string) string {
	return "INSERT INTO " + d.QuoteIdentifier(table) + " (version, sql, created_timestamp) VALUES (?, ?, ?)"
}

// Timestamp implements Builder. Drivers would otherwise store Go's
// Time.String form, which datetime() cannot read.
func (SQLite) Timestamp(t time.Time) any { return t.UTC().Format(SQLiteTimestampLayout) }

// SelectCurrentVersion implements Builder.
func (d SQLite) SelectCurrentVersion(table string) string { return selectCurrentVersion(d, table) }

// SelectHistory implements Builder.
func (d SQLite) SelectHistory(table string) string { return selectHistory(d, table) }

// RenameTable implements Builder.
func (d SQLite) RenameTable(from, to string) string { return renameTable(d, from, to) }
