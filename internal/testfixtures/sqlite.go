package testfixtures

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/example/stepmigrate/internal/persistence/sqlite"
)

// NewSQLiteDB opens a private in-memory SQLite database that is closed when
// the test finishes.
func NewSQLiteDB(tb testing.TB) *sql.DB {
	tb.Helper()

	db, err := sqlite.Open(sqlite.InMemoryConfig())
	if err != nil {
		tb.Fatalf("failed to open in-memory database: %v", err)
	}
	tb.Cleanup(func() { _ = db.Close() })
	return db
}

// NewSQLiteFile opens a SQLite database backed by a temporary file and returns
// it with its path, so tests can reopen the same file.
func NewSQLiteFile(tb testing.TB) (*sql.DB, string) {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "stepmigrate.db")
	db, err := sqlite.Open(sqlite.DefaultConfig(path))
	if err != nil {
		tb.Fatalf("failed to open database file: %v", err)
	}
	tb.Cleanup(func() { _ = db.Close() })
	return db, path
}

// TableExists reports whether a table named name exists in db.
func TableExists(tb testing.TB, db *sql.DB, name string) bool {
	tb.Helper()

	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&count)
	if err != nil {
		tb.Fatalf("failed to inspect sqlite_master: %v", err)
	}
	return count > 0
}
