// Package sqlite opens SQLite databases for the migration engine using the
// pure Go modernc.org/sqlite driver.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// DriverName is the database/sql driver name registered by modernc.org/sqlite.
const DriverName = "sqlite"

// Config holds SQLite-specific database configuration
type Config struct {
	// DSN is the database file path or connection string
	DSN string

	// BusyTimeout sets how long to wait for database locks
	BusyTimeout time.Duration

	// EnableForeignKeys enables foreign key constraint checking
	EnableForeignKeys bool

	// JournalMode sets the SQLite journal mode (WAL, DELETE, TRUNCATE, etc.)
	JournalMode string

	// Synchronous sets the synchronous mode (FULL, NORMAL, OFF)
	Synchronous string

	// MaxOpenConns sets the maximum number of open connections
	MaxOpenConns int
}

// DefaultConfig returns a SQLite configuration with sensible defaults
func DefaultConfig(dsn string) Config {
	return Config{
		DSN:               dsn,
		BusyTimeout:       30 * time.Second,
		EnableForeignKeys: true,
		JournalMode:       "WAL",
		Synchronous:       "NORMAL",
		MaxOpenConns:      1,
	}
}

// InMemoryConfig returns a configuration for a private in-memory database.
// A single connection keeps every statement on the same database.
func InMemoryConfig() Config {
	return Config{
		DSN:               ":memory:",
		BusyTimeout:       5 * time.Second,
		EnableForeignKeys: true,
		JournalMode:       "MEMORY",
		Synchronous:       "OFF",
		MaxOpenConns:      1,
	}
}

var (
	validJournalModes = map[string]bool{
		"DELETE":   true,
		"TRUNCATE": true,
		"PERSIST":  true,
		"MEMORY":   true,
		"WAL":      true,
		"OFF":      true,
	}
	validSyncModes = map[string]bool{
		"OFF":    true,
		"NORMAL": true,
		"FULL":   true,
		"EXTRA":  true,
	}
)

// Validate validates the SQLite configuration
func (c Config) Validate() error {
	if strings.TrimSpace(c.DSN) == "" {
		return fmt.Errorf("DSN cannot be empty")
	}
	if c.BusyTimeout < 0 {
		return fmt.Errorf("BusyTimeout cannot be negative")
	}
	if c.JournalMode != "" && !validJournalModes[strings.ToUpper(c.JournalMode)] {
		return fmt.Errorf("invalid journal mode: %s", c.JournalMode)
	}
	if c.Synchronous != "" && !validSyncModes[strings.ToUpper(c.Synchronous)] {
		return fmt.Errorf("invalid synchronous mode: %s", c.Synchronous)
	}
	if c.MaxOpenConns < 0 {
		return fmt.Errorf("MaxOpenConns cannot be negative")
	}
	return nil
}

// Open returns a configured, pinged SQLite database. The caller owns it.
func Open(cfg Config) (*sql.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid SQLite configuration: %w", err)
	}

	if err := createDatabaseDir(cfg.DSN); err != nil {
		return nil, err
	}

	db, err := sql.Open(DriverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}

	if err := configure(db, cfg); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure SQLite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return db, nil
}

// configure applies PRAGMA settings to the connection.
func configure(db *sql.DB, cfg Config) error {
	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()),
	}
	if cfg.JournalMode != "" {
		pragmas = append(pragmas, "PRAGMA journal_mode = "+strings.ToUpper(cfg.JournalMode))
	}
	if cfg.Synchronous != "" {
		pragmas = append(pragmas, "PRAGMA synchronous = "+strings.ToUpper(cfg.Synchronous))
	}
	if cfg.EnableForeignKeys {
		pragmas = append(pragmas, "PRAGMA foreign_keys = ON")
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	return nil
}

// createDatabaseDir makes sure the directory holding a file database exists.
func createDatabaseDir(dsn string) error {
	path := databasePath(dsn)
	if path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}
	return nil
}

// databasePath extracts the file path from a DSN, or returns "" for in-memory
// databases.
func databasePath(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		if strings.Contains(path[i:], "mode=memory") {
			return ""
		}
		path = path[:i]
	}
	if path == "" || path == ":memory:" {
		return ""
	}
	return path
}
