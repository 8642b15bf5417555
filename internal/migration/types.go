package migration

import (
	"context"
	"database/sql"
	"time"
)

// Conn is the borrowed database handle a migration runs on. *sql.DB, *sql.Conn
// and *sql.Tx all satisfy it. The migrator never opens or closes it.
type Conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Direction is the way a run walks the step registry.
type Direction int

const (
	// Up moves the persisted version forward.
	Up Direction = iota
	// Down moves the persisted version backward.
	Down
)

// String returns "up" or "down".
func (d Direction) String() string {
	if d == Down {
		return "down"
	}
	return "up"
}

// Record is one row of the migration history table.
type Record struct {
	ID        int64     // Assigned by the database, never reused
	Version   int       // Schema version the database is in after the statement
	SQL       *string   // Executed statement; nil for a bare version transition
	CreatedAt time.Time // Insertion time
}

// Schema describes one generated table. Step-based migration accepts schemas
// only for parity with diff-based engines and does not inspect them.
type Schema interface {
	TableName() string
	CreateTableStatement() string
}

// Engine is the contract shared by migration engines.
type Engine interface {
	// Version returns the schema version the application expects.
	Version() int

	// Start brings the database on conn to Version.
	Start(ctx context.Context, conn Conn, schemas []Schema) error
}
