package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/stepmigrate/internal/ddl"
)

// DefaultHistoryTable is the history table name used when Config leaves it empty.
const DefaultHistoryTable = "stepmigrate_history"

// HistoryStore is the append-only ledger of executed migration statements.
type HistoryStore struct {
	table   string
	builder ddl.Builder
	now     func() time.Time
}

// NewHistoryStore creates a history store for the given table and dialect.
func NewHistoryStore(table string, builder ddl.Builder, now func() time.Time) *HistoryStore {
	if table == "" {
		table = DefaultHistoryTable
	}
	if builder == nil {
		builder = ddl.SQLite{}
	}
	if now == nil {
		now = time.Now
	}
	return &HistoryStore{table: table, builder: builder, now: now}
}

// Table returns the history table name.
func (s *HistoryStore) Table() string {
	return s.table
}

// EnsureSchema creates the history table if it does not exist. Safe to call
// any number of times.
func (s *HistoryStore) EnsureSchema(ctx context.Context, conn Conn) error {
	query := s.builder.CreateHistoryTable(s.table)
	if _, err := conn.ExecContext(ctx, query); err != nil {
		return NewDatabaseError(0, query, "create history table", err)
	}
	return nil
}

// CurrentVersion returns the version of the most recently inserted record, or
// 0 when the table is empty.
func (s *HistoryStore) CurrentVersion(ctx context.Context, conn Conn) (int, error) {
	query := s.builder.SelectCurrentVersion(s.table)

	var version int
	err := conn.QueryRowContext(ctx, query).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, NewDatabaseError(0, query, "read current version", err)
	}
	return version, nil
}

// Append inserts one history record. sqlText may be nil.
func (s *HistoryStore) Append(ctx context.Context, conn Conn, version int, sqlText *string) error {
	query := s.builder.InsertHistory(s.table)

	var text any
	if sqlText != nil {
		text = *sqlText
	}
	if _, err := conn.ExecContext(ctx, query, version, text, s.builder.Timestamp(s.now())); err != nil {
		return NewDatabaseError(version, query, "record history", fmt.Errorf("%w: %w", ErrHistoryWrite, err))
	}
	return nil
}

// List returns every record in insertion order.
func (s *HistoryStore) List(ctx context.Context, conn Conn) ([]Record, error) {
	query := s.builder.SelectHistory(s.table)

	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, NewDatabaseError(0, query, "list history", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			record    Record
			text      sql.NullString
			createdAt any
		)
		if err := rows.Scan(&record.ID, &record.Version, &text, &createdAt); err != nil {
			return nil, NewDatabaseError(0, query, "scan history record", err)
		}
		if text.Valid {
			record.SQL = &text.String
		}
		if record.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, NewDatabaseError(record.Version, query, "parse created_timestamp", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, NewDatabaseError(0, query, "iterate history", err)
	}

	return records, nil
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// parseTimestamp normalises the driver's representation of created_timestamp.
// SQLite drivers may hand back either time.Time or text depending on how the
// value was written.
func parseTimestamp(value any) (time.Time, error) {
	var text string
	switch v := value.(type) {
	case time.Time:
		return v.UTC(), nil
	case nil:
		return time.Time{}, nil
	case string:
		text = v
	case []byte:
		text = string(v)
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp type %T", value)
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", text)
}
