package migration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/example/stepmigrate/internal/ddl"
)

var fixedNow = func() time.Time {
	return time.Date(2024, time.March, 4, 5, 6, 7, 0, time.UTC)
}

func TestHistoryStore_AppendFailurePropagates(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	builder := ddl.SQLite{}
	table := DefaultHistoryTable
	rename := builder.RenameTable("a", "b")

	mock.ExpectExec(builder.CreateHistoryTable(table)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(builder.SelectCurrentVersion(table)).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(1))
	mock.ExpectExec(rename).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(builder.InsertHistory(table)).
		WithArgs(2, rename, fixedNow().Format(ddl.SQLiteTimestampLayout)).
		WillReturnError(errors.New("disk full"))

	m, err := New(Config{Version: 2, Now: fixedNow})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	m.AddStep(2, ChangeStep(func(ctx context.Context, h *Helper) error {
		return h.RenameTable(ctx, "a", "b")
	}))

	err = m.Start(context.Background(), db, nil)
	if !errors.Is(err, ErrHistoryWrite) {
		t.Fatalf("expected ErrHistoryWrite, got %v", err)
	}
	if !errors.Is(err, ErrMigrationFailed) {
		t.Fatalf("expected ErrMigrationFailed, got %v", err)
	}
	var dbErr *DatabaseError
	if !errors.As(err, &dbErr) || dbErr.Operation != "record history" || dbErr.Version != 2 {
		t.Fatalf("unexpected database error %#v", dbErr)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestHistoryStore_PostgresDialect(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	builder := ddl.Postgres{}
	table := "schema_history"
	stmt := "ALTER TABLE accounts ADD COLUMN email TEXT"

	mock.ExpectExec(builder.CreateHistoryTable(table)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(builder.SelectCurrentVersion(table)).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(3))

	m, err := New(Config{Version: 3, Dialect: builder, HistoryTable: table, Now: fixedNow})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	m.AddStep(4, NewStep(nil, func(ctx context.Context, h *Helper) error {
		return h.ExecSQL(ctx, stmt)
	}))

	if err := m.Run(context.Background(), db, 3); err != nil {
		t.Fatalf("no-op run failed: %v", err)
	}

	mock.ExpectExec(builder.CreateHistoryTable(table)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(stmt).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(builder.InsertHistory(table)).
		WithArgs(3, stmt, fixedNow()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := m.Downgrade(context.Background(), db, 4, 3); err != nil {
		t.Fatalf("Downgrade failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestHistoryStore_CurrentVersionEmpty(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	store := NewHistoryStore("", nil, fixedNow)
	mock.ExpectQuery(ddl.SQLite{}.SelectCurrentVersion(DefaultHistoryTable)).
		WillReturnRows(sqlmock.NewRows([]string{"version"}))

	version, err := store.CurrentVersion(context.Background(), db)
	if err != nil {
		t.Fatalf("CurrentVersion failed: %v", err)
	}
	if version != 0 {
		t.Fatalf("expected 0 for empty history, got %d", version)
	}
}

func TestHistoryStore_CreateTableFailure(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(ddl.SQLite{}.CreateHistoryTable(DefaultHistoryTable)).
		WillReturnError(errors.New("read-only database"))

	m, err := New(Config{Version: 1})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	err = m.Start(context.Background(), db, nil)
	var dbErr *DatabaseError
	if !errors.As(err, &dbErr) || dbErr.Operation != "create history table" {
		t.Fatalf("expected create table failure, got %v", err)
	}
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

	tests := []struct {
		name  string
		value any
	}{
		{"time value", want},
		{"go string form", "2024-01-02 15:04:05 +0000 UTC"},
		{"rfc3339", "2024-01-02T15:04:05Z"},
		{"sqlite default", "2024-01-02 15:04:05"},
		{"bytes", []byte("2024-01-02 15:04:05")},
		{"offset", "2024-01-02 17:04:05+02:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTimestamp(tt.value)
			if err != nil {
				t.Fatalf("parseTimestamp failed: %v", err)
			}
			if !got.Equal(want) {
				t.Fatalf("expected %v, got %v", want, got)
			}
		})
	}

	if _, err := parseTimestamp("yesterday"); err == nil {
		t.Fatal("expected error for unparseable timestamp")
	}
	if _, err := parseTimestamp(42); err == nil {
		t.Fatal("expected error for unsupported type")
	}
}
