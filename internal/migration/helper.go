package migration

import (
	"context"
	"log/slog"

	"github.com/example/stepmigrate/internal/ddl"
)

// Helper is handed to each step callback. It executes statements on the
// borrowed connection and records each one in the history table.
type Helper struct {
	conn      Conn
	version   int
	direction Direction
	history   *HistoryStore
	builder   ddl.Builder
	logger    *slog.Logger
	trace     bool
}

// Version returns the version of the step being run.
func (h *Helper) Version() int {
	return h.version
}

// Upgrading reports whether the step is being run in the up direction.
func (h *Helper) Upgrading() bool {
	return h.direction == Up
}

// RecordedVersion is the version stamped on history rows written by this
// helper: the step version when upgrading, one below it when downgrading,
// since that is the schema version left behind.
func (h *Helper) RecordedVersion() int {
	if h.direction == Down {
		return h.version - 1
	}
	return h.version
}

// ExecSQL executes query and appends it to the history table.
func (h *Helper) ExecSQL(ctx context.Context, query string) error {
	if h.trace {
		h.logger.Info("executing migration statement", "sql", query)
	}
	if _, err := h.conn.ExecContext(ctx, query); err != nil {
		return NewDatabaseError(h.version, query, "execute statement", err)
	}
	return h.history.Append(ctx, h.conn, h.RecordedVersion(), &query)
}

// RenameTable renames from to to when upgrading and to back to from when
// downgrading, so one call serves both directions.
func (h *Helper) RenameTable(ctx context.Context, from, to string) error {
	if h.direction == Down {
		from, to = to, from
	}
	return h.ExecSQL(ctx, h.builder.RenameTable(from, to))
}
