package migration

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/example/stepmigrate/internal/ddl"
	"github.com/example/stepmigrate/internal/logging"
)

// Config holds the migrator configuration.
type Config struct {
	// Version is the schema version the application expects. Must be positive.
	Version int

	// Trace logs every step transition and every executed statement.
	Trace bool

	// Dialect renders history and rename statements. Defaults to SQLite.
	Dialect ddl.Builder

	// HistoryTable overrides DefaultHistoryTable.
	HistoryTable string

	// Logger receives run logs. A logger attached to the run context wins.
	Logger *slog.Logger

	// Now stamps history records. Defaults to time.Now.
	Now func() time.Time

	// RunID generates the identifier attached to each run's logs. Defaults to
	// random UUIDs.
	RunID func() string
}

// Migrator applies registered steps to move a database between schema
// versions. The current version is read from the history table on every run
// and never cached.
type Migrator struct {
	version  int
	trace    bool
	dialect  ddl.Builder
	registry *Registry
	history  *HistoryStore
	logger   *slog.Logger
	runID    func() string
}

var _ Engine = (*Migrator)(nil)

// New creates a Migrator from cfg.
func New(cfg Config) (*Migrator, error) {
	if cfg.Version <= 0 {
		return nil, fmt.Errorf("%w: target version must be positive, got %d", ErrInvalidVersion, cfg.Version)
	}
	dialect := cfg.Dialect
	if dialect == nil {
		dialect = ddl.SQLite{}
	}
	runID := cfg.RunID
	if runID == nil {
		runID = uuid.NewString
	}

	return &Migrator{
		version:  cfg.Version,
		trace:    cfg.Trace,
		dialect:  dialect,
		registry: NewRegistry(),
		history:  NewHistoryStore(cfg.HistoryTable, dialect, cfg.Now),
		logger:   cfg.Logger,
		runID:    runID,
	}, nil
}

// Version returns the configured target version.
func (m *Migrator) Version() int {
	return m.version
}

// Registry exposes the step registry, mainly for status reporting.
func (m *Migrator) Registry() *Registry {
	return m.registry
}

// AddStep registers step at version, replacing any step already there. Steps
// must be added before Start is called.
func (m *Migrator) AddStep(version int, step Step) {
	m.registry.Register(version, step)
}

// DBVersion returns the version persisted in the history table, or 0 when no
// history has been recorded.
func (m *Migrator) DBVersion(ctx context.Context, conn Conn) (int, error) {
	if err := m.history.EnsureSchema(ctx, conn); err != nil {
		return 0, err
	}
	return m.history.CurrentVersion(ctx, conn)
}

// History lists every history record in insertion order.
func (m *Migrator) History(ctx context.Context, conn Conn) ([]Record, error) {
	if err := m.history.EnsureSchema(ctx, conn); err != nil {
		return nil, err
	}
	return m.history.List(ctx, conn)
}

// Baseline records version without an associated statement. Applications use
// it after creating a fresh schema so later runs have history to start from.
func (m *Migrator) Baseline(ctx context.Context, conn Conn, version int) error {
	if version <= 0 {
		return fmt.Errorf("%w: baseline version must be positive, got %d", ErrInvalidVersion, version)
	}
	if err := m.history.EnsureSchema(ctx, conn); err != nil {
		return err
	}
	m.runLogger(ctx, "").Info("recording baseline version", "version", version)
	return m.history.Append(ctx, conn, version, nil)
}

// Start brings the database to the configured version. schemas is accepted
// for parity with other engines and not used.
func (m *Migrator) Start(ctx context.Context, conn Conn, _ []Schema) error {
	return m.Run(ctx, conn, m.version)
}

// Run moves the database to target, which must be positive. A database
// without history is left untouched: it is assumed to have been created at the
// current schema.
func (m *Migrator) Run(ctx context.Context, conn Conn, target int) error {
	if target <= 0 {
		return fmt.Errorf("%w: target version must be positive, got %d", ErrInvalidVersion, target)
	}
	logger := m.runLogger(ctx, m.runID())

	if err := m.history.EnsureSchema(ctx, conn); err != nil {
		return err
	}

	oldVersion, err := m.history.CurrentVersion(ctx, conn)
	if err != nil {
		return err
	}

	logger.Info("migration requested", "from", oldVersion, "to", target)

	switch {
	case oldVersion == 0:
		logger.Info("skipping migration: no migration history recorded")
		return nil
	case oldVersion == target:
		logger.Info("no migration needed")
		return nil
	case oldVersion < target:
		return m.walk(ctx, conn, logger, oldVersion, target, Up)
	default:
		return m.walk(ctx, conn, logger, oldVersion, target, Down)
	}
}

// Upgrade runs the up callback of every step in (oldVersion, newVersion] in
// ascending order.
func (m *Migrator) Upgrade(ctx context.Context, conn Conn, oldVersion, newVersion int) error {
	if oldVersion >= newVersion {
		return fmt.Errorf("%w: upgrade from %d to %d", ErrInvalidDirection, oldVersion, newVersion)
	}
	if err := m.history.EnsureSchema(ctx, conn); err != nil {
		return err
	}
	return m.walk(ctx, conn, m.runLogger(ctx, m.runID()), oldVersion, newVersion, Up)
}

// Downgrade runs the down callback of every step in (newVersion, oldVersion]
// in descending order.
func (m *Migrator) Downgrade(ctx context.Context, conn Conn, oldVersion, newVersion int) error {
	if oldVersion <= newVersion {
		return fmt.Errorf("%w: downgrade from %d to %d", ErrInvalidDirection, oldVersion, newVersion)
	}
	if err := m.history.EnsureSchema(ctx, conn); err != nil {
		return err
	}
	return m.walk(ctx, conn, m.runLogger(ctx, m.runID()), oldVersion, newVersion, Down)
}

func (m *Migrator) walk(ctx context.Context, conn Conn, logger *slog.Logger, oldVersion, newVersion int, direction Direction) error {
	steps := m.registry.Ascending()
	if direction == Down {
		steps = m.registry.Descending()
	}
	low, high := span(oldVersion, newVersion)

	applied := 0
	started := time.Now()
	for version, step := range steps {
		if !crosses(version, low, high) {
			continue
		}

		stepLogger := logger.With("step", version, "direction", direction.String())
		if m.trace {
			stepLogger.Info("running migration step", "from", oldVersion, "to", newVersion)
		}

		callback := step.callback(direction)
		if callback == nil {
			return NewStepError(version, direction, ErrMissingCallback)
		}

		helper := &Helper{
			conn:      conn,
			version:   version,
			direction: direction,
			history:   m.history,
			builder:   m.dialect,
			logger:    stepLogger,
			trace:     m.trace,
		}
		if err := callback(ctx, helper); err != nil {
			stepLogger.Error("migration step failed", "error", err, "error_kind", ErrorKind(err))
			return NewStepError(version, direction, err)
		}
		applied++
	}

	logger.Info("migration completed",
		"direction", direction.String(),
		"steps", applied,
		"duration", time.Since(started))
	return nil
}

// Pending returns the registered step versions a run from current to target
// would execute, in execution order, and the direction it would walk. It
// returns nil when the versions are equal.
func (m *Migrator) Pending(current, target int) (Direction, []int) {
	direction := Up
	if current > target {
		direction = Down
	}
	low, high := span(current, target)

	var pending []int
	for _, v := range m.registry.Versions() {
		if crosses(v, low, high) {
			pending = append(pending, v)
		}
	}
	if direction == Down {
		slices.Reverse(pending)
	}
	return direction, pending
}

// span orders a transition between two versions as (low, high].
func span(oldVersion, newVersion int) (low, high int) {
	return min(oldVersion, newVersion), max(oldVersion, newVersion)
}

// crosses reports whether a step at version runs when moving across (low, high].
func crosses(version, low, high int) bool {
	return version > low && version <= high
}

func (m *Migrator) runLogger(ctx context.Context, runID string) *slog.Logger {
	logger := logging.Resolve(ctx, m.logger).With("component", "migration")
	if runID != "" {
		logger = logger.With("run_id", runID)
	}
	return logger
}
