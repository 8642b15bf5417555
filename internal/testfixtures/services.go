package testfixtures

import (
	"log/slog"
	"testing"
	"time"

	"github.com/example/stepmigrate/internal/ddl"
	"github.com/example/stepmigrate/internal/migration"
)

// MigratorFactory assists tests with constructing migrators using
// deterministic run identifiers and clocks.
type MigratorFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
}

// MigratorFactoryOption configures a MigratorFactory instance.
type MigratorFactoryOption func(*MigratorFactory)

// NewMigratorFactory constructs a MigratorFactory with defaults.
func NewMigratorFactory(opts ...MigratorFactoryOption) *MigratorFactory {
	factory := &MigratorFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("run"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("run")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) MigratorFactoryOption {
	return func(factory *MigratorFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the run identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) MigratorFactoryOption {
	return func(factory *MigratorFactory) {
		factory.IDGenerator = generator
	}
}

// MigratorDeps captures the settings for constructing a migrator.
type MigratorDeps struct {
	Version      int
	Trace        bool
	Dialect      ddl.Builder
	HistoryTable string
	Logger       *slog.Logger
}

// NewMigrator builds a migrator using the supplied settings combined with the
// factory's clock and run identifiers. It fails the test on invalid settings.
func (f *MigratorFactory) NewMigrator(tb testing.TB, deps MigratorDeps) *migration.Migrator {
	tb.Helper()

	m, err := migration.New(migration.Config{
		Version:      deps.Version,
		Trace:        deps.Trace,
		Dialect:      deps.Dialect,
		HistoryTable: deps.HistoryTable,
		Logger:       deps.Logger,
		Now:          f.Clock.NowFunc(),
		RunID:        f.IDGenerator.NextFunc(),
	})
	if err != nil {
		tb.Fatalf("failed to create migrator: %v", err)
	}
	return m
}
