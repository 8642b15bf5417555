package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/stepmigrate/internal/config"
	"github.com/example/stepmigrate/internal/ddl"
	"github.com/example/stepmigrate/internal/logging"
	"github.com/example/stepmigrate/internal/migration"
	"github.com/example/stepmigrate/internal/persistence/postgres"
	"github.com/example/stepmigrate/internal/persistence/sqlite"
	"github.com/example/stepmigrate/internal/plan"
)

// flagEnv maps persistent flags onto the environment variables they override.
var flagEnv = map[string]string{
	"driver":        "STEPMIGRATE_DRIVER",
	"dsn":           "STEPMIGRATE_DSN",
	"plan":          "STEPMIGRATE_PLAN",
	"history-table": "STEPMIGRATE_HISTORY_TABLE",
	"log-format":    "STEPMIGRATE_LOG_FORMAT",
	"trace":         "STEPMIGRATE_TRACE",
}

// flagLookup returns a getenv replacement in which flags set on cmd take
// precedence over the process environment. The environment is only read.
func flagLookup(cmd *cobra.Command) func(string) string {
	overrides := make(map[string]string, len(flagEnv))
	for name, key := range flagEnv {
		if flag := cmd.Flags().Lookup(name); flag != nil && flag.Changed {
			overrides[key] = flag.Value.String()
		}
	}
	return func(key string) string {
		if value, ok := overrides[key]; ok {
			return value
		}
		return os.Getenv(key)
	}
}

// session holds the resources of one command invocation. Every statement
// runs on conn, a single pinned connection borrowed from db.
type session struct {
	cfg     config.Config
	dialect ddl.Builder
	logger  *slog.Logger
	db      *sql.DB
	conn    *sql.Conn
}

func openSession(cmd *cobra.Command) (context.Context, *session, error) {
	cfg, err := config.LoadFrom(flagLookup(cmd))
	if err != nil {
		return nil, nil, err
	}
	dialect, err := cfg.Dialect()
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cmd.ErrOrStderr(), cfg.LogFormat, slog.LevelInfo)
	if err != nil {
		return nil, nil, err
	}

	ctx := logging.ContextWithLogger(cmd.Context(), logger)

	var db *sql.DB
	if cfg.IsPostgres() {
		db, err = postgres.Open(ctx, cfg.DSN)
	} else {
		sqliteCfg := sqlite.DefaultConfig(cfg.DSN)
		sqliteCfg.BusyTimeout = cfg.BusyTimeout
		db, err = sqlite.Open(sqliteCfg)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open storage: %w", err)
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	logger.Info("storage opened", "driver", dialect.Name())
	return ctx, &session{cfg: cfg, dialect: dialect, logger: logger, db: db, conn: conn}, nil
}

func (s *session) Close() {
	if err := s.conn.Close(); err != nil {
		s.logger.Error("failed to release connection", "error", err)
	}
	if err := s.db.Close(); err != nil {
		s.logger.Error("failed to close storage", "error", err)
	}
}

func (s *session) newMigrator(target int) (*migration.Migrator, error) {
	return migration.New(migration.Config{
		Version:      target,
		Trace:        s.cfg.Trace,
		Dialect:      s.dialect,
		HistoryTable: s.cfg.HistoryTable,
		Logger:       s.logger,
	})
}

// loadPlan reads the configured plan and returns a migrator with its steps
// registered.
func (s *session) loadPlan() (*plan.Plan, *migration.Migrator, error) {
	if err := s.cfg.RequirePlan(); err != nil {
		return nil, nil, err
	}
	p, err := plan.Load(s.cfg.PlanPath)
	if err != nil {
		return nil, nil, err
	}
	m, err := s.newMigrator(p.Version)
	if err != nil {
		return nil, nil, err
	}
	p.Register(m)
	return p, m, nil
}

// inspector returns a migrator for read-only commands. Without a plan the
// target is a placeholder: History and DBVersion do not depend on it.
func (s *session) inspector() (*migration.Migrator, error) {
	if s.cfg.RequirePlan() == nil {
		_, m, err := s.loadPlan()
		return m, err
	}
	return s.newMigrator(1)
}

func newMigrateCommand() *cobra.Command {
	var to int

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Move the database to the plan's target version",
		Long: `Migrate reads the current version from the history table and runs the
plan's steps upward or downward until the target version is reached. With
--to the plan's target is replaced by the given version.

A database with no history is left untouched. Use baseline to record the
version of an existing schema first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("to") && to <= 0 {
				return fmt.Errorf("%w: --to must be positive, got %d", migration.ErrInvalidVersion, to)
			}

			ctx, s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			_, m, err := s.loadPlan()
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("to") {
				err = m.Run(ctx, s.conn, to)
			} else {
				err = m.Start(ctx, s.conn, nil)
			}
			if err != nil {
				return err
			}

			current, err := m.DBVersion(ctx, s.conn)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "database version: %d\n", current)
			return nil
		},
	}
	cmd.Flags().IntVar(&to, "to", 0, "target version overriding the plan")
	return cmd
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the target, persisted and pending versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			p, m, err := s.loadPlan()
			if err != nil {
				return err
			}
			current, err := m.DBVersion(ctx, s.conn)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "target version: %d\n", p.Version)
			fmt.Fprintf(out, "database version: %d\n", current)
			if current == 0 {
				fmt.Fprintln(out, "no migration history recorded")
				return nil
			}

			direction, pending := m.Pending(current, p.Version)
			if len(pending) == 0 {
				fmt.Fprintln(out, "pending steps: none")
				return nil
			}
			fmt.Fprintf(out, "pending steps (%s): %v\n", direction, pending)
			return nil
		},
	}
}

func newHistoryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Print every history record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			m, err := s.inspector()
			if err != nil {
				return err
			}
			records, err := m.History(ctx, s.conn)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tVERSION\tCREATED\tSQL")
			for _, r := range records {
				text := "-"
				if r.SQL != nil {
					text = *r.SQL
				}
				fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", r.ID, r.Version, r.CreatedAt.Format("2006-01-02 15:04:05"), text)
			}
			return w.Flush()
		},
	}
}

func newBaselineCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "baseline VERSION",
		Short: "Record VERSION in the history without running any step",
		Long: `Baseline records a version transition without an associated statement.
Run it once after creating a schema by other means so later migrations have a
starting point.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("%w: %q is not a number", migration.ErrInvalidVersion, args[0])
			}

			ctx, s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			m, err := s.newMigrator(target)
			if err != nil {
				return err
			}
			if err := m.Baseline(ctx, s.conn, target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "database version: %d\n", target)
			return nil
		},
	}
}
