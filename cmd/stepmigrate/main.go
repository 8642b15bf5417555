package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

type options struct {
	driver       string
	dsn          string
	planPath     string
	historyTable string
	logFormat    string
	trace        bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "stepmigrate",
		Short: "Versioned, reversible schema migrations",
		Long: `stepmigrate moves a database between schema versions by running the
steps of a YAML plan upward or downward, recording every executed statement
in a history table.

Configuration is read from STEPMIGRATE_* environment variables. Flags
override them.

Example:
  stepmigrate baseline 1
  stepmigrate migrate --plan migrations.yaml
  stepmigrate migrate --plan migrations.yaml --to 3
  stepmigrate status --plan migrations.yaml`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.driver, "driver", "", "database driver: sqlite or postgres (env STEPMIGRATE_DRIVER)")
	flags.StringVar(&opts.dsn, "dsn", "", "database connection string (env STEPMIGRATE_DSN)")
	flags.StringVarP(&opts.planPath, "plan", "p", "", "path to the YAML migration plan (env STEPMIGRATE_PLAN)")
	flags.StringVar(&opts.historyTable, "history-table", "", "history table name (env STEPMIGRATE_HISTORY_TABLE)")
	flags.StringVar(&opts.logFormat, "log-format", "", "log format: json or text (env STEPMIGRATE_LOG_FORMAT)")
	flags.BoolVarP(&opts.trace, "trace", "v", false, "log every step and statement (env STEPMIGRATE_TRACE)")

	root.AddCommand(
		newMigrateCommand(),
		newStatusCommand(),
		newHistoryCommand(),
		newBaselineCommand(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "stepmigrate version %s\n", version)
			},
		},
	)
	return root
}
