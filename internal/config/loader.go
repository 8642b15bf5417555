package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/example/stepmigrate/internal/ddl"
)

// DefaultSQLiteDSN is used when STEPMIGRATE_DSN is unset and the driver is SQLite.
const DefaultSQLiteDSN = "file:stepmigrate.db?_pragma=foreign_keys(1)"

// Config captures environment driven configuration values for the migration CLI.
type Config struct {
	Driver       string
	DSN          string
	PlanPath     string
	HistoryTable string
	Trace        bool
	LogFormat    string
	BusyTimeout  time.Duration
}

// Dialect returns the DDL builder matching the configured driver.
func (c Config) Dialect() (ddl.Builder, error) {
	return ddl.Lookup(c.Driver)
}

// IsPostgres reports whether the configured driver targets PostgreSQL.
func (c Config) IsPostgres() bool {
	b, err := c.Dialect()
	return err == nil && b.Name() == ddl.Postgres{}.Name()
}

// RequirePlan returns an error when no plan file has been configured.
func (c Config) RequirePlan() error {
	if strings.TrimSpace(c.PlanPath) == "" {
		return fmt.Errorf("required environment variables are not set: %s", "STEPMIGRATE_PLAN")
	}
	return nil
}

// Load parses configuration values from the current process environment.
func Load() (Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom parses configuration values read through getenv, so callers can
// layer other sources such as command-line flags over the environment.
//
// Optional fields fall back to defaults. Every missing or malformed variable is
// collected so a single error reports all of them.
func LoadFrom(getenv func(string) string) (Config, error) {
	cfg := Config{
		Driver:      "sqlite",
		LogFormat:   "json",
		BusyTimeout: 30 * time.Second,
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 4)

	if driver := strings.ToLower(strings.TrimSpace(getenv("STEPMIGRATE_DRIVER"))); driver != "" {
		if _, err := ddl.Lookup(driver); err != nil {
			invalid = append(invalid, "STEPMIGRATE_DRIVER")
		} else {
			cfg.Driver = driver
		}
	}

	if dsn := strings.TrimSpace(getenv("STEPMIGRATE_DSN")); dsn != "" {
		cfg.DSN = dsn
	} else if cfg.IsPostgres() {
		missing = append(missing, "STEPMIGRATE_DSN")
	} else {
		cfg.DSN = DefaultSQLiteDSN
	}

	cfg.PlanPath = strings.TrimSpace(getenv("STEPMIGRATE_PLAN"))
	cfg.HistoryTable = strings.TrimSpace(getenv("STEPMIGRATE_HISTORY_TABLE"))

	if traceValue := strings.TrimSpace(getenv("STEPMIGRATE_TRACE")); traceValue != "" {
		trace, err := strconv.ParseBool(traceValue)
		if err != nil {
			invalid = append(invalid, "STEPMIGRATE_TRACE")
		} else {
			cfg.Trace = trace
		}
	}

	if format := strings.ToLower(strings.TrimSpace(getenv("STEPMIGRATE_LOG_FORMAT"))); format != "" {
		if format != "json" && format != "text" {
			invalid = append(invalid, "STEPMIGRATE_LOG_FORMAT")
		} else {
			cfg.LogFormat = format
		}
	}

	if timeoutValue := strings.TrimSpace(getenv("STEPMIGRATE_BUSY_TIMEOUT")); timeoutValue != "" {
		timeout, err := time.ParseDuration(timeoutValue)
		if err != nil || timeout < 0 {
			invalid = append(invalid, "STEPMIGRATE_BUSY_TIMEOUT")
		} else {
			cfg.BusyTimeout = timeout
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
