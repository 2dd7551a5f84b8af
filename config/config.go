package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/jalpatel9108-creator/library-management-system/recordstore"
)

// DotEnvFile is read from the working directory when present.
const DotEnvFile = ".env"

// Environment keys.
const (
	EnvDataDir              = "LIBRARY_DATA_DIR"
	EnvBackend              = "LIBRARY_BACKEND"
	EnvPostgresDSN          = "LIBRARY_POSTGRES_DSN"
	EnvDBAdapter            = "DB_ADAPTER"
	EnvFinePerDay           = "LIBRARY_FINE_PER_DAY"
	EnvDefaultDueDays       = "LIBRARY_DEFAULT_DUE_DAYS"
	EnvAdminConfig          = "LIBRARY_ADMIN_CONFIG"
	EnvLogFile              = "LIBRARY_LOG_FILE"
	EnvLogLevel             = "LIBRARY_LOG_LEVEL"
	EnvTimezone             = "LIBRARY_TIMEZONE"
	EnvReconcileOnStart     = "LIBRARY_RECONCILE_ON_START"
	EnvObservabilityEnabled = "OBSERVABILITY_ENABLED"
	EnvTracesEndpoint       = "OTEL_TRACES_ENDPOINT"
	EnvMetricsEndpoint      = "OTEL_METRICS_ENDPOINT"
)

// ErrInvalidConfig is returned when a setting has a value that cannot be used.
var ErrInvalidConfig = errors.New("invalid configuration")

// Backend selects the record store.
type Backend string

const (
	// BackendFile keeps the collections in flat binary files.
	BackendFile Backend = "file"

	// BackendPostgres keeps the collections in PostgreSQL tables.
	BackendPostgres Backend = "postgres"
)

// DBAdapter selects the PostgreSQL driver.
type DBAdapter string

const (
	// AdapterPGX uses a pgx connection pool.
	AdapterPGX DBAdapter = "pgx"

	// AdapterSQL uses database/sql with lib/pq.
	AdapterSQL DBAdapter = "sql"

	// AdapterSQLX uses sqlx with lib/pq.
	AdapterSQLX DBAdapter = "sqlx"
)

// Config holds every setting of the library binary.
type Config struct {
	DataDir              string
	Backend              Backend
	PostgresDSN          string
	DBAdapter            DBAdapter
	FinePerDay           int64
	DefaultDueDays       int
	AdminConfig          string
	LogFile              string
	LogLevel             slog.Level
	Location             *time.Location
	ReconcileOnStart     bool
	ObservabilityEnabled bool
	TracesEndpoint       string
	MetricsEndpoint      string
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		DataDir:          ".",
		Backend:          BackendFile,
		DBAdapter:        AdapterPGX,
		FinePerDay:       5,
		DefaultDueDays:   14,
		AdminConfig:      "admin.cfg",
		LogFile:          "library.log",
		LogLevel:         slog.LevelInfo,
		Location:         time.Local,
		ReconcileOnStart: true,
		TracesEndpoint:   "localhost:4317",
		MetricsEndpoint:  "localhost:4317",
	}
}

// Load reads .env, the process environment and args (without the program name).
func Load(args []string) (Config, error) {
	return load(args, os.LookupEnv, DotEnvFile, os.Stderr)
}

func load(args []string, lookupEnv func(string) (string, bool), dotEnvPath string, flagOutput io.Writer) (Config, error) {
	dotEnv, err := godotenv.Read(dotEnvPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("%w: reading %s: %w", ErrInvalidConfig, dotEnvPath, err)
		}
		dotEnv = map[string]string{}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := lookupEnv(key); ok {
			return v, true
		}
		v, ok := dotEnv[key]
		return v, ok
	}

	cfg := Default()
	values := map[string]string{}
	for _, key := range []string{
		EnvDataDir, EnvBackend, EnvPostgresDSN, EnvDBAdapter, EnvFinePerDay, EnvDefaultDueDays,
		EnvAdminConfig, EnvLogFile, EnvLogLevel, EnvTimezone, EnvReconcileOnStart,
		EnvObservabilityEnabled, EnvTracesEndpoint, EnvMetricsEndpoint,
	} {
		if v, ok := lookup(key); ok {
			values[key] = strings.TrimSpace(v)
		}
	}

	fs := flag.NewFlagSet("library", flag.ContinueOnError)
	fs.SetOutput(flagOutput)

	str := func(name, key, usage string) {
		fs.Func(name, usage+" ("+key+")", func(v string) error {
			values[key] = strings.TrimSpace(v)
			return nil
		})
	}
	str("data-dir", EnvDataDir, "directory holding data files, reports and backups")
	str("backend", EnvBackend, "record store: file or postgres")
	str("postgres-dsn", EnvPostgresDSN, "PostgreSQL connection string")
	str("db-adapter", EnvDBAdapter, "PostgreSQL driver: pgx, sql or sqlx")
	str("fine-per-day", EnvFinePerDay, "fine per day late")
	str("due-days", EnvDefaultDueDays, "default loan period in days")
	str("admin-config", EnvAdminConfig, "admin password file")
	str("log-file", EnvLogFile, "log file")
	str("log-level", EnvLogLevel, "debug, info, warn or error")
	str("timezone", EnvTimezone, "IANA time zone for report dates")
	str("reconcile", EnvReconcileOnStart, "repair book availability at start-up")
	str("observability-enabled", EnvObservabilityEnabled, "export traces and metrics via OTLP")

	if err = fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return Config{}, err
		}
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if err = cfg.apply(values); err != nil {
		return Config{}, err
	}

	return cfg, cfg.Validate()
}

func (c *Config) apply(values map[string]string) error {
	var err error

	if v, ok := values[EnvDataDir]; ok && v != "" {
		c.DataDir = v
	}
	if v, ok := values[EnvBackend]; ok && v != "" {
		c.Backend = Backend(strings.ToLower(v))
	}
	if v, ok := values[EnvPostgresDSN]; ok {
		c.PostgresDSN = v
	}
	if v, ok := values[EnvDBAdapter]; ok && v != "" {
		c.DBAdapter = DBAdapter(strings.ToLower(v))
	}
	if v, ok := values[EnvFinePerDay]; ok {
		if c.FinePerDay, err = strconv.ParseInt(v, 10, 64); err != nil {
			return invalid(EnvFinePerDay, v)
		}
	}
	if v, ok := values[EnvDefaultDueDays]; ok {
		if c.DefaultDueDays, err = strconv.Atoi(v); err != nil {
			return invalid(EnvDefaultDueDays, v)
		}
	}
	if v, ok := values[EnvAdminConfig]; ok && v != "" {
		c.AdminConfig = v
	}
	if v, ok := values[EnvLogFile]; ok {
		c.LogFile = v
	}
	if v, ok := values[EnvLogLevel]; ok && v != "" {
		if err = c.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return invalid(EnvLogLevel, v)
		}
	}
	if v, ok := values[EnvTimezone]; ok && v != "" {
		if c.Location, err = time.LoadLocation(v); err != nil {
			return invalid(EnvTimezone, v)
		}
	}
	if v, ok := values[EnvReconcileOnStart]; ok && v != "" {
		if c.ReconcileOnStart, err = strconv.ParseBool(v); err != nil {
			return invalid(EnvReconcileOnStart, v)
		}
	}
	if v, ok := values[EnvObservabilityEnabled]; ok && v != "" {
		if c.ObservabilityEnabled, err = strconv.ParseBool(v); err != nil {
			return invalid(EnvObservabilityEnabled, v)
		}
	}
	if v, ok := values[EnvTracesEndpoint]; ok && v != "" {
		c.TracesEndpoint = v
	}
	if v, ok := values[EnvMetricsEndpoint]; ok && v != "" {
		c.MetricsEndpoint = v
	}

	return nil
}

// Validate checks the combination of settings.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendFile:
	case BackendPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("%w: %s is required for the postgres backend", ErrInvalidConfig, EnvPostgresDSN)
		}
	default:
		return invalid(EnvBackend, string(c.Backend))
	}

	switch c.DBAdapter {
	case AdapterPGX, AdapterSQL, AdapterSQLX:
	default:
		return invalid(EnvDBAdapter, string(c.DBAdapter))
	}

	if c.FinePerDay < 0 {
		return fmt.Errorf("%w: %s must not be negative", ErrInvalidConfig, EnvFinePerDay)
	}

	if c.DefaultDueDays <= 0 || c.DefaultDueDays > recordstore.MaxDueDays {
		return fmt.Errorf("%w: %s must lie in 1..%d", ErrInvalidConfig, EnvDefaultDueDays, recordstore.MaxDueDays)
	}

	return nil
}

// InDataDir resolves a relative file name against DataDir.
func (c Config) InDataDir(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}

	return filepath.Join(c.DataDir, name)
}

func invalid(key string, value string) error {
	return fmt.Errorf("%w: %s=%q", ErrInvalidConfig, key, value)
}
