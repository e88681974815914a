// Package config holds the process-level configuration of the reader: which
// state store to use, where it lives and the listen addresses of the API and
// metrics servers.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	envconfig "feedreader/internal/pkg/config"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverYAML     = "yaml"
)

// Default store locations per file-backed driver.
const (
	DefaultSQLitePath = "feedreader.db"
	DefaultYAMLPath   = "feedreader.yaml"
)

// AppConfig holds the configuration not owned by the worker.
type AppConfig struct {
	// StoreDriver selects the state store: sqlite, postgres or yaml.
	// Default: sqlite
	StoreDriver string

	// StorePath is the file of the sqlite and yaml stores.
	// Default: feedreader.db (sqlite), feedreader.yaml (yaml)
	StorePath string

	// DatabaseURL is the postgres DSN. Required when StoreDriver is postgres.
	DatabaseURL string

	// StoreAPIDir is the only directory API clients may save to or load
	// from, by file name. Always empty for postgres, so clients can never
	// name a DSN. The API is a local control surface with no auth; keep
	// API_ADDR on loopback or a trusted network.
	// Default: the directory of StorePath
	StoreAPIDir string

	// APIAddr is the listen address of the JSON API. Default: ":8080"
	APIAddr string

	// MetricsPort is the port of the Prometheus endpoint. Default: 9090
	MetricsPort int

	// RequestTimeout bounds each API request. Default: 2m
	RequestTimeout time.Duration

	// MaxBodyBytes caps API request bodies. Default: 1 MiB
	MaxBodyBytes int
}

// DefaultAppConfig returns the configuration used when no variable is set.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		StoreDriver:    DriverSQLite,
		StorePath:      DefaultSQLitePath,
		APIAddr:        ":8080",
		MetricsPort:    9090,
		RequestTimeout: 2 * time.Minute,
		MaxBodyBytes:   1 << 20,
	}
}

func validateMetricsPort(n int) error {
	return envconfig.ValidateIntRange(n, 1024, 65535)
}

func validateRequestTimeout(d time.Duration) error {
	return envconfig.ValidateDuration(d, time.Second, 10*time.Minute)
}

func validateMaxBodyBytes(n int) error {
	return envconfig.ValidateIntRange(n, 1<<10, 64<<20)
}

// Validate checks every field and returns all failures joined.
func (c *AppConfig) Validate() error {
	var errs []error

	if err := envconfig.ValidateOneOf(c.StoreDriver, DriverSQLite, DriverPostgres, DriverYAML); err != nil {
		errs = append(errs, fmt.Errorf("store driver: %w", err))
	}
	if c.StoreDriver == DriverPostgres && c.DatabaseURL == "" {
		errs = append(errs, errors.New("database url: required for the postgres store"))
	}
	if c.StoreDriver != DriverPostgres && c.StorePath == "" {
		errs = append(errs, errors.New("store path: required for file stores"))
	}
	if err := envconfig.ValidateListenAddr(c.APIAddr); err != nil {
		errs = append(errs, fmt.Errorf("api addr: %w", err))
	}
	if err := validateMetricsPort(c.MetricsPort); err != nil {
		errs = append(errs, fmt.Errorf("metrics port: %w", err))
	}
	if err := validateRequestTimeout(c.RequestTimeout); err != nil {
		errs = append(errs, fmt.Errorf("request timeout: %w", err))
	}
	if err := validateMaxBodyBytes(c.MaxBodyBytes); err != nil {
		errs = append(errs, fmt.Errorf("max body bytes: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %w", errors.Join(errs...))
	}
	return nil
}

// StoreLocation returns the path or DSN the selected store opens.
func (c *AppConfig) StoreLocation() string {
	if c.StoreDriver == DriverPostgres {
		return c.DatabaseURL
	}
	return c.StorePath
}

// LoadAppConfig loads the configuration from the environment. Unparseable or
// out-of-range values fall back to their defaults and are logged; the caller
// still runs Validate to catch what has no default, such as a postgres store
// without DATABASE_URL.
//
// Environment variables:
//   - STORE_DRIVER: sqlite, postgres or yaml (default: sqlite)
//   - STORE_PATH: file of the sqlite/yaml store (default per driver)
//   - DATABASE_URL: postgres DSN
//   - STORE_API_DIR: directory for API save/load file names (default: dir of
//     STORE_PATH; ignored for postgres)
//   - API_ADDR: listen address (default: :8080)
//   - METRICS_PORT: integer, 1024-65535 (default: 9090)
//   - API_REQUEST_TIMEOUT: duration, 1s-10m (default: 2m)
//   - API_MAX_BODY_BYTES: integer, 1KiB-64MiB (default: 1MiB)
func LoadAppConfig(logger *slog.Logger, metrics *envconfig.ConfigMetrics) AppConfig {
	cfg := DefaultAppConfig()
	c := envconfig.NewCollector(metrics)

	cfg.StoreDriver = envconfig.Use(c, "store_driver",
		envconfig.LoadEnvChoice("STORE_DRIVER", cfg.StoreDriver, DriverSQLite, DriverPostgres, DriverYAML))

	defaultPath := DefaultSQLitePath
	if cfg.StoreDriver == DriverYAML {
		defaultPath = DefaultYAMLPath
	}
	cfg.StorePath = envconfig.LoadEnvString("STORE_PATH", defaultPath)
	cfg.DatabaseURL = envconfig.LoadEnvString("DATABASE_URL", "")
	if cfg.StoreDriver != DriverPostgres {
		cfg.StoreAPIDir = envconfig.LoadEnvString("STORE_API_DIR", filepath.Dir(cfg.StorePath))
	}

	cfg.APIAddr = envconfig.Use(c, "api_addr",
		envconfig.LoadEnvWithFallback("API_ADDR", cfg.APIAddr, envconfig.ValidateListenAddr))
	cfg.MetricsPort = envconfig.Use(c, "metrics_port",
		envconfig.LoadEnvInt("METRICS_PORT", cfg.MetricsPort, validateMetricsPort))
	cfg.RequestTimeout = envconfig.Use(c, "request_timeout",
		envconfig.LoadEnvDuration("API_REQUEST_TIMEOUT", cfg.RequestTimeout, validateRequestTimeout))
	cfg.MaxBodyBytes = envconfig.Use(c, "max_body_bytes",
		envconfig.LoadEnvInt("API_MAX_BODY_BYTES", cfg.MaxBodyBytes, validateMaxBodyBytes))

	fields := c.Fields()
	for i, warning := range c.Warnings() {
		logger.Warn("Configuration fallback applied",
			slog.String("field", fields[i]),
			slog.String("warning", warning))
	}
	c.Finish()

	return cfg
}
