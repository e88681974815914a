package worker

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"feedreader/internal/pkg/config"
)

// WorkerConfig holds the configuration of the background scheduler and its
// health endpoint.
//
// Configuration sources:
//   - Environment variables (loaded via LoadConfigFromEnv)
//   - Default values (provided by DefaultConfig)
//
// Every field has a default and a validation range, so the worker can always
// start even when the environment is wrong.
type WorkerConfig struct {
	// UpdatePeriod is the interval between two refresh ticks.
	// Range: 1m-24h. Default: 15m.
	UpdatePeriod time.Duration

	// AutosavePeriod is the interval between two autosaves.
	// Range: 10s-24h. Default: 5m.
	AutosavePeriod time.Duration

	// FetchTimeout bounds the retrieval of one document.
	// Range: 1s-5m. Default: 30s.
	FetchTimeout time.Duration

	// FetchParallelism is the number of documents fetched at once in a tick.
	// Range: 1-32. Default: 4.
	FetchParallelism int

	// StopTimeout is how long Stop waits for an in-flight tick before
	// canceling it.
	// Range: 1s-10m. Default: 30s.
	StopTimeout time.Duration

	// RefreshOnStart runs one tick as soon as the scheduler starts.
	// Default: true.
	RefreshOnStart bool

	// HealthPort is the port of the health check HTTP server.
	// Range: 1024-65535. Default: 9091.
	HealthPort int
}

// DefaultConfig returns a WorkerConfig with default values.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		UpdatePeriod:     15 * time.Minute,
		AutosavePeriod:   5 * time.Minute,
		FetchTimeout:     30 * time.Second,
		FetchParallelism: 4,
		StopTimeout:      30 * time.Second,
		RefreshOnStart:   true,
		HealthPort:       9091,
	}
}

func validateUpdatePeriod(d time.Duration) error {
	return config.ValidateDuration(d, 1*time.Minute, 24*time.Hour)
}

func validateAutosavePeriod(d time.Duration) error {
	return config.ValidateDuration(d, 10*time.Second, 24*time.Hour)
}

func validateFetchTimeout(d time.Duration) error {
	return config.ValidateDuration(d, 1*time.Second, 5*time.Minute)
}

func validateStopTimeout(d time.Duration) error {
	return config.ValidateDuration(d, 1*time.Second, 10*time.Minute)
}

func validateFetchParallelism(n int) error {
	return config.ValidateIntRange(n, 1, 32)
}

func validateHealthPort(n int) error {
	return config.ValidateIntRange(n, 1024, 65535)
}

// Validate checks every field and returns all failures joined.
func (c *WorkerConfig) Validate() error {
	var errs []error

	if err := validateUpdatePeriod(c.UpdatePeriod); err != nil {
		errs = append(errs, fmt.Errorf("update period: %w", err))
	}
	if err := validateAutosavePeriod(c.AutosavePeriod); err != nil {
		errs = append(errs, fmt.Errorf("autosave period: %w", err))
	}
	if err := validateFetchTimeout(c.FetchTimeout); err != nil {
		errs = append(errs, fmt.Errorf("fetch timeout: %w", err))
	}
	if err := validateFetchParallelism(c.FetchParallelism); err != nil {
		errs = append(errs, fmt.Errorf("fetch parallelism: %w", err))
	}
	if err := validateStopTimeout(c.StopTimeout); err != nil {
		errs = append(errs, fmt.Errorf("stop timeout: %w", err))
	}
	if err := validateHealthPort(c.HealthPort); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %w", errors.Join(errs...))
	}
	return nil
}

// LoadConfigFromEnv loads the worker configuration from the environment,
// falling back to the default of any field whose value is unparseable or out
// of range. It never fails; each fallback is logged as a warning and counted
// in metrics.
//
// Environment variables:
//   - UPDATE_PERIOD: duration, 1m-24h (default: 15m)
//   - AUTOSAVE_PERIOD: duration, 10s-24h (default: 5m)
//   - FETCH_TIMEOUT: duration, 1s-5m (default: 30s)
//   - FETCH_PARALLELISM: integer, 1-32 (default: 4)
//   - STOP_TIMEOUT: duration, 1s-10m (default: 30s)
//   - REFRESH_ON_START: boolean (default: true)
//   - WORKER_HEALTH_PORT: integer, 1024-65535 (default: 9091)
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) *WorkerConfig {
	cfg := DefaultConfig()

	var cm *config.ConfigMetrics
	if metrics != nil {
		cm = metrics.ConfigMetrics
	}
	c := config.NewCollector(cm)

	cfg.UpdatePeriod = config.Use(c, "update_period",
		config.LoadEnvDuration("UPDATE_PERIOD", cfg.UpdatePeriod, validateUpdatePeriod))
	cfg.AutosavePeriod = config.Use(c, "autosave_period",
		config.LoadEnvDuration("AUTOSAVE_PERIOD", cfg.AutosavePeriod, validateAutosavePeriod))
	cfg.FetchTimeout = config.Use(c, "fetch_timeout",
		config.LoadEnvDuration("FETCH_TIMEOUT", cfg.FetchTimeout, validateFetchTimeout))
	cfg.FetchParallelism = config.Use(c, "fetch_parallelism",
		config.LoadEnvInt("FETCH_PARALLELISM", cfg.FetchParallelism, validateFetchParallelism))
	cfg.StopTimeout = config.Use(c, "stop_timeout",
		config.LoadEnvDuration("STOP_TIMEOUT", cfg.StopTimeout, validateStopTimeout))
	cfg.RefreshOnStart = config.Use(c, "refresh_on_start",
		config.LoadEnvBool("REFRESH_ON_START", cfg.RefreshOnStart))
	cfg.HealthPort = config.Use(c, "health_port",
		config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, validateHealthPort))

	fields := c.Fields()
	for i, warning := range c.Warnings() {
		logger.Warn("Configuration fallback applied",
			slog.String("field", fields[i]),
			slog.String("warning", warning))
	}
	c.Finish()

	return &cfg
}
