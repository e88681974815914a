// Command reader runs the feed reader engine: it loads the saved views,
// refreshes their sources on a schedule, autosaves, and serves the JSON API
// together with health and metrics endpoints.
package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"feedreader/internal/config"
	hhttp "feedreader/internal/handler/http"
	"feedreader/internal/handler/http/respond"
	"feedreader/internal/infra/adapter/persistence/postgres"
	"feedreader/internal/infra/adapter/persistence/sqlite"
	"feedreader/internal/infra/adapter/persistence/yamlfile"
	"feedreader/internal/infra/scraper"
	"feedreader/internal/infra/worker"
	"feedreader/internal/observability/logging"
	"feedreader/internal/observability/tracing"
	envconfig "feedreader/internal/pkg/config"
	"feedreader/internal/repository"
	"feedreader/internal/usecase/registry"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("reader exited", slog.String("error", respond.SanitizeError(err)))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := tracing.Init()
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("failed to shut down tracer provider", slog.Any("error", err))
		}
	}()

	// Configuration (fail-open except for what has no default)
	workerMetrics := worker.NewWorkerMetrics(prometheus.DefaultRegisterer)
	workerCfg := worker.LoadConfigFromEnv(logger, workerMetrics)
	appCfg := config.LoadAppConfig(logger, envconfig.NewConfigMetrics(prometheus.DefaultRegisterer, "app"))
	if err := appCfg.Validate(); err != nil {
		return err
	}
	logger.Info("configuration loaded",
		slog.String("store_driver", appCfg.StoreDriver),
		slog.String("api_addr", appCfg.APIAddr),
		slog.Duration("update_period", workerCfg.UpdatePeriod),
		slog.Duration("autosave_period", workerCfg.AutosavePeriod),
		slog.Int("fetch_parallelism", workerCfg.FetchParallelism))

	store, err := openStore(ctx, logger, appCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close state store", slog.Any("error", err))
		}
	}()

	fetchCfg := scraper.DefaultConfig()
	fetchCfg.Timeout = workerCfg.FetchTimeout
	fetcher := scraper.NewRSSFetcher(createHTTPClient(), fetchCfg).WithLogger(logger)

	reg := registry.New(fetcher, store, registry.Config{
		UpdatePeriod:     workerCfg.UpdatePeriod,
		AutosavePeriod:   workerCfg.AutosavePeriod,
		FetchParallelism: workerCfg.FetchParallelism,
	}).WithLogger(logger)

	if err := reg.Load(ctx, ""); err != nil {
		logger.Warn("starting with an empty registry, saved state could not be loaded",
			slog.String("error", respond.SanitizeError(err)))
	}

	sched := worker.NewScheduler(reg, *workerCfg, workerMetrics, logger)

	// Health and metrics servers
	health := worker.NewHealthServer(fmt.Sprintf(":%d", workerCfg.HealthPort), logger)
	health.AddCheck("scheduler", func() error {
		if !sched.Running() {
			return worker.ErrSchedulerStopped
		}
		return nil
	})
	go func() {
		if err := health.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()
	startMetricsServer(ctx, logger, appCfg.MetricsPort)

	// API server
	srv := &http.Server{
		Addr: appCfg.APIAddr,
		Handler: hhttp.NewRouter(logger, reg, sched, hhttp.Options{
			MaxBodyBytes:   int64(appCfg.MaxBodyBytes),
			RequestTimeout: appCfg.RequestTimeout,
			StoreDir:       appCfg.StoreAPIDir,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("api server starting", slog.String("addr", appCfg.APIAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	health.SetReady(true)

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serveErr:
		runErr = fmt.Errorf("api server: %w", err)
	}

	return errors.Join(runErr, shutdown(logger, srv, health, sched, reg, workerCfg.StopTimeout))
}

// shutdown stops accepting requests, stops the scheduler and saves once more.
// The final save runs even when the scheduler did not stop in time.
func shutdown(logger *slog.Logger, srv *http.Server, health *worker.HealthServer,
	sched *worker.Scheduler, reg *registry.Registry, stopTimeout time.Duration) error {
	health.SetReady(false)

	httpCtx, cancelHTTP := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelHTTP()
	if err := srv.Shutdown(httpCtx); err != nil {
		logger.Error("api server shutdown failed", slog.Any("error", err))
	}

	stopCtx, cancelStop := context.WithTimeout(context.Background(), stopTimeout)
	defer cancelStop()
	if err := sched.Stop(stopCtx); err != nil {
		logger.Warn("scheduler did not stop cleanly", slog.Any("error", err))
	}

	saveCtx, cancelSave := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelSave()
	if err := reg.Save(saveCtx); err != nil {
		return fmt.Errorf("final save: %w", err)
	}
	logger.Info("reader stopped")
	return nil
}

// openStore opens the state store selected by STORE_DRIVER.
func openStore(ctx context.Context, logger *slog.Logger, cfg config.AppConfig) (repository.StateStore, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		st, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		logger.Info("state store opened", slog.String("driver", cfg.StoreDriver))
		return st.WithLogger(logger), nil
	case config.DriverYAML:
		st, err := yamlfile.New(cfg.StorePath)
		if err != nil {
			return nil, err
		}
		logger.Info("state store opened",
			slog.String("driver", cfg.StoreDriver),
			slog.String("path", cfg.StorePath))
		return st, nil
	default:
		st, err := sqlite.New(ctx, cfg.StorePath)
		if err != nil {
			return nil, err
		}
		logger.Info("state store opened",
			slog.String("driver", cfg.StoreDriver),
			slog.String("path", cfg.StorePath))
		return st.WithLogger(logger), nil
	}
}

func createHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
}
