// Package worker runs the background jobs of the reader: the periodic
// refresh tick and the autosave. It also serves the worker health endpoints.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"feedreader/internal/handler/http/respond"
	"feedreader/internal/usecase/registry"
)

const (
	jobRefresh  = "refresh"
	jobAutosave = "autosave"
)

// Registry is the part of registry.Registry the scheduler drives.
type Registry interface {
	Refresh(ctx context.Context) (registry.TickStats, error)
	Save(ctx context.Context) error
}

// Scheduler runs the refresh tick every UpdatePeriod and the autosave every
// AutosavePeriod. Runs of the same job never overlap; a tick that is due while
// the previous one is still running is skipped.
type Scheduler struct {
	reg     Registry
	cfg     WorkerConfig
	metrics *WorkerMetrics
	logger  *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
	base    context.Context
	cancel  context.CancelFunc
	jobs    *sync.WaitGroup

	// tickMu serializes ticks started by cron and by RunNow.
	tickMu sync.Mutex
}

// NewScheduler creates a stopped scheduler. metrics may be nil.
func NewScheduler(reg Registry, cfg WorkerConfig, metrics *WorkerMetrics, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		reg:     reg,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
	}
}

// Running reports whether the scheduler is started.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Start begins scheduling. It is a no-op when already started. With
// RefreshOnStart a first tick runs immediately in the background.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	cl := cronLogger{logger: s.logger}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	c.Schedule(cron.Every(s.cfg.UpdatePeriod), cron.FuncJob(func() { s.runTick() }))
	if s.cfg.AutosavePeriod > 0 {
		c.Schedule(cron.Every(s.cfg.AutosavePeriod), cron.FuncJob(s.runAutosave))
	}

	s.base, s.cancel = context.WithCancel(context.Background())
	s.jobs = &sync.WaitGroup{}
	s.cron = c
	s.running = true
	c.Start()

	if s.cfg.RefreshOnStart {
		jobs := s.jobs
		jobs.Add(1)
		go func() {
			defer jobs.Done()
			s.runTick()
		}()
	}

	if s.metrics != nil {
		s.metrics.SetRunning(true)
	}
	s.logger.Info("scheduler started",
		slog.Duration("update_period", s.cfg.UpdatePeriod),
		slog.Duration("autosave_period", s.cfg.AutosavePeriod),
		slog.Bool("refresh_on_start", s.cfg.RefreshOnStart))
	return nil
}

// Stop stops scheduling and waits for running jobs to finish, at most
// StopTimeout or until ctx is done. When the wait ends early the running
// jobs are canceled and ErrStopTimeout is returned. Stopping a stopped
// scheduler is a no-op.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	c, cancel, jobs := s.cron, s.cancel, s.jobs
	s.mu.Unlock()

	cronDone := c.Stop()
	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		jobs.Wait()
		close(done)
	}()

	if s.metrics != nil {
		s.metrics.SetRunning(false)
	}

	timer := time.NewTimer(s.cfg.StopTimeout)
	defer timer.Stop()

	select {
	case <-done:
		cancel()
		s.logger.Info("scheduler stopped")
		return nil
	case <-timer.C:
	case <-ctx.Done():
	}

	cancel()
	s.logger.Warn("scheduler stop timed out, in-flight jobs canceled",
		slog.Duration("stop_timeout", s.cfg.StopTimeout))
	return ErrStopTimeout
}

// RunNow runs one refresh tick synchronously, waiting for a tick already in
// progress to finish first. It fails with ErrSchedulerStopped while the
// scheduler is not started.
func (s *Scheduler) RunNow(ctx context.Context) (registry.TickStats, error) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return registry.TickStats{}, ErrSchedulerStopped
	}
	base, jobs := s.base, s.jobs
	jobs.Add(1)
	s.mu.Unlock()
	defer jobs.Done()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(base, cancel)
	defer stop()

	return s.tick(ctx)
}

func (s *Scheduler) runTick() {
	s.mu.Lock()
	base := s.base
	s.mu.Unlock()

	if _, err := s.tick(base); err != nil {
		s.logger.Warn("refresh tick failed", slog.String("error", respond.SanitizeError(err)))
	}
}

func (s *Scheduler) tick(ctx context.Context) (registry.TickStats, error) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	start := time.Now()
	stats, err := s.reg.Refresh(ctx)
	s.record(jobRefresh, start, err)
	if err != nil {
		return stats, fmt.Errorf("refresh: %w", err)
	}
	return stats, nil
}

func (s *Scheduler) runAutosave() {
	s.mu.Lock()
	base := s.base
	s.mu.Unlock()

	start := time.Now()
	err := s.reg.Save(base)
	s.record(jobAutosave, start, err)
	if err != nil {
		s.logger.Error("autosave failed", slog.String("error", respond.SanitizeError(err)))
		return
	}
	s.logger.Debug("autosave completed", slog.Duration("duration", time.Since(start)))
}

func (s *Scheduler) record(job string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	status := "success"
	switch {
	case err == nil:
		s.metrics.RecordLastSuccess(job)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = "canceled"
	default:
		status = "failure"
	}
	s.metrics.RecordJobRun(job, status)
	s.metrics.RecordJobDuration(job, time.Since(start).Seconds())
}
