// Package scheduler serves the HTTP endpoints that control the refresh scheduler.
package scheduler

import (
	"context"
	"errors"
	"net/http"

	"feedreader/internal/handler/http/respond"
	"feedreader/internal/infra/worker"
	"feedreader/internal/usecase/registry"
)

// Controller is the part of the scheduler the endpoints use.
type Controller interface {
	Start() error
	Stop(ctx context.Context) error
	RunNow(ctx context.Context) (registry.TickStats, error)
	Running() bool
}

// Register registers the scheduler handlers with the given mux.
func Register(mux *http.ServeMux, c Controller) {
	mux.Handle("GET /scheduler", StatusHandler{c})
	mux.Handle("POST /scheduler/start", StartHandler{c})
	mux.Handle("POST /scheduler/stop", StopHandler{c})
	mux.Handle("POST /scheduler/run", RunHandler{c})
}

type statusDTO struct {
	Running bool `json:"running"`
}

type StatusHandler struct{ C Controller }

func (h StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, statusDTO{Running: h.C.Running()})
}

type StartHandler struct{ C Controller }

func (h StartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.C.Start(); err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	respond.JSON(w, http.StatusOK, statusDTO{Running: h.C.Running()})
}

type StopHandler struct{ C Controller }

func (h StopHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.C.Stop(r.Context()); err != nil {
		if errors.Is(err, worker.ErrStopTimeout) {
			respond.JSON(w, http.StatusGatewayTimeout, map[string]string{"error": err.Error()})
			return
		}
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	respond.JSON(w, http.StatusOK, statusDTO{Running: h.C.Running()})
}

type tickDTO struct {
	TickID   string `json:"tick_id"`
	Sources  int    `json:"sources"`
	Failed   int    `json:"failed"`
	Added    int    `json:"added"`
	Changed  bool   `json:"changed"`
	Duration string `json:"duration"`
}

// RunHandler runs one refresh tick synchronously and reports its outcome.
type RunHandler struct{ C Controller }

func (h RunHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	stats, err := h.C.RunNow(r.Context())
	if err != nil {
		if errors.Is(err, worker.ErrSchedulerStopped) {
			respond.SafeError(w, http.StatusConflict, err)
			return
		}
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	respond.JSON(w, http.StatusOK, tickDTO{
		TickID:   stats.TickID,
		Sources:  stats.Sources,
		Failed:   stats.Failed,
		Added:    stats.Added,
		Changed:  stats.Changed,
		Duration: stats.Duration.String(),
	})
}
