// Package http assembles the JSON API: it registers the view, entry, source,
// store and scheduler handlers on one ServeMux and wraps it with the shared
// middleware chain.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"feedreader/internal/handler/http/entry"
	"feedreader/internal/handler/http/requestid"
	"feedreader/internal/handler/http/scheduler"
	"feedreader/internal/handler/http/source"
	"feedreader/internal/handler/http/store"
	"feedreader/internal/handler/http/view"
	"feedreader/internal/observability/tracing"
)

// Registry is everything the API needs from the feed registry.
type Registry interface {
	view.Service
	entry.Service
	source.Service
	store.Service
}

// Options tunes the middleware chain.
type Options struct {
	// MaxBodyBytes caps request bodies. Default: 1 MiB.
	MaxBodyBytes int64
	// RequestTimeout bounds each request's context. Default: 2 minutes.
	RequestTimeout time.Duration
	// StoreDir is the directory save/load requests may name files in.
	// Empty refuses every client-supplied store location.
	StoreDir string
}

func (o Options) withDefaults() Options {
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = 1 << 20
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 2 * time.Minute
	}
	return o
}

// NewRouter returns the API handler. Middleware order, outermost first:
// request ID, tracing, logging, panic recovery, body limit, deadline, metrics.
func NewRouter(logger *slog.Logger, reg Registry, sched scheduler.Controller, opts Options) http.Handler {
	opts = opts.withDefaults()

	mux := http.NewServeMux()
	view.Register(mux, reg)
	entry.Register(mux, reg)
	source.Register(mux, reg)
	store.Register(mux, reg, store.Paths{Dir: opts.StoreDir})
	scheduler.Register(mux, sched)

	var h http.Handler = Metrics(mux)
	h = Deadline(opts.RequestTimeout)(h)
	h = LimitRequestBody(opts.MaxBodyBytes)(h)
	h = Recover(logger)(h)
	h = Logging(logger)(h)
	h = tracing.Middleware(h)
	h = requestid.Middleware(h)
	return h
}
