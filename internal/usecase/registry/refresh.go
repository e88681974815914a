package registry

import (
	"context"
	"log/slog"
	"time"

	"feedreader/internal/domain/entity"
	"feedreader/internal/observability/metrics"
	"feedreader/internal/observability/tracing"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// TickStats summarizes one refresh tick. Changed reports whether any
// source gained or lost entries, which stamps lastChanged.
type TickStats struct {
	TickID   string
	Sources  int
	Failed   int
	Added    int
	Changed  bool
	Duration time.Duration
}

type fetchResult struct {
	doc *entity.Document
	err error
}

// Refresh reconciles every source once.
//
// Documents are fetched concurrently (at most FetchParallelism at a time)
// without holding the registry lock. Once all fetches are done the lock is
// taken once and every result applied. A failed fetch is recorded on its
// source, logged and counted; it never fails the tick. lastChanged is
// stamped once if any source changed.
//
// If ctx is canceled before the fetches finish nothing is applied and the
// context error is returned.
func (r *Registry) Refresh(ctx context.Context) (TickStats, error) {
	stats := TickStats{TickID: uuid.NewString()}
	start := time.Now()
	logger := r.logger.With(slog.String("tick_id", stats.TickID))

	ctx, span := tracing.GetTracer().Start(ctx, "registry.Refresh")
	defer span.End()

	table := *r.sources.Load()
	urls := memberURLs(*r.views.Load())
	stats.Sources = len(urls)
	span.SetAttributes(attribute.String("tick.id", stats.TickID), attribute.Int("tick.sources", len(urls)))

	results := make([]fetchResult, len(urls))
	tickets := make([]uint64, len(urls))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(r.cfg.FetchParallelism)
	for i, u := range urls {
		src, ok := table[u]
		if !ok {
			continue
		}
		tickets[i] = src.BeginFetch()
		eg.Go(func() error {
			doc, err := r.sync.Fetch(egCtx, u)
			results[i] = fetchResult{doc: doc, err: err}
			return nil
		})
	}
	_ = eg.Wait()

	if err := ctx.Err(); err != nil {
		stats.Duration = time.Since(start)
		metrics.RecordRefreshTick("canceled", stats.Duration)
		tracing.RecordError(span, err)
		logger.Warn("refresh tick canceled", slog.Any("error", err))
		return stats, err
	}

	r.mu.Lock()
	current := *r.sources.Load()
	for i, u := range urls {
		src, ok := current[u]
		if !ok || src != table[u] {
			// removed while fetching
			continue
		}
		if !src.Accept(tickets[i]) {
			// a later RefreshSource already applied a newer document
			logger.Debug("stale fetch discarded", slog.String("url", u))
			continue
		}
		res := results[i]
		if res.err != nil {
			stats.Failed++
			src.MarkFailed(res.err)
			metrics.RecordSourceFailure(u)
			logger.Warn("source refresh failed",
				slog.String("url", u),
				slog.Any("error", res.err))
			continue
		}
		if res.doc == nil {
			continue
		}
		applied := r.sync.Apply(src, res.doc)
		stats.Added += applied.Added
		stats.Changed = stats.Changed || applied.Dirty()
	}
	if stats.Changed {
		r.touch()
	}
	r.mu.Unlock()

	stats.Duration = time.Since(start)
	result := "unchanged"
	if stats.Changed {
		result = "changed"
	}
	metrics.RecordEntriesAdded(stats.Added)
	metrics.RecordRefreshTick(result, stats.Duration)
	span.SetAttributes(attribute.Int("tick.failed", stats.Failed), attribute.Bool("tick.changed", stats.Changed))

	logger.Info("refresh tick completed",
		slog.Int("sources", stats.Sources),
		slog.Int("failed", stats.Failed),
		slog.Int("added", stats.Added),
		slog.Bool("changed", stats.Changed),
		slog.Duration("duration", stats.Duration))
	return stats, nil
}
