// Package registry owns every view and source of the reader and exposes the
// read accessors and commands over them.
//
// Reads never block: views and the source table are immutable values swapped
// atomically, and each source swaps its own entry collection. Every mutation
// (commands, the apply phase of a refresh tick, load) is serialized by one
// mutex. Network fetches always happen outside that mutex.
package registry

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"feedreader/internal/domain/entity"
	"feedreader/internal/observability/metrics"
	"feedreader/internal/repository"
	"feedreader/internal/usecase/reconcile"

	"github.com/samber/lo"
)

// Config holds the periods and limits the registry is created with.
type Config struct {
	UpdatePeriod     time.Duration
	AutosavePeriod   time.Duration
	FetchParallelism int
}

// DefaultConfig returns a Config with the reader's default periods.
func DefaultConfig() Config {
	return Config{
		UpdatePeriod:     15 * time.Minute,
		AutosavePeriod:   5 * time.Minute,
		FetchParallelism: 4,
	}
}

// Registry is the single owner of views, sources and the last-change time.
type Registry struct {
	mu      sync.Mutex
	storeMu sync.Mutex

	views   atomic.Pointer[[]entity.View]
	sources atomic.Pointer[map[string]*entity.Source]
	changed atomic.Int64

	sync   *reconcile.Synchronizer
	store  repository.StateStore
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// New creates an empty registry. store may be nil, in which case Save and
// Load return ErrNoStore.
func New(parser reconcile.DocumentParser, store repository.StateStore, cfg Config) *Registry {
	def := DefaultConfig()
	if cfg.UpdatePeriod <= 0 {
		cfg.UpdatePeriod = def.UpdatePeriod
	}
	if cfg.AutosavePeriod <= 0 {
		cfg.AutosavePeriod = def.AutosavePeriod
	}
	if cfg.FetchParallelism <= 0 {
		cfg.FetchParallelism = def.FetchParallelism
	}

	r := &Registry{
		sync:   reconcile.NewSynchronizer(parser),
		store:  store,
		cfg:    cfg,
		logger: slog.Default(),
		now:    time.Now,
	}
	r.views.Store(&[]entity.View{})
	r.sources.Store(&map[string]*entity.Source{})
	return r
}

// WithLogger sets the registry logger.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// UpdatePeriod returns the refresh tick period.
func (r *Registry) UpdatePeriod() time.Duration { return r.cfg.UpdatePeriod }

// AutosavePeriod returns the autosave period.
func (r *Registry) AutosavePeriod() time.Duration { return r.cfg.AutosavePeriod }

// LastChanged returns the time of the last mutation, or the last-saved time
// of the store after a load. Zero means nothing happened yet.
func (r *Registry) LastChanged() time.Time {
	n := r.changed.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

// Views returns every view in creation order.
func (r *Registry) Views() []entity.ViewSnapshot {
	views := *r.views.Load()
	out := make([]entity.ViewSnapshot, 0, len(views))
	for _, v := range views {
		out = append(out, r.snapshotView(v))
	}
	return out
}

// View returns the view called name.
func (r *Registry) View(name string) (entity.ViewSnapshot, error) {
	v, ok := r.lookupView(name)
	if !ok {
		return entity.ViewSnapshot{}, fmt.Errorf("view %q: %w", name, entity.ErrViewNotFound)
	}
	return r.snapshotView(v), nil
}

// Entries returns the entries of every member source of the view, in member
// order, sorted by the view's sort rule. The same state always yields the
// same sequence.
func (r *Registry) Entries(name string) ([]entity.Entry, error) {
	v, ok := r.lookupView(name)
	if !ok {
		return nil, fmt.Errorf("view %q: %w", name, entity.ErrViewNotFound)
	}
	return entity.SortEntries(r.collect(v), v.Sort), nil
}

// Source returns a snapshot of the source at url.
func (r *Registry) Source(url string) (entity.SourceSnapshot, error) {
	src, ok := (*r.sources.Load())[entity.NormalizeURL(url)]
	if !ok {
		return entity.SourceSnapshot{}, fmt.Errorf("%s: %w", url, entity.ErrSourceNotFound)
	}
	return src.Snapshot(), nil
}

// Sources returns a snapshot of every source, ordered by first appearance
// across the views.
func (r *Registry) Sources() []entity.SourceSnapshot {
	table := *r.sources.Load()
	urls := memberURLs(*r.views.Load())
	out := make([]entity.SourceSnapshot, 0, len(urls))
	for _, u := range urls {
		if src, ok := table[u]; ok {
			out = append(out, src.Snapshot())
		}
	}
	return out
}

func (r *Registry) lookupView(name string) (entity.View, bool) {
	name = strings.TrimSpace(name)
	views := *r.views.Load()
	i := slices.IndexFunc(views, func(v entity.View) bool { return v.Name == name })
	if i < 0 {
		return entity.View{}, false
	}
	return views[i], true
}

func (r *Registry) collect(v entity.View) []entity.Entry {
	table := *r.sources.Load()
	var entries []entity.Entry
	for _, u := range v.Sources {
		if src, ok := table[u]; ok {
			entries = append(entries, src.Entries()...)
		}
	}
	return entries
}

func (r *Registry) snapshotView(v entity.View) entity.ViewSnapshot {
	snap := entity.ViewSnapshot{View: v.Clone()}
	for _, e := range r.collect(v) {
		snap.Entries++
		if !e.Visited {
			snap.Unvisited++
		}
		if e.Starred {
			snap.Starred++
		}
	}
	return snap
}

// memberURLs returns the distinct member URLs of views in first-seen order.
func memberURLs(views []entity.View) []string {
	return lo.Uniq(lo.FlatMap(views, func(v entity.View, _ int) []string { return v.Sources }))
}

// The helpers below must be called with r.mu held.

func (r *Registry) touch() {
	t := r.now().UnixNano()
	if prev := r.changed.Load(); t <= prev {
		t = prev + 1
	}
	r.changed.Store(t)
}

func (r *Registry) setViews(views []entity.View) {
	r.views.Store(&views)
	r.pruneSources(views)
}

// pruneSources drops sources no view references any more.
func (r *Registry) pruneSources(views []entity.View) {
	table := *r.sources.Load()
	referenced := lo.Associate(memberURLs(views), func(u string) (string, struct{}) { return u, struct{}{} })
	if len(referenced) == len(table) {
		metrics.UpdateRegistrySize(len(views), len(table))
		return
	}
	next := maps.Clone(table)
	maps.DeleteFunc(next, func(u string, _ *entity.Source) bool {
		_, ok := referenced[u]
		return !ok
	})
	r.sources.Store(&next)
	metrics.UpdateRegistrySize(len(views), len(next))
}

func (r *Registry) putSource(src *entity.Source) {
	next := maps.Clone(*r.sources.Load())
	next[src.URL()] = src
	r.sources.Store(&next)
}

// updateView applies fn to a copy of the view called name and publishes it.
func (r *Registry) updateView(name string, fn func(v *entity.View) error) error {
	name = strings.TrimSpace(name)
	views := *r.views.Load()
	i := slices.IndexFunc(views, func(v entity.View) bool { return v.Name == name })
	if i < 0 {
		return fmt.Errorf("view %q: %w", name, entity.ErrViewNotFound)
	}
	v := views[i].Clone()
	if err := fn(&v); err != nil {
		return err
	}
	next := slices.Clone(views)
	next[i] = v
	r.setViews(next)
	return nil
}
