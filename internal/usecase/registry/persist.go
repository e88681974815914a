package registry

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"feedreader/internal/domain/entity"
	"feedreader/internal/observability/metrics"
	"feedreader/internal/observability/tracing"

	"github.com/samber/lo"
)

// Save writes views, members and set flags to the store. The store skips the
// write when it already holds this or a later state.
func (r *Registry) Save(ctx context.Context) error {
	if r.store == nil {
		return ErrNoStore
	}
	r.storeMu.Lock()
	defer r.storeMu.Unlock()
	return r.save(ctx)
}

// SaveTo points the store at path and saves there. On failure the store is
// pointed back at its previous location.
func (r *Registry) SaveTo(ctx context.Context, path string) error {
	if r.store == nil {
		return ErrNoStore
	}
	r.storeMu.Lock()
	defer r.storeMu.Unlock()

	prev := r.store.Path()
	if err := r.store.SetPath(path); err != nil {
		return err
	}
	if err := r.save(ctx); err != nil {
		r.restorePath(prev)
		return err
	}
	return nil
}

func (r *Registry) save(ctx context.Context) error {
	ctx, span := tracing.GetTracer().Start(ctx, "registry.Save")
	defer span.End()

	start := time.Now()
	state := r.State()
	err := r.store.Save(ctx, state)
	metrics.RecordStoreOperation("save", time.Since(start), err)
	if err != nil {
		tracing.RecordError(span, err)
		return fmt.Errorf("save state: %w", err)
	}
	r.logger.Debug("state saved",
		slog.String("path", r.store.Path()),
		slog.Int("views", len(state.Views)),
		slog.Time("last_changed", state.LastChanged))
	return nil
}

// State builds the persisted form of the registry. Flags are listed once per
// view for every member source, ordered by source then entry id.
func (r *Registry) State() *entity.State {
	r.mu.Lock()
	defer r.mu.Unlock()

	table := *r.sources.Load()
	views := *r.views.Load()
	state := &entity.State{
		Views:       make([]entity.ViewState, 0, len(views)),
		LastChanged: r.LastChanged(),
	}
	for _, v := range views {
		vs := entity.ViewState{
			Name:    v.Name,
			Sort:    v.Sort,
			Display: v.Display,
			Sources: slices.Clone(v.Sources),
		}
		for _, u := range v.Sources {
			src, ok := table[u]
			if !ok {
				continue
			}
			flags := src.FlagSet()
			for _, id := range slices.Sorted(maps.Keys(flags)) {
				f := flags[id]
				vs.Flags = append(vs.Flags, entity.EntryFlags{
					SourceURL: u,
					EntryID:   id,
					Visited:   f.Visited,
					Starred:   f.Starred,
				})
			}
		}
		state.Views = append(state.Views, vs)
	}
	return state
}

// Load replaces the registry contents with the state read from path, or from
// the current store location when path is empty. Sources start empty and
// carry their stored flags until the next refresh fetches them. On failure
// the registry and the store location are left unchanged.
func (r *Registry) Load(ctx context.Context, path string) error {
	if r.store == nil {
		return ErrNoStore
	}
	r.storeMu.Lock()
	defer r.storeMu.Unlock()

	ctx, span := tracing.GetTracer().Start(ctx, "registry.Load")
	defer span.End()

	prev := r.store.Path()
	if path != "" && path != prev {
		if err := r.store.SetPath(path); err != nil {
			tracing.RecordError(span, err)
			return err
		}
	}

	start := time.Now()
	state, err := r.store.Load(ctx)
	metrics.RecordStoreOperation("load", time.Since(start), err)
	if err != nil {
		if path != "" && path != prev {
			r.restorePath(prev)
		}
		tracing.RecordError(span, err)
		return fmt.Errorf("load state: %w", err)
	}

	views, sources := buildFromState(state)

	r.mu.Lock()
	r.sources.Store(&sources)
	r.views.Store(&views)
	r.changed.Store(0)
	if !state.LastChanged.IsZero() {
		r.changed.Store(state.LastChanged.UnixNano())
	}
	metrics.UpdateRegistrySize(len(views), len(sources))
	r.mu.Unlock()

	r.logger.Info("state loaded",
		slog.String("path", r.store.Path()),
		slog.Int("views", len(views)),
		slog.Int("sources", len(sources)))
	return nil
}

func (r *Registry) restorePath(prev string) {
	if err := r.store.SetPath(prev); err != nil {
		r.logger.Error("failed to restore store path",
			slog.String("path", prev),
			slog.Any("error", err))
	}
}

// buildFromState turns a stored state into views and empty sources. Views
// with a blank or repeated name are skipped, repeated members are collapsed,
// and flags stored under several views for the same source are merged.
func buildFromState(state *entity.State) ([]entity.View, map[string]*entity.Source) {
	views := make([]entity.View, 0, len(state.Views))
	flags := make(map[string]map[string]entity.Flags)
	seen := make(map[string]struct{}, len(state.Views))

	for _, vs := range state.Views {
		name := strings.TrimSpace(vs.Name)
		if entity.ValidateViewName(name) != nil {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		v := entity.NewView(name)
		v.Sort = vs.Sort.Normalize()
		v.Display = vs.Display
		v.Sources = lo.Uniq(lo.FilterMap(vs.Sources, func(u string, _ int) (string, bool) {
			u = entity.NormalizeURL(u)
			return u, u != ""
		}))
		views = append(views, v)

		for _, ef := range vs.Flags {
			u := entity.NormalizeURL(ef.SourceURL)
			if !v.Has(u) || ef.EntryID == "" {
				continue
			}
			m, ok := flags[u]
			if !ok {
				m = make(map[string]entity.Flags)
				flags[u] = m
			}
			f := m[ef.EntryID]
			m[ef.EntryID] = entity.Flags{
				Visited: f.Visited || ef.Visited,
				Starred: f.Starred || ef.Starred,
			}
		}
	}

	sources := make(map[string]*entity.Source)
	for _, u := range memberURLs(views) {
		src := entity.NewSource(u)
		src.Retain(flags[u])
		sources[u] = src
	}
	return views, sources
}
