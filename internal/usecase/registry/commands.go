package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"feedreader/internal/domain/entity"
	"feedreader/internal/observability/metrics"
)

// AddView creates an empty, displayed view with the default sort rule.
func (r *Registry) AddView(name string) error {
	name = strings.TrimSpace(name)
	if err := entity.ValidateViewName(name); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.lookupView(name); ok {
		return fmt.Errorf("view %q: %w", name, entity.ErrDuplicateView)
	}
	views := slices.Clone(*r.views.Load())
	r.setViews(append(views, entity.NewView(name)))
	r.touch()

	r.logger.Info("view added", slog.String("view", name))
	return nil
}

// RemoveView deletes the view. Sources no other view references are dropped.
func (r *Registry) RemoveView(name string) error {
	name = strings.TrimSpace(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	views := *r.views.Load()
	i := slices.IndexFunc(views, func(v entity.View) bool { return v.Name == name })
	if i < 0 {
		return fmt.Errorf("view %q: %w", name, entity.ErrViewNotFound)
	}
	r.setViews(slices.Delete(slices.Clone(views), i, i+1))
	r.touch()

	r.logger.Info("view removed", slog.String("view", name))
	return nil
}

// AddSource adds the document at url to the view. A source not yet known to
// the registry is fetched first; if that fails the DocumentUnavailable error
// is returned and nothing is added. A source already shared with another
// view is reused as is.
func (r *Registry) AddSource(ctx context.Context, url, viewName string) error {
	url = entity.NormalizeURL(url)
	if err := entity.ValidateURL(url); err != nil {
		return err
	}

	src, err := r.checkAddSource(url, viewName)
	if err != nil {
		return err
	}

	if src == nil {
		doc, err := r.sync.Fetch(ctx, url)
		if err != nil {
			metrics.RecordSourceFailure(url)
			return err
		}
		src = entity.NewSource(url)
		res := r.sync.Apply(src, doc)
		metrics.RecordEntriesAdded(res.Added)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// A concurrent command may have added the same source meanwhile.
	if existing, ok := (*r.sources.Load())[url]; ok {
		src = existing
	} else {
		r.putSource(src)
	}
	err = r.updateView(viewName, func(v *entity.View) error { return v.Add(url) })
	if err != nil {
		r.pruneSources(*r.views.Load())
		return err
	}
	r.touch()

	r.logger.Info("source added",
		slog.String("view", strings.TrimSpace(viewName)),
		slog.String("url", url),
		slog.Int("entries", src.Len()))
	return nil
}

// checkAddSource validates the preconditions of AddSource and returns the
// existing source for url, if any.
func (r *Registry) checkAddSource(url, viewName string) (*entity.Source, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.lookupView(viewName)
	if !ok {
		return nil, fmt.Errorf("view %q: %w", viewName, entity.ErrViewNotFound)
	}
	if v.Has(url) {
		return nil, fmt.Errorf("view %q: %s: %w", v.Name, url, entity.ErrDuplicateSource)
	}
	return (*r.sources.Load())[url], nil
}

// RemoveSource removes url from the view. The source is dropped when no
// other view references it.
func (r *Registry) RemoveSource(url, viewName string) error {
	url = entity.NormalizeURL(url)

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.updateView(viewName, func(v *entity.View) error { return v.Remove(url) }); err != nil {
		return err
	}
	r.touch()

	r.logger.Info("source removed",
		slog.String("view", strings.TrimSpace(viewName)),
		slog.String("url", url))
	return nil
}

// SetSortRule changes the sort rule of the view. An unset rule means DATE_DEC.
func (r *Registry) SetSortRule(viewName string, rule entity.SortRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.updateView(viewName, func(v *entity.View) error {
		v.Sort = rule.Normalize()
		return nil
	}); err != nil {
		return err
	}
	r.touch()
	return nil
}

// SetDisplay changes the display flag of the view.
func (r *Registry) SetDisplay(viewName string, display bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.updateView(viewName, func(v *entity.View) error {
		v.Display = display
		return nil
	}); err != nil {
		return err
	}
	r.touch()
	return nil
}

// SetVisited sets the visited flag of entry id. target is either a view name,
// in which case the first member source holding id is used, or a source URL.
func (r *Registry) SetVisited(target, id string, visited bool) error {
	return r.setFlag(target, id, func(f *entity.Flags) { f.Visited = visited })
}

// SetStarred sets the starred flag of entry id. target is resolved as in SetVisited.
func (r *Registry) SetStarred(target, id string, starred bool) error {
	return r.setFlag(target, id, func(f *entity.Flags) { f.Starred = starred })
}

// SetFlags sets whichever of visited and starred is non-nil on entry id in
// one step: either both change or neither does. target is resolved as in
// SetVisited.
func (r *Registry) SetFlags(target, id string, visited, starred *bool) error {
	return r.setFlag(target, id, func(f *entity.Flags) {
		if visited != nil {
			f.Visited = *visited
		}
		if starred != nil {
			f.Starred = *starred
		}
	})
}

func (r *Registry) setFlag(target, id string, fn func(*entity.Flags)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	src, err := r.resolveEntry(target, id)
	if err != nil {
		return err
	}
	if err := src.SetFlags(id, fn); err != nil {
		return fmt.Errorf("%s: entry %q: %w", src.URL(), id, err)
	}
	r.touch()
	return nil
}

func (r *Registry) resolveEntry(target, id string) (*entity.Source, error) {
	table := *r.sources.Load()

	if v, ok := r.lookupView(target); ok {
		for _, u := range v.Sources {
			if src, ok := table[u]; ok {
				if _, found := src.Entry(id); found {
					return src, nil
				}
			}
		}
		return nil, fmt.Errorf("view %q: entry %q: %w", v.Name, id, entity.ErrEntryNotFound)
	}

	src, ok := table[entity.NormalizeURL(target)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", target, entity.ErrSourceNotFound)
	}
	if _, found := src.Entry(id); !found {
		return nil, fmt.Errorf("%s: entry %q: %w", src.URL(), id, entity.ErrEntryNotFound)
	}
	return src, nil
}

// RefreshSource re-fetches one source immediately. A DocumentUnavailable
// error is recorded on the source and returned. The result is dropped when a
// fetch of the same source started later has already been applied.
func (r *Registry) RefreshSource(ctx context.Context, url string) error {
	url = entity.NormalizeURL(url)
	src, ok := (*r.sources.Load())[url]
	if !ok {
		return fmt.Errorf("%s: %w", url, entity.ErrSourceNotFound)
	}

	ticket := src.BeginFetch()
	doc, fetchErr := r.sync.Fetch(ctx, url)

	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := (*r.sources.Load())[url]; !ok || current != src {
		return fmt.Errorf("%s: %w", url, entity.ErrSourceNotFound)
	}
	if !src.Accept(ticket) {
		// a fetch started after this one has already been applied
		return fetchErr
	}
	if fetchErr != nil {
		src.MarkFailed(fetchErr)
		metrics.RecordSourceFailure(url)
		return fetchErr
	}
	res := r.sync.Apply(src, doc)
	metrics.RecordEntriesAdded(res.Added)
	if res.Dirty() {
		r.touch()
	}
	return nil
}

// IsNotFound reports whether err is one of the not-found errors.
func IsNotFound(err error) bool {
	return errors.Is(err, entity.ErrViewNotFound) ||
		errors.Is(err, entity.ErrSourceNotFound) ||
		errors.Is(err, entity.ErrEntryNotFound)
}
