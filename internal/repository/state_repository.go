package repository

import (
	"context"

	"feedreader/internal/domain/entity"
)

// StateStore persists the mutable reader state: views, their members and
// per-entry flags. Entry text is never stored.
//
// Load on a missing or empty store returns an empty State and no error.
// Save is a no-op when the stored last-saved time is not before
// state.LastChanged. Both operations are atomic: a reader never observes a
// partially written state. Failures wrap entity.ErrPersistenceFailure.
type StateStore interface {
	Load(ctx context.Context) (*entity.State, error)
	Save(ctx context.Context, state *entity.State) error

	// SetPath points the store at another location (file path or DSN).
	// The previous location is closed.
	SetPath(path string) error
	Path() string
	Close() error
}
