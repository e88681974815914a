// Package source serves the HTTP endpoints for the registry's sources.
package source

import (
	"context"

	"feedreader/internal/domain/entity"
)

// Service is the part of the registry the source endpoints use.
type Service interface {
	Sources() []entity.SourceSnapshot
	RefreshSource(ctx context.Context, url string) error
}
