// Package view serves the HTTP endpoints for views, their members and their
// aggregated entries.
package view

import (
	"context"

	"feedreader/internal/domain/entity"
)

// Service is the part of the registry the view endpoints use.
type Service interface {
	Views() []entity.ViewSnapshot
	View(name string) (entity.ViewSnapshot, error)
	Entries(name string) ([]entity.Entry, error)
	AddView(name string) error
	RemoveView(name string) error
	AddSource(ctx context.Context, url, viewName string) error
	RemoveSource(url, viewName string) error
	SetSortRule(viewName string, rule entity.SortRule) error
	SetDisplay(viewName string, display bool) error
}
