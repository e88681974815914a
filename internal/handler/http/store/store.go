// Package store serves the HTTP endpoints that save and load the registry state.
package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"feedreader/internal/domain/entity"
	"feedreader/internal/handler/http/respond"
	"feedreader/internal/usecase/registry"
)

// Service is the part of the registry the store endpoints use.
type Service interface {
	Save(ctx context.Context) error
	SaveTo(ctx context.Context, path string) error
	Load(ctx context.Context, path string) error
}

// ErrPathForbidden is returned for a store location the API may not use.
var ErrPathForbidden = errors.New("store path not allowed")

// Paths confines store locations named by API clients to one directory.
// The zero value refuses every client-supplied location, which is what a
// postgres store uses: a DSN is never taken from a request.
type Paths struct {
	Dir string
}

// Resolve maps a client-supplied file name to a path inside Dir. Absolute
// names and names that climb out of Dir are refused.
func (p Paths) Resolve(name string) (string, error) {
	if p.Dir == "" {
		return "", fmt.Errorf("%w: switching the store location is disabled", ErrPathForbidden)
	}
	if !filepath.IsLocal(name) {
		return "", fmt.Errorf("%w: %q must be a file name inside the store directory", ErrPathForbidden, name)
	}
	return filepath.Join(p.Dir, name), nil
}

// Register registers the store handlers with the given mux.
func Register(mux *http.ServeMux, svc Service, paths Paths) {
	mux.Handle("POST /store/save", SaveHandler{Svc: svc, Paths: paths})
	mux.Handle("POST /store/load", LoadHandler{Svc: svc, Paths: paths})
}

// SaveHandler saves to the current store location, or to path when the
// request names one. A path given here becomes the new store location.
type SaveHandler struct {
	Svc   Service
	Paths Paths
}

func (h SaveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if r.ContentLength != 0 && !respond.DecodeJSON(w, r, &req) {
		return
	}

	if req.Path == "" {
		if err := h.Svc.Save(r.Context()); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	path, err := h.Paths.Resolve(req.Path)
	if err == nil {
		err = h.Svc.SaveTo(r.Context(), path)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LoadHandler replaces the registry contents with the state stored at path.
type LoadHandler struct {
	Svc   Service
	Paths Paths
}

func (h LoadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if !respond.DecodeJSON(w, r, &req) {
		return
	}
	if req.Path == "" {
		respond.DomainError(w, &entity.ValidationError{Field: "path", Message: "path is required"})
		return
	}
	path, err := h.Paths.Resolve(req.Path)
	if err == nil {
		err = h.Svc.Load(r.Context(), path)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registry.ErrNoStore):
		respond.JSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	case errors.Is(err, ErrPathForbidden):
		respond.JSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
		return
	}
	respond.DomainError(w, err)
}
