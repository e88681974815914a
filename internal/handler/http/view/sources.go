package view

import (
	"net/http"

	"feedreader/internal/domain/entity"
	"feedreader/internal/handler/http/respond"
)

// AddSourceHandler adds a source to a view. A source that is new to the
// registry is fetched before the call returns.
type AddSourceHandler struct{ Svc Service }

func (h AddSourceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if !respond.DecodeJSON(w, r, &req) {
		return
	}
	name := r.PathValue("name")
	if err := h.Svc.AddSource(r.Context(), req.URL, name); err != nil {
		respond.DomainError(w, err)
		return
	}
	snap, err := h.Svc.View(name)
	if err != nil {
		respond.DomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, toDTO(snap))
}

type RemoveSourceHandler struct{ Svc Service }

func (h RemoveSourceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		respond.DomainError(w, &entity.ValidationError{Field: "url", Message: "url query parameter is required"})
		return
	}
	if err := h.Svc.RemoveSource(url, r.PathValue("name")); err != nil {
		respond.DomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
