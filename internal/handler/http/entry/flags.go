// Package entry serves the HTTP endpoint that sets per-entry user flags.
package entry

import (
	"net/http"

	"feedreader/internal/domain/entity"
	"feedreader/internal/handler/http/respond"
)

// Service is the part of the registry the flag endpoint uses.
type Service interface {
	SetFlags(target, id string, visited, starred *bool) error
}

// Register registers the entry flag handler with the given mux.
func Register(mux *http.ServeMux, svc Service) {
	mux.Handle("PUT /entries/flags", FlagsHandler{svc})
}

// FlagsHandler sets the visited and/or starred flag of one entry. Target is
// a view name or a source URL.
type FlagsHandler struct{ Svc Service }

func (h FlagsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Target  string `json:"target"`
		ID      string `json:"id"`
		Visited *bool  `json:"visited"`
		Starred *bool  `json:"starred"`
	}
	if !respond.DecodeJSON(w, r, &req) {
		return
	}
	switch {
	case req.Target == "":
		respond.DomainError(w, &entity.ValidationError{Field: "target", Message: "target is required"})
		return
	case req.ID == "":
		respond.DomainError(w, &entity.ValidationError{Field: "id", Message: "entry id is required"})
		return
	case req.Visited == nil && req.Starred == nil:
		respond.DomainError(w, &entity.ValidationError{Field: "flags", Message: "visited or starred is required"})
		return
	}

	if err := h.Svc.SetFlags(req.Target, req.ID, req.Visited, req.Starred); err != nil {
		respond.DomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
