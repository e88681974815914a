package view

import (
	"net/http"

	"feedreader/internal/domain/entity"
	"feedreader/internal/handler/http/respond"
)

// SortHandler replaces the sort rule of a view. The rule is given as
// "DATE_DEC", "title_asc" and similar.
type SortHandler struct{ Svc Service }

func (h SortHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rule string `json:"rule"`
	}
	if !respond.DecodeJSON(w, r, &req) {
		return
	}
	if req.Rule == "" {
		respond.DomainError(w, &entity.ValidationError{Field: "rule", Message: "sort rule is required"})
		return
	}
	rule, err := entity.ParseSortRule(req.Rule)
	if err != nil {
		respond.DomainError(w, err)
		return
	}
	if err := h.Svc.SetSortRule(r.PathValue("name"), rule); err != nil {
		respond.DomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type DisplayHandler struct{ Svc Service }

func (h DisplayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Display *bool `json:"display"`
	}
	if !respond.DecodeJSON(w, r, &req) {
		return
	}
	if req.Display == nil {
		respond.DomainError(w, &entity.ValidationError{Field: "display", Message: "display is required"})
		return
	}
	if err := h.Svc.SetDisplay(r.PathValue("name"), *req.Display); err != nil {
		respond.DomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
