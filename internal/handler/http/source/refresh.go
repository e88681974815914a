package source

import (
	"net/http"

	"feedreader/internal/domain/entity"
	"feedreader/internal/handler/http/respond"
)

// RefreshHandler re-fetches one source outside the update schedule.
type RefreshHandler struct{ Svc Service }

func (h RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if !respond.DecodeJSON(w, r, &req) {
		return
	}
	if req.URL == "" {
		respond.DomainError(w, &entity.ValidationError{Field: "url", Message: "url is required"})
		return
	}
	if err := h.Svc.RefreshSource(r.Context(), req.URL); err != nil {
		respond.DomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
