package view

import (
	"net/http"

	"feedreader/internal/common/pagination"
	"feedreader/internal/domain/entity"
	"feedreader/internal/handler/http/respond"
)

type ListHandler struct{ Svc Service }

func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	views := h.Svc.Views()
	out := make([]DTO, 0, len(views))
	for _, v := range views {
		out = append(out, toDTO(v))
	}
	respond.JSON(w, http.StatusOK, out)
}

// EntriesHandler returns the sorted entries of one view. With a page or
// limit query parameter the entries are wrapped in a paginated response.
type EntriesHandler struct{ Svc Service }

func (h EntriesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Svc.Entries(r.PathValue("name"))
	if err != nil {
		respond.DomainError(w, err)
		return
	}
	if entries == nil {
		entries = []entity.Entry{}
	}
	if !pagination.Requested(r) {
		respond.JSON(w, http.StatusOK, entries)
		return
	}
	params, err := pagination.ParseQueryParams(r, pagination.DefaultConfig())
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	respond.JSON(w, http.StatusOK, pagination.Paginate(entries, params))
}
