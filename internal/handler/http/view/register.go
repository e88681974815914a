package view

import "net/http"

// Register registers all view-related HTTP handlers with the given mux.
func Register(mux *http.ServeMux, svc Service) {
	mux.Handle("GET /views", ListHandler{svc})
	mux.Handle("POST /views", CreateHandler{svc})
	mux.Handle("DELETE /views/{name}", DeleteHandler{svc})
	mux.Handle("GET /views/{name}/entries", EntriesHandler{svc})
	mux.Handle("PUT /views/{name}/sort", SortHandler{svc})
	mux.Handle("PUT /views/{name}/display", DisplayHandler{svc})
	mux.Handle("POST /views/{name}/sources", AddSourceHandler{svc})
	mux.Handle("DELETE /views/{name}/sources", RemoveSourceHandler{svc})
}
