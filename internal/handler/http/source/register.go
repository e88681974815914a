package source

import "net/http"

// Register registers all source-related HTTP handlers with the given mux.
func Register(mux *http.ServeMux, svc Service) {
	mux.Handle("GET /sources", ListHandler{svc})
	mux.Handle("POST /sources/refresh", RefreshHandler{svc})
}
