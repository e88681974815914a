package http

import (
	"context"
	"net/http"
	"time"
)

// Deadline returns middleware that bounds the request context by d. Handlers
// that fetch documents or run a refresh tick observe the cancellation and
// return early; the response itself is written by the handler.
func Deadline(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
