// Package requestid tags every API request with an ID that appears in the
// response header and in each log line written while serving it.
package requestid

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

const (
	// Header carries the request ID in both directions.
	Header = "X-Request-ID"
	// LogKey is the attribute name used in log lines.
	LogKey = "request_id"

	maxLen = 64
)

type ctxKey struct{}

// FromContext returns the request ID stored in ctx, or "".
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// NewContext returns a copy of ctx carrying id.
func NewContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// Attr returns the log attribute for the request ID in ctx.
func Attr(ctx context.Context) slog.Attr {
	return slog.String(LogKey, FromContext(ctx))
}

// Valid reports whether a client-supplied ID may be reused. IDs are echoed
// into logs, so only short tokens of letters, digits and "-_.:" pass.
func Valid(id string) bool {
	if id == "" || len(id) > maxLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.', c == ':':
		default:
			return false
		}
	}
	return true
}

// Middleware reuses a valid incoming X-Request-ID or assigns a new UUID,
// then exposes it on the response and in the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if !Valid(id) {
			id = uuid.NewString()
		}
		w.Header().Set(Header, id)
		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), id)))
	})
}
