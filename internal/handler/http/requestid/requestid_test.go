package requestid

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, incoming string) (ctxID, headerID string) {
	t.Helper()
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/views", nil)
	if incoming != "" {
		req.Header.Set(Header, incoming)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return ctxID, rec.Header().Get(Header)
}

func TestFromContext(t *testing.T) {
	assert.Equal(t, "", FromContext(context.Background()))
	assert.Equal(t, "abc", FromContext(NewContext(context.Background(), "abc")))
}

func TestAttr(t *testing.T) {
	attr := Attr(NewContext(context.Background(), "req-7"))
	assert.Equal(t, LogKey, attr.Key)
	assert.Equal(t, slog.KindString, attr.Value.Kind())
	assert.Equal(t, "req-7", attr.Value.String())
}

func TestValid(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"req-42", true},
		{"0f8fad5b-d9cb-469f-a165-70867728950e", true},
		{"tick.1:a_b", true},
		{"", false},
		{strings.Repeat("a", 65), false},
		{"has space", false},
		{"line\nbreak", false},
		{"quote\"", false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, Valid(tt.id))
		})
	}
}

func TestMiddleware_ReusesValidID(t *testing.T) {
	ctxID, headerID := serve(t, "client-id-1")

	assert.Equal(t, "client-id-1", ctxID)
	assert.Equal(t, "client-id-1", headerID)
}

func TestMiddleware_GeneratesID(t *testing.T) {
	for _, incoming := range []string{"", "bad id\r\nX-Injected: 1"} {
		ctxID, headerID := serve(t, incoming)

		require.NotEmpty(t, ctxID)
		_, err := uuid.Parse(ctxID)
		assert.NoError(t, err, "generated ID should be a UUID")
		assert.Equal(t, ctxID, headerID)
	}
}

func TestMiddleware_UniquePerRequest(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 10; i++ {
		id, _ := serve(t, "")
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, 10)
}
