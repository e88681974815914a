package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"feedreader/internal/domain/entity"
)

func TestJSON(t *testing.T) {
	tests := []struct {
		name           string
		code           int
		data           any
		expectedCode   int
		expectedBody   string
		expectedHeader string
	}{
		{
			name:           "success with map",
			code:           http.StatusOK,
			data:           map[string]string{"message": "success"},
			expectedCode:   http.StatusOK,
			expectedBody:   `{"message":"success"}`,
			expectedHeader: "application/json",
		},
		{
			name:           "success with struct",
			code:           http.StatusCreated,
			data:           struct{ ID int }{ID: 123},
			expectedCode:   http.StatusCreated,
			expectedBody:   `{"ID":123}`,
			expectedHeader: "application/json",
		},
		{
			name:           "success with nil",
			code:           http.StatusNoContent,
			data:           nil,
			expectedCode:   http.StatusNoContent,
			expectedBody:   "",
			expectedHeader: "application/json",
		},
		{
			name:           "error status",
			code:           http.StatusBadRequest,
			data:           map[string]string{"error": "bad request"},
			expectedCode:   http.StatusBadRequest,
			expectedBody:   `{"error":"bad request"}`,
			expectedHeader: "application/json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			JSON(w, tt.code, tt.data)

			if w.Code != tt.expectedCode {
				t.Errorf("Code = %v, want %v", w.Code, tt.expectedCode)
			}

			if ct := w.Header().Get("Content-Type"); ct != tt.expectedHeader {
				t.Errorf("Content-Type = %v, want %v", ct, tt.expectedHeader)
			}

			body := strings.TrimSpace(w.Body.String())
			if tt.expectedBody != "" && body != tt.expectedBody {
				t.Errorf("Body = %v, want %v", body, tt.expectedBody)
			}
		})
	}
}

func TestJSON_EncodingError(t *testing.T) {
	// Create a value that cannot be JSON-encoded
	invalidData := make(chan int)

	w := httptest.NewRecorder()
	JSON(w, http.StatusOK, invalidData)

	// Should still set headers and status code
	if w.Code != http.StatusOK {
		t.Errorf("Code = %v, want %v", w.Code, http.StatusOK)
	}

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %v, want %v", ct, "application/json")
	}
}

func TestError(t *testing.T) {
	tests := []struct {
		name         string
		code         int
		err          error
		expectedCode int
		expectedBody map[string]string
	}{
		{
			name:         "not found error",
			code:         http.StatusNotFound,
			err:          errors.New("resource not found"),
			expectedCode: http.StatusNotFound,
			expectedBody: map[string]string{"error": "resource not found"},
		},
		{
			name:         "bad request error",
			code:         http.StatusBadRequest,
			err:          errors.New("invalid input"),
			expectedCode: http.StatusBadRequest,
			expectedBody: map[string]string{"error": "invalid input"},
		},
		{
			name:         "internal error",
			code:         http.StatusInternalServerError,
			err:          errors.New("database connection failed"),
			expectedCode: http.StatusInternalServerError,
			expectedBody: map[string]string{"error": "database connection failed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			Error(w, tt.code, tt.err)

			if w.Code != tt.expectedCode {
				t.Errorf("Code = %v, want %v", w.Code, tt.expectedCode)
			}

			var body map[string]string
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}

			if body["error"] != tt.expectedBody["error"] {
				t.Errorf("Error message = %v, want %v", body["error"], tt.expectedBody["error"])
			}
		})
	}
}

func TestSafeError(t *testing.T) {
	tests := []struct {
		name         string
		code         int
		err          error
		expectedCode int
		expectedMsg  string
	}{
		{
			name:         "validation error",
			code:         http.StatusBadRequest,
			err:          &entity.ValidationError{Field: "name", Message: "view name is required"},
			expectedCode: http.StatusBadRequest,
			expectedMsg:  "validation error on field 'name': view name is required",
		},
		{
			name:         "not found error",
			code:         http.StatusNotFound,
			err:          fmt.Errorf("view %q: %w", "news", entity.ErrViewNotFound),
			expectedCode: http.StatusNotFound,
			expectedMsg:  `view "news": view not found`,
		},
		{
			name:         "already exists error",
			code:         http.StatusConflict,
			err:          entity.ErrDuplicateView,
			expectedCode: http.StatusConflict,
			expectedMsg:  "view already exists",
		},
		{
			name:         "unknown client error is hidden",
			code:         http.StatusBadRequest,
			err:          errors.New("unexpected EOF"),
			expectedCode: http.StatusBadRequest,
			expectedMsg:  "bad request",
		},
		{
			name:         "server error is always hidden",
			code:         http.StatusInternalServerError,
			err:          errors.New("field not found in postgres://u:pw@db/x"),
			expectedCode: http.StatusInternalServerError,
			expectedMsg:  "internal server error",
		},
		{
			name:         "bad gateway names the document",
			code:         http.StatusBadGateway,
			err:          entity.NewDocumentUnavailable("http://x/feed", errors.New("dial tcp: refused")),
			expectedCode: http.StatusBadGateway,
			expectedMsg:  "document unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			SafeError(w, tt.code, tt.err)

			if w.Code != tt.expectedCode {
				t.Errorf("Code = %v, want %v", w.Code, tt.expectedCode)
			}

			var body map[string]string
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if body["error"] != tt.expectedMsg {
				t.Errorf("Error message = %q, want %q", body["error"], tt.expectedMsg)
			}
		})
	}
}

func TestSafeError_Nil(t *testing.T) {
	w := httptest.NewRecorder()
	SafeError(w, http.StatusBadRequest, nil)

	if w.Body.Len() != 0 {
		t.Errorf("Body = %q, want empty", w.Body.String())
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"view not found", entity.ErrViewNotFound, http.StatusNotFound},
		{"source not found", fmt.Errorf("remove: %w", entity.ErrSourceNotFound), http.StatusNotFound},
		{"entry not found", entity.ErrEntryNotFound, http.StatusNotFound},
		{"duplicate view", entity.ErrDuplicateView, http.StatusConflict},
		{"duplicate source", entity.ErrDuplicateSource, http.StatusConflict},
		{"document unavailable", entity.NewDocumentUnavailable("http://x", nil), http.StatusBadGateway},
		{"validation", &entity.ValidationError{Field: "url", Message: "URL is required"}, http.StatusBadRequest},
		{"persistence", entity.NewPersistenceError("save", errors.New("disk full")), http.StatusInternalServerError},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusFor(tt.err); got != tt.want {
				t.Errorf("StatusFor() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDomainError(t *testing.T) {
	w := httptest.NewRecorder()
	DomainError(w, fmt.Errorf("add source: %w", entity.ErrDuplicateSource))

	if w.Code != http.StatusConflict {
		t.Errorf("Code = %v, want %v", w.Code, http.StatusConflict)
	}
	if !strings.Contains(w.Body.String(), "source already exists") {
		t.Errorf("Body = %q, want duplicate message", w.Body.String())
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name         string
		body         string
		limit        int64
		wantOK       bool
		expectedCode int
		expectedMsg  string
	}{
		{
			name:   "valid body",
			body:   `{"name":"news"}`,
			wantOK: true,
		},
		{
			name:         "empty body",
			body:         "",
			expectedCode: http.StatusBadRequest,
			expectedMsg:  "request body is required",
		},
		{
			name:         "malformed body",
			body:         `{"name":`,
			expectedCode: http.StatusBadRequest,
			expectedMsg:  "invalid request body: unexpected EOF",
		},
		{
			name:         "unknown field",
			body:         `{"nmae":"news"}`,
			expectedCode: http.StatusBadRequest,
			expectedMsg:  `invalid request body: json: unknown field "nmae"`,
		},
		{
			name:         "oversized body",
			body:         `{"name":"` + strings.Repeat("a", 64) + `"}`,
			limit:        16,
			expectedCode: http.StatusRequestEntityTooLarge,
			expectedMsg:  "request body must not exceed 16 bytes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/views", strings.NewReader(tt.body))
			if tt.limit > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, tt.limit)
			}

			var got payload
			ok := DecodeJSON(w, r, &got)
			if ok != tt.wantOK {
				t.Fatalf("DecodeJSON() = %v, want %v", ok, tt.wantOK)
			}
			if ok {
				if got.Name != "news" {
					t.Errorf("Name = %q, want %q", got.Name, "news")
				}
				return
			}

			if w.Code != tt.expectedCode {
				t.Errorf("Code = %v, want %v", w.Code, tt.expectedCode)
			}
			var body map[string]string
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if body["error"] != tt.expectedMsg {
				t.Errorf("Error message = %q, want %q", body["error"], tt.expectedMsg)
			}
		})
	}
}
