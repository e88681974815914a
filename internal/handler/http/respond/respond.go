// Package respond provides utilities for sending HTTP responses in JSON format.
// It includes error handling with sanitization to prevent leaking sensitive information.
package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"feedreader/internal/domain/entity"
)

// JSON writes a JSON response with the given status code and data.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			// Headers are already sent.
			slog.Default().Error("failed to encode JSON response",
				slog.Int("status_code", code),
				slog.Any("error", err))
		}
	}
}

// Error writes a JSON error response with the given status code and error message.
func Error(w http.ResponseWriter, code int, err error) {
	JSON(w, code, map[string]string{"error": err.Error()})
}

// DecodeJSON decodes the request body into v. When the body is oversized or
// not valid JSON it writes the error response and returns false.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	err := dec.Decode(v)
	if err == nil {
		return true
	}

	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		SafeError(w, http.StatusRequestEntityTooLarge,
			fmt.Errorf("request body must not exceed %d bytes", maxErr.Limit))
	case errors.Is(err, io.EOF):
		SafeError(w, http.StatusBadRequest, errors.New("request body is required"))
	default:
		SafeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
	}
	return false
}

// safeMarkers are substrings of messages that may be shown to clients as-is.
var safeMarkers = []string{
	"required",
	"invalid",
	"not found",
	"already exists",
	"must",
	"validation error",
	"not running",
}

// SafeError sanitizes error messages before returning them to users.
// Messages of 5xx responses and messages without a known safe marker are
// replaced by a generic text; the original is logged with secrets masked.
func SafeError(w http.ResponseWriter, code int, err error) {
	if err == nil {
		return
	}

	msg := err.Error()
	isSafe := code < 500 && containsAny(strings.ToLower(msg), safeMarkers)
	if isSafe {
		JSON(w, code, map[string]string{"error": msg})
		return
	}

	slog.Default().Error("request failed",
		slog.String("status", http.StatusText(code)),
		slog.Int("code", code),
		slog.String("error", SanitizeError(err)))
	JSON(w, code, map[string]string{"error": genericMessage(code)})
}

// StatusFor maps a domain error to the HTTP status it is reported with.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrViewNotFound),
		errors.Is(err, entity.ErrSourceNotFound),
		errors.Is(err, entity.ErrEntryNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrDuplicateView),
		errors.Is(err, entity.ErrDuplicateSource):
		return http.StatusConflict
	case errors.Is(err, entity.ErrDocumentUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, entity.ErrValidationFailed):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// DomainError writes err with the status StatusFor picks for it.
func DomainError(w http.ResponseWriter, err error) {
	SafeError(w, StatusFor(err), err)
}

func genericMessage(code int) string {
	if code == http.StatusBadGateway {
		return entity.ErrDocumentUnavailable.Error()
	}
	if code >= 500 {
		return "internal server error"
	}
	return strings.ToLower(http.StatusText(code))
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
