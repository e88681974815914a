package entity

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

const (
	// maxURLLength defines the maximum allowed length for URLs to prevent DoS attacks.
	maxURLLength = 2048

	maxViewNameLength = 128
)

// ValidateURL validates a source URL.
// It checks that the URL is well-formed and uses the http, https or file
// scheme; http(s) URLs must carry a host and file URLs a path.
// Returns a ValidationError if the URL is invalid or empty.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return &ValidationError{Field: "url", Message: "URL is required"}
	}

	// DoS protection: enforce maximum URL length
	if len(rawURL) > maxURLLength {
		return &ValidationError{
			Field:   "url",
			Message: fmt.Sprintf("url must not exceed %d characters", maxURLLength),
		}
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return &ValidationError{Field: "url", Message: fmt.Sprintf("invalid URL: %v", err)}
	}

	switch parsedURL.Scheme {
	case "http", "https":
		if parsedURL.Host == "" {
			return &ValidationError{Field: "url", Message: "URL must have a valid host"}
		}
	case "file":
		if parsedURL.Path == "" {
			return &ValidationError{Field: "url", Message: "file URL must have a path"}
		}
	default:
		return &ValidationError{Field: "url", Message: "URL must use http, https or file scheme"}
	}

	return nil
}

// NormalizeURL trims surrounding whitespace. Sources are otherwise identified
// by the URL exactly as given.
func NormalizeURL(rawURL string) string {
	return strings.TrimSpace(rawURL)
}

// ValidateViewName checks that a view name is non-empty after trimming and not
// longer than 128 characters.
func ValidateViewName(name string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: "name", Message: "view name is required"}
	}
	if utf8.RuneCountInString(name) > maxViewNameLength {
		return &ValidationError{
			Field:   "name",
			Message: fmt.Sprintf("view name must not exceed %d characters", maxViewNameLength),
		}
	}
	return nil
}
