// Package pagination slices in-memory result lists into pages for the HTTP API.
package pagination

import (
	"fmt"
	"net/http"
	"strconv"
)

// Config holds the paging defaults and limits.
type Config struct {
	DefaultPage  int // Default page number (typically 1)
	DefaultLimit int // Default items per page (typically 50)
	MaxLimit     int // Maximum allowed items per page (typically 500)
}

// DefaultConfig returns the defaults used by the entries endpoint.
func DefaultConfig() Config {
	return Config{
		DefaultPage:  1,
		DefaultLimit: 50,
		MaxLimit:     500,
	}
}

// Params is a requested page.
type Params struct {
	Page  int // 1-based page number
	Limit int // Items per page
}

// Requested reports whether the request carries a page or limit parameter.
func Requested(r *http.Request) bool {
	q := r.URL.Query()
	return q.Has("page") || q.Has("limit")
}

// ParseQueryParams reads "page" and "limit" from the query string, applying
// the defaults of config to the missing ones.
func ParseQueryParams(r *http.Request, config Config) (Params, error) {
	params := Params{
		Page:  config.DefaultPage,
		Limit: config.DefaultLimit,
	}

	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil || page < 1 {
			return params, fmt.Errorf("invalid query parameter: page must be a positive integer")
		}
		params.Page = page
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > config.MaxLimit {
			return params, fmt.Errorf("invalid query parameter: limit must be between 1 and %d", config.MaxLimit)
		}
		params.Limit = limit
	}

	return params, nil
}

// Metadata describes the page returned.
type Metadata struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}

// Response is one page of items with its metadata.
type Response[T any] struct {
	Data       []T      `json:"data"`
	Pagination Metadata `json:"pagination"`
}

// CalculateTotalPages returns the number of pages needed for total items.
// An empty list still has one (empty) page.
func CalculateTotalPages(total, limit int) int {
	if total == 0 {
		return 1
	}
	return (total + limit - 1) / limit
}

// Paginate returns the page of items selected by p. A page past the end
// yields empty Data. The returned slice shares memory with items.
func Paginate[T any](items []T, p Params) Response[T] {
	offset := (p.Page - 1) * p.Limit
	start := min(offset, len(items))
	end := min(start+p.Limit, len(items))

	data := items[start:end]
	if data == nil {
		data = []T{}
	}
	return Response[T]{
		Data: data,
		Pagination: Metadata{
			Total:      len(items),
			Page:       p.Page,
			Limit:      p.Limit,
			TotalPages: CalculateTotalPages(len(items), p.Limit),
		},
	}
}
