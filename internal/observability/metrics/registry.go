package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics track API request patterns and performance
var (
	// HTTPRequestsTotal counts total HTTP requests by method, path, and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// HTTPResponseSize measures HTTP response body size in bytes
	HTTPResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)
)

// Feed metrics track document fetches and reconciliation
var (
	// FeedFetchTotal counts document fetches by outcome (success, failure, rejected)
	FeedFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedreader_fetch_total",
			Help: "Total number of document fetches",
		},
		[]string{"outcome"},
	)

	// FeedFetchDuration measures time to fetch and parse one document
	FeedFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feedreader_fetch_duration_seconds",
			Help:    "Time taken to fetch and parse a document",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)

	// SourceFailuresTotal counts failed refreshes per source URL
	SourceFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedreader_source_failures_total",
			Help: "Total number of failed source refreshes",
		},
		[]string{"source"},
	)

	// EntriesAddedTotal counts entries seen for the first time during reconciliation
	EntriesAddedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedreader_entries_added_total",
			Help: "Total number of new entries found by reconciliation",
		},
	)
)

// Refresh metrics track scheduler ticks
var (
	// RefreshTicksTotal counts refresh ticks by result (changed, unchanged, canceled)
	RefreshTicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedreader_refresh_ticks_total",
			Help: "Total number of refresh ticks",
		},
		[]string{"result"},
	)

	// RefreshDuration measures the duration of one refresh tick
	RefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feedreader_refresh_duration_seconds",
			Help:    "Time taken by one refresh tick",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)

	// SourcesTotal tracks the number of sources referenced by at least one view
	SourcesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedreader_sources",
			Help: "Number of sources referenced by views",
		},
	)

	// ViewsTotal tracks the number of views
	ViewsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedreader_views",
			Help: "Number of views",
		},
	)
)

// Store metrics track persistence operations
var (
	// StoreOperationsTotal counts store operations by operation and result
	StoreOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedreader_store_operations_total",
			Help: "Total number of state store operations",
		},
		[]string{"operation", "result"},
	)

	// StoreOperationDuration measures store operation duration
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedreader_store_operation_duration_seconds",
			Help:    "State store operation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"operation"},
	)
)

// RecordHTTPRequest records an HTTP request with its metadata
func RecordHTTPRequest(method, path, status string, duration time.Duration, responseSize int) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())

	if responseSize > 0 {
		HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
	}
}
