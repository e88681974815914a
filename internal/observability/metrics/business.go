package metrics

import (
	"time"
)

// Fetch outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeRejected = "rejected"
)

// RecordFetch records one document fetch.
// outcome is one of OutcomeSuccess, OutcomeFailure or OutcomeRejected.
func RecordFetch(outcome string, duration time.Duration) {
	FeedFetchTotal.WithLabelValues(outcome).Inc()
	FeedFetchDuration.Observe(duration.Seconds())
}

// RecordSourceFailure records a refresh failure of the source at url.
func RecordSourceFailure(url string) {
	SourceFailuresTotal.WithLabelValues(url).Inc()
}

// RecordEntriesAdded records entries that reconciliation saw for the first time.
func RecordEntriesAdded(count int) {
	if count > 0 {
		EntriesAddedTotal.Add(float64(count))
	}
}

// RecordRefreshTick records a finished refresh tick.
// result is "changed", "unchanged" or "canceled".
func RecordRefreshTick(result string, duration time.Duration) {
	RefreshTicksTotal.WithLabelValues(result).Inc()
	RefreshDuration.Observe(duration.Seconds())
}

// UpdateRegistrySize updates the view and source gauges.
func UpdateRegistrySize(views, sources int) {
	ViewsTotal.Set(float64(views))
	SourcesTotal.Set(float64(sources))
}

// RecordStoreOperation records a save or load against the state store.
func RecordStoreOperation(operation string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	StoreOperationsTotal.WithLabelValues(operation, result).Inc()
	StoreOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
