// Package metrics provides the Prometheus metrics of the feed reader.
//
// Metrics are grouped into:
//   - HTTP request metrics (duration, count, size)
//   - Feed fetch metrics (outcome, duration, entries added)
//   - Refresh tick metrics (count, duration, sources and views)
//   - State store metrics (save/load outcome and duration)
//
// All metrics are registered with the Prometheus default registry and exposed
// via the /metrics endpoint of the metrics server.
//
// Example usage:
//
//	start := time.Now()
//	doc, err := parser.Parse(ctx, url)
//	metrics.RecordFetch(url, time.Since(start), err)
package metrics
