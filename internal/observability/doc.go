// Package observability groups the logging, metrics and tracing helpers of
// the feed reader.
//
// Subpackages:
//   - logging: slog JSON logger and context propagation
//   - metrics: Prometheus metrics for fetches, ticks, the store and the API
//   - tracing: OpenTelemetry tracer and HTTP middleware
//
// Example usage:
//
//	logger := logging.NewLogger()
//	slog.SetDefault(logger)
//
//	ctx, span := tracing.GetTracer().Start(ctx, "registry.Refresh")
//	defer span.End()
package observability
