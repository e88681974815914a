// Package tracing provides the OpenTelemetry tracer of the feed reader and an
// HTTP middleware that starts a server span per request.
//
// No exporter is installed here; the global otel provider decides where spans
// go. Without one, spans are no-ops.
//
// Example usage:
//
//	ctx, span := tracing.GetTracer().Start(ctx, "scraper.Parse")
//	defer span.End()
package tracing
