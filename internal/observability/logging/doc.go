// Package logging provides structured logging helpers built on log/slog.
//
// Key features:
//   - JSON output with a LOG_LEVEL switch
//   - Request ID propagation
//   - Context-aware logging
//
// Example usage:
//
//	logger := logging.NewLogger()
//	slog.SetDefault(logger)
//
//	func handle(ctx context.Context) {
//	    logging.WithRequestID(ctx, slog.Default()).Info("processing request")
//	}
package logging
