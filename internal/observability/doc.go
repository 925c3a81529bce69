// Package observability centralizes structured logging helpers shared
// across the crawl process.
//
// Subpackages:
//   - logging: structured logging utilities with slog, run-id propagation
//     via internal/runctx
//
// Example usage:
//
//	import "catchup-feed/internal/observability/logging"
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("application started")
//	}
package observability
