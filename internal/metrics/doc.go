// Package metrics provides real-time metrics collection for the proxy.
//
// It uses a channel-based event pipeline to asynchronously collect metrics about:
//   - Requests forwarded per upstream
//   - Relay durations with percentile calculations (P50, P95, P99)
//   - Relayed HTTP status code distribution
//   - Upstream liveness tracking
//   - Rate limit denials
//
// The collector runs in a dedicated goroutine and processes events without
// blocking the relay path. Events are sent via buffered channels with
// non-blocking semantics to prevent performance degradation under load.
//
// Example usage:
//
//	collector := metrics.NewCollector(1000, logger)
//	collector.Start(ctx)
//
//	// Emit events while relaying
//	collector.EventChannel() <- metrics.MetricEvent{
//		Type:       metrics.EventResponseRelayed,
//		Upstream:   "127.0.0.1:8081",
//		Duration:   150 * time.Millisecond,
//		StatusCode: 200,
//	}
//
//	// Get metrics snapshot
//	snapshot := collector.Snapshot("fixed_window")
//
// The package provides thread-safe metrics storage using sync.RWMutex and
// supports graceful shutdown with event draining to prevent data loss.
package metrics
