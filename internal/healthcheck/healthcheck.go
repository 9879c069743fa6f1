package healthcheck

import (
	"bufio"
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/kpetrou/tcp-balancer/internal/httpmsg"
	"github.com/kpetrou/tcp-balancer/internal/metrics"
	"github.com/kpetrou/tcp-balancer/internal/upstream"
)

// Checker probes every upstream on a fixed interval and updates the pool.
// An upstream counts as alive only when the probe connection succeeds and
// the probe path answers with HTTP 200.
type Checker struct {
	pool      *upstream.Pool
	path      string
	interval  time.Duration
	logger    *slog.Logger
	collector *metrics.Collector
}

// New creates a checker for the given pool. The collector may be nil.
func New(pool *upstream.Pool, path string, interval time.Duration, logger *slog.Logger, collector *metrics.Collector) *Checker {
	return &Checker{
		pool:      pool,
		path:      path,
		interval:  interval,
		logger:    logger,
		collector: collector,
	}
}

// Run probes all upstreams every interval until the context is cancelled.
// The first cycle runs after one full interval has elapsed.
func (c *Checker) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Health check stopped")
			return

		case <-ticker.C:
			c.runCycle()
		}
	}
}

func (c *Checker) runCycle() {
	addrs := c.pool.Addresses()

	before := make([]bool, len(addrs))
	results := make([]bool, len(addrs))
	for idx, addr := range addrs {
		before[idx] = c.pool.IsAlive(idx)
		results[idx] = c.probe(addr)
	}

	c.pool.ApplyProbeResults(results)

	for idx, healthy := range results {
		if healthy == before[idx] {
			continue
		}

		if healthy {
			c.logger.Info("Upstream is back up", slog.String("upstream", addrs[idx]))
		} else {
			c.logger.Warn("Upstream is down", slog.String("upstream", addrs[idx]))
		}

		c.collector.Emit(metrics.MetricEvent{
			Type:      metrics.EventHealthChanged,
			Timestamp: time.Now(),
			Upstream:  addrs[idx],
			Alive:     healthy,
		})
	}
}

// probe opens a fresh connection, sends GET on the configured path with the
// upstream's address as Host, and classifies the result. The connection is
// closed regardless of outcome.
func (c *Checker) probe(addr string) bool {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return false
	}
	defer conn.Close()

	req, err := http.NewRequest(http.MethodGet, "http://"+addr+c.path, nil)
	if err != nil {
		return false
	}

	if err := httpmsg.WriteRequest(req, conn); err != nil {
		return false
	}

	resp, err := httpmsg.ReadResponse(bufio.NewReader(conn), http.MethodGet)
	if err != nil {
		return false
	}

	return resp.StatusCode == http.StatusOK
}
