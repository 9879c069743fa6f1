package metrics_test

import (
	"context"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpetrou/tcp-balancer/internal/metrics"
)

var _ = Describe("Collector", func() {
	var (
		collector *metrics.Collector
		log       *slog.Logger
		ctx       context.Context
		cancel    context.CancelFunc
	)

	BeforeEach(func() {
		log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelError, // Suppress logs in tests
		}))
		ctx, cancel = context.WithCancel(context.Background())
		collector = metrics.NewCollector(100, log)
	})

	AfterEach(func() {
		cancel()
	})

	It("should process forwarded events from the channel", func() {
		collector.Start(ctx)

		collector.EventChannel() <- metrics.MetricEvent{
			Type:      metrics.EventRequestForwarded,
			Timestamp: time.Now(),
			Upstream:  "127.0.0.1:8081",
		}

		Eventually(func() int64 {
			return collector.Snapshot("fixed_window").TotalForwarded
		}).Should(Equal(int64(1)))
	})

	It("should process relay and denial events", func() {
		collector.Start(ctx)

		collector.Emit(metrics.MetricEvent{
			Type:       metrics.EventResponseRelayed,
			Upstream:   "127.0.0.1:8081",
			Duration:   15 * time.Millisecond,
			StatusCode: 200,
		})
		collector.Emit(metrics.MetricEvent{Type: metrics.EventRequestDenied})

		Eventually(func() int64 {
			return collector.Snapshot("fixed_window").DeniedRequests
		}).Should(Equal(int64(1)))
		Eventually(func() int64 {
			return collector.Snapshot("fixed_window").Upstreams["127.0.0.1:8081"].StatusCodes[200]
		}).Should(Equal(int64(1)))
	})

	It("should process health change events", func() {
		collector.Start(ctx)

		collector.Emit(metrics.MetricEvent{
			Type:     metrics.EventHealthChanged,
			Upstream: "127.0.0.1:8082",
			Alive:    false,
		})

		Eventually(func() bool {
			snap := collector.Snapshot("fixed_window")
			_, ok := snap.Upstreams["127.0.0.1:8082"]
			return ok
		}).Should(BeTrue())
		Expect(collector.Snapshot("fixed_window").Upstreams["127.0.0.1:8082"].Alive).To(BeFalse())
	})

	It("should not block when emitting to a full channel", func() {
		small := metrics.NewCollector(1, log)
		// Not started, so the channel never drains.
		for i := 0; i < 10; i++ {
			small.Emit(metrics.MetricEvent{Type: metrics.EventRequestDenied})
		}
	})

	It("should be safe to emit on a nil collector", func() {
		var none *metrics.Collector
		none.Emit(metrics.MetricEvent{Type: metrics.EventRequestDenied})
	})
})
