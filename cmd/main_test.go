package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpetrou/tcp-balancer/config"
	"github.com/kpetrou/tcp-balancer/internal/metrics"
	"github.com/kpetrou/tcp-balancer/internal/upstream"
)

func TestCmd(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Main Suite")
}

var _ = Describe("startHealthChecker", func() {
	var (
		log    *slog.Logger
		ctx    context.Context
		cancel context.CancelFunc
		cfg    *config.Config
		pool   *upstream.Pool
	)

	BeforeEach(func() {
		log = slog.Default()
		ctx, cancel = context.WithCancel(context.Background())
		pool = upstream.NewPool([]string{"127.0.0.1:8081"})
		cfg = &config.Config{
			HealthCheck: config.HealthCheckConfig{
				Interval: "5s",
				Path:     "/health",
			},
		}
	})

	AfterEach(func() {
		cancel()
	})

	It("should start with a valid interval", func() {
		Expect(startHealthChecker(ctx, cfg, pool, log, nil)).To(Succeed())
	})

	It("should treat a zero interval as disabled", func() {
		cfg.HealthCheck.Interval = "0s"
		Expect(startHealthChecker(ctx, cfg, pool, log, nil)).To(Succeed())
	})

	It("should reject an unparseable interval", func() {
		cfg.HealthCheck.Interval = "often"
		Expect(startHealthChecker(ctx, cfg, pool, log, nil)).NotTo(Succeed())
	})
})

var _ = Describe("startMetricsServer", func() {
	var (
		log       *slog.Logger
		collector *metrics.Collector
	)

	BeforeEach(func() {
		log = slog.Default()
		collector = metrics.NewCollector(10, log)
	})

	It("should be disabled when no address is configured", func() {
		cfg := &config.Config{}
		srv, err := startMetricsServer(cfg, collector, log)
		Expect(err).NotTo(HaveOccurred())
		Expect(srv).To(BeNil())
	})

	It("should reject an invalid address", func() {
		cfg := &config.Config{Metrics: config.MetricsConfig{Address: "bad:addr:addr"}}
		_, err := startMetricsServer(cfg, collector, log)
		Expect(err).To(HaveOccurred())
	})

	It("should start a server on a valid address", func() {
		cfg := &config.Config{Metrics: config.MetricsConfig{Address: "127.0.0.1:19881"}}
		srv, err := startMetricsServer(cfg, collector, log)
		Expect(err).NotTo(HaveOccurred())
		Expect(srv).NotTo(BeNil())
		Expect(srv.Shutdown(context.Background())).To(Succeed())
	})
})

var _ = Describe("setupRouter", func() {
	It("should serve the metrics snapshot as JSON", func() {
		collector := metrics.NewCollector(10, slog.Default())
		mux := setupRouter(collector, "fixed_window")

		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("Content-Type")).To(Equal("application/json"))

		var snap metrics.Snapshot
		Expect(json.Unmarshal(rec.Body.Bytes(), &snap)).To(Succeed())
		Expect(snap.RateLimiter).To(Equal("fixed_window"))
	})
})
