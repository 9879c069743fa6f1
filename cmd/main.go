package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/kpetrou/tcp-balancer/config"
	"github.com/kpetrou/tcp-balancer/internal/handler"
	"github.com/kpetrou/tcp-balancer/internal/healthcheck"
	"github.com/kpetrou/tcp-balancer/internal/httpserver"
	"github.com/kpetrou/tcp-balancer/internal/metrics"
	"github.com/kpetrou/tcp-balancer/internal/proxyserver"
	"github.com/kpetrou/tcp-balancer/internal/ratelimit"
	"github.com/kpetrou/tcp-balancer/internal/router"
	"github.com/kpetrou/tcp-balancer/internal/upstream"
	"github.com/kpetrou/tcp-balancer/pkg/logger"
)

func main() {
	config.BindFlags(pflag.CommandLine)
	pflag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, true, cfg.Server.Environment)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool := upstream.NewPool(cfg.Upstreams)

	collector := metrics.NewCollector(1000, log)
	collector.Start(ctx)

	limiter := ratelimit.New(log, cfg.RateLimit.Algorithm, cfg.RateLimit.MaxRequestsPerMinute)

	if err := startHealthChecker(ctx, cfg, pool, log, collector); err != nil {
		log.Error("Failed to start health checker", slog.Any("err", err))
		os.Exit(1)
	}

	connHandler := handler.New(log, router.New(pool, log), limiter, collector)

	srv, err := proxyserver.New(cfg.Server.Address, connHandler, log)
	if err != nil {
		log.Error("Failed to create server", slog.Any("err", err))
		os.Exit(1)
	}

	metricsSrv, err := startMetricsServer(cfg, collector, log)
	if err != nil {
		log.Error("Failed to start metrics server", slog.Any("err", err))
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)

	go func() {
		srvErrCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
		if err := srv.Shutdown(); err != nil {
			log.Error("Error during shutdown", slog.Any("err", err))
		}
		if metricsSrv != nil {
			if err := metricsSrv.Shutdown(context.Background()); err != nil {
				log.Error("Error shutting down metrics server", slog.Any("err", err))
			}
		}
	case err := <-srvErrCh:
		if err != nil {
			log.Error("Error starting proxy", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

func startHealthChecker(
	ctx context.Context,
	cfg *config.Config,
	pool *upstream.Pool,
	log *slog.Logger,
	collector *metrics.Collector,
) error {
	interval, err := cfg.HealthCheckInterval()
	if err != nil {
		return err
	}

	if interval == 0 {
		log.Info("Active health checks disabled")
		return nil
	}

	checker := healthcheck.New(pool, cfg.HealthCheck.Path, interval, log, collector)
	go checker.Run(ctx)

	log.Info("Active health checks enabled",
		slog.Duration("interval", interval),
		slog.String("path", cfg.HealthCheck.Path))
	return nil
}

func startMetricsServer(cfg *config.Config, collector *metrics.Collector, log *slog.Logger) (*httpserver.Server, error) {
	if cfg.Metrics.Address == "" {
		return nil, nil
	}

	srv, err := httpserver.New(cfg.Metrics.Address, setupRouter(collector, cfg.RateLimit.Algorithm))
	if err != nil {
		return nil, err
	}

	go func() {
		if err := srv.Start(); err != nil {
			log.Error("Metrics server error", slog.Any("err", err))
		}
	}()

	log.Info("Metrics endpoint enabled", slog.String("address", cfg.Metrics.Address))
	return srv, nil
}
