package main

import (
	"net/http"

	"github.com/kpetrou/tcp-balancer/internal/metrics"
)

func setupRouter(collector *metrics.Collector, rateLimiter string) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/metrics", collector.Handler(rateLimiter))

	return mux
}
