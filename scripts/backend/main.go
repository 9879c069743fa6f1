// Backend is a simple test HTTP upstream used for proxy testing.
// It echoes request details on / and exposes a toggleable /health endpoint.
//
// Usage:
//
//	go run ./scripts/backend -port 8081
//
// POST /toggle-health flips the health status so failover and active
// health checking can be exercised by hand.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"sync/atomic"
)

func main() {
	port := flag.Int("port", 8081, "port to listen on")
	startUnhealthy := flag.Bool("unhealthy", false, "start with /health returning 503")
	flag.Parse()

	var healthy atomic.Bool
	healthy.Store(!*startUnhealthy)

	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if healthy.Load() {
			w.WriteHeader(http.StatusOK)
			fmt.Fprintln(w, "OK")
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintln(w, "UNHEALTHY")
	})

	mux.HandleFunc("/toggle-health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		now := !healthy.Load()
		healthy.Store(now)
		log.Printf("health toggled, healthy=%v", now)
		fmt.Fprintf(w, "healthy=%v\n", now)
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		log.Printf("%s %s from %s (X-Forwarded-For: %q)",
			r.Method, r.URL.Path, r.RemoteAddr, r.Header.Get("X-Forwarded-For"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"port":            *port,
			"path":            r.URL.Path,
			"method":          r.Method,
			"x_forwarded_for": r.Header.Get("X-Forwarded-For"),
		})
	})

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("test upstream listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, mux))
}
