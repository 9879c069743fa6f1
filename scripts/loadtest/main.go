// Loadtest is a concurrent HTTP load testing tool that measures throughput,
// latency percentiles and status code distribution through the proxy.
//
// Usage:
//
//	go run ./scripts/loadtest -url http://localhost:1100/ -concurrency 10 -requests 1000
package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

func main() {
	var (
		url         = flag.String("url", "http://localhost:1100/", "Target URL")
		concurrency = flag.Int("concurrency", 10, "Number of concurrent workers")
		requests    = flag.Int("requests", 100, "Total number of requests to send")
		timeoutSec  = flag.Int("timeout", 10, "Per-request timeout in seconds")
	)
	flag.Parse()

	client := &http.Client{Timeout: time.Duration(*timeoutSec) * time.Second}

	jobs := make(chan int)
	var wg sync.WaitGroup

	var success, failure int32
	var mu sync.Mutex
	latencies := make([]time.Duration, 0, *requests)
	statusCounts := make(map[int]int)

	start := time.Now()

	for w := 0; w < *concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				reqStart := time.Now()
				resp, err := client.Get(*url)
				if err != nil {
					atomic.AddInt32(&failure, 1)
					continue
				}
				_, _ = io.Copy(io.Discard, resp.Body)
				_ = resp.Body.Close()

				atomic.AddInt32(&success, 1)
				mu.Lock()
				latencies = append(latencies, time.Since(reqStart))
				statusCounts[resp.StatusCode]++
				mu.Unlock()
			}
		}()
	}

	for i := 0; i < *requests; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	elapsed := time.Since(start)

	if len(latencies) == 0 {
		fmt.Fprintln(os.Stderr, "no successful requests")
		os.Exit(1)
	}

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	fmt.Printf("requests:    %d (ok=%d failed=%d)\n", *requests, success, failure)
	fmt.Printf("elapsed:     %s (%.1f req/s)\n", elapsed, float64(success)/elapsed.Seconds())
	fmt.Printf("latency p50: %s\n", percentile(latencies, 0.50))
	fmt.Printf("latency p90: %s\n", percentile(latencies, 0.90))
	fmt.Printf("latency p99: %s\n", percentile(latencies, 0.99))
	fmt.Println("status codes:")
	for code, count := range statusCounts {
		fmt.Printf("  %d: %d\n", code, count)
	}
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	idx := int(float64(len(sorted)) * p)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
