package metrics

import (
	"sort"
	"sync"
	"time"
)

type Metrics struct {
	mutex        sync.RWMutex
	forwarded    map[string]int64
	relayTimes   map[string][]time.Duration
	statusCodes  map[string]map[int]int64
	healthStatus map[string]bool
	denied       int64
	startTime    time.Time
}

type Snapshot struct {
	TotalForwarded int64                      `json:"total_forwarded"`
	DeniedRequests int64                      `json:"denied_requests"`
	Uptime         time.Duration              `json:"uptime"`
	Upstreams      map[string]UpstreamMetrics `json:"upstreams"`
	RateLimiter    string                     `json:"rate_limiter"`
}

type UpstreamMetrics struct {
	Forwarded   int64         `json:"forwarded"`
	Alive       bool          `json:"alive"`
	AvgRelay    time.Duration `json:"avg_relay"`
	P50Relay    time.Duration `json:"p50_relay"`
	P95Relay    time.Duration `json:"p95_relay"`
	P99Relay    time.Duration `json:"p99_relay"`
	StatusCodes map[int]int64 `json:"status_codes"`
}

func (m *Metrics) IncrementForwarded(upstream string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.forwarded[upstream]++
}

func (m *Metrics) IncrementDenied() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.denied++
}

func (m *Metrics) RecordRelay(upstream string, duration time.Duration, statusCode int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.relayTimes[upstream] = append(m.relayTimes[upstream], duration)

	if len(m.relayTimes[upstream]) > 1000 {
		m.relayTimes[upstream] = m.relayTimes[upstream][1:]
	}

	if m.statusCodes[upstream] == nil {
		m.statusCodes[upstream] = make(map[int]int64)
	}
	m.statusCodes[upstream][statusCode]++
}

func (m *Metrics) UpdateHealthStatus(upstream string, alive bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.healthStatus[upstream] = alive
}

func (m *Metrics) Snapshot(rateLimiter string) Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		DeniedRequests: m.denied,
		Uptime:         time.Since(m.startTime),
		Upstreams:      make(map[string]UpstreamMetrics),
		RateLimiter:    rateLimiter,
	}

	// Collect all unique upstream addresses
	allUpstreams := make(map[string]bool)
	for upstream := range m.forwarded {
		allUpstreams[upstream] = true
	}
	for upstream := range m.relayTimes {
		allUpstreams[upstream] = true
	}
	for upstream := range m.healthStatus {
		allUpstreams[upstream] = true
	}

	for upstream := range allUpstreams {
		snap.TotalForwarded += m.forwarded[upstream]

		um := UpstreamMetrics{
			Forwarded:   m.forwarded[upstream],
			Alive:       m.healthStatus[upstream],
			StatusCodes: m.statusCodes[upstream],
		}

		durations := m.relayTimes[upstream]
		if len(durations) > 0 {
			sorted := make([]time.Duration, len(durations))
			copy(sorted, durations)
			sort.Slice(sorted, func(i, j int) bool {
				return sorted[i] < sorted[j]
			})

			um.AvgRelay = average(sorted)
			um.P50Relay = percentile(sorted, 0.50)
			um.P95Relay = percentile(sorted, 0.95)
			um.P99Relay = percentile(sorted, 0.99)
		}

		snap.Upstreams[upstream] = um
	}

	return snap
}

func NewMetrics() *Metrics {
	return &Metrics{
		forwarded:    make(map[string]int64),
		relayTimes:   make(map[string][]time.Duration),
		statusCodes:  make(map[string]map[int]int64),
		healthStatus: make(map[string]bool),
		startTime:    time.Now(),
	}
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	return sum / time.Duration(len(durations))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return sorted[index]
}
