package metrics

import (
	"context"
	"log/slog"
	"time"
)

type EventType string

const (
	EventRequestForwarded EventType = "request_forwarded"
	EventResponseRelayed  EventType = "response_relayed"
	EventRequestDenied    EventType = "request_denied"
	EventHealthChanged    EventType = "health_changed"
)

type MetricEvent struct {
	Type       EventType
	Timestamp  time.Time
	Upstream   string
	Duration   time.Duration
	StatusCode int
	Alive      bool
}

type Collector struct {
	eventCh chan MetricEvent
	metrics *Metrics
	logger  *slog.Logger
}

func NewCollector(bufferSize int, logger *slog.Logger) *Collector {
	return &Collector{
		eventCh: make(chan MetricEvent, bufferSize),
		metrics: NewMetrics(),
		logger:  logger,
	}
}

func (c *Collector) EventChannel() chan<- MetricEvent {
	return c.eventCh
}

// Emit sends an event without blocking; under backpressure the event is
// dropped rather than stalling the relay path. Safe on a nil collector.
func (c *Collector) Emit(event MetricEvent) {
	if c == nil {
		return
	}

	select {
	case c.eventCh <- event:
	default:
	}
}

func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Collector) run(ctx context.Context) {
	c.logger.Info("Metrics collector started")
	defer c.logger.Info("Metrics collector stopped")

	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		case <-ctx.Done():
			// Drain remaining events before shutdown
			c.drain()
			return
		}
	}
}

func (c *Collector) processEvent(event MetricEvent) {
	switch event.Type {
	case EventRequestForwarded:
		c.metrics.IncrementForwarded(event.Upstream)

	case EventResponseRelayed:
		c.metrics.RecordRelay(event.Upstream, event.Duration, event.StatusCode)

	case EventRequestDenied:
		c.metrics.IncrementDenied()

	case EventHealthChanged:
		c.metrics.UpdateHealthStatus(event.Upstream, event.Alive)
	}
}

func (c *Collector) drain() {
	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		default:
			return
		}
	}
}

func (c *Collector) Snapshot(rateLimiter string) Snapshot {
	return c.metrics.Snapshot(rateLimiter)
}
