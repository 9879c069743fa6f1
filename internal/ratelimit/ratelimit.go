package ratelimit

import (
	"log/slog"
	"time"
)

// AlgorithmFixedWindow is the name of the fixed window strategy.
const AlgorithmFixedWindow = "fixed_window"

// DefaultWindow is the window length used for per-minute request limits.
const DefaultWindow = time.Minute

// Strategy decides whether a client identity may proceed. Every call both
// checks and records the request, so implementations serialize access.
type Strategy interface {
	Allow(identity string) bool
}

// New creates the strategy selected by name with the given per-window limit.
// A limit of 0 disables enforcement. Unknown names fall back to fixed window.
func New(logger *slog.Logger, name string, limit int) Strategy {
	switch name {
	case AlgorithmFixedWindow:
		return NewFixedWindow(limit, DefaultWindow)
	default:
		logger.Warn("Unknown rate limiter algorithm, defaulting to fixed window",
			slog.String("requested", name))
		return NewFixedWindow(limit, DefaultWindow)
	}
}
