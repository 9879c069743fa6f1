package ratelimit

import (
	"sync"
	"time"
)

type window struct {
	start time.Time
	count int
}

type fixedWindow struct {
	mutex        sync.Mutex
	limit        int
	windowLength time.Duration
	windows      map[string]*window
}

// NewFixedWindow creates a fixed window strategy allowing limit requests per
// identity per window. A limit of 0 permits every request without keeping
// any state.
func NewFixedWindow(limit int, windowLength time.Duration) Strategy {
	return &fixedWindow{
		limit:        limit,
		windowLength: windowLength,
		windows:      make(map[string]*window),
	}
}

func (fw *fixedWindow) Allow(identity string) bool {
	if fw.limit == 0 {
		return true
	}

	fw.mutex.Lock()
	defer fw.mutex.Unlock()

	now := time.Now()

	w, ok := fw.windows[identity]
	if !ok {
		w = &window{start: now}
		fw.windows[identity] = w
	}

	if now.Sub(w.start) >= fw.windowLength {
		w.start = now
		w.count = 0
	}

	w.count++
	return w.count <= fw.limit
}
