package upstream

import (
	"sync"
)

// Pool holds the fixed set of upstream addresses together with a per-index
// alive flag and a running count of live entries. Routing reads and
// health-check writes share the pool under a single reader/writer lock.
type Pool struct {
	addrs []string

	mutex     sync.RWMutex
	alive     []bool
	liveCount int
}

// NewPool creates a pool for the given addresses. Every upstream starts alive.
func NewPool(addrs []string) *Pool {
	alive := make([]bool, len(addrs))
	for i := range alive {
		alive[i] = true
	}

	return &Pool{
		addrs:     addrs,
		alive:     alive,
		liveCount: len(addrs),
	}
}

// Len returns the number of configured upstreams.
func (p *Pool) Len() int {
	return len(p.addrs)
}

// Addr returns the address at the given index.
func (p *Pool) Addr(idx int) string {
	return p.addrs[idx]
}

// Addresses returns all configured upstream addresses in index order.
func (p *Pool) Addresses() []string {
	return p.addrs
}

// IsAlive reports whether the upstream at idx is currently considered alive.
func (p *Pool) IsAlive(idx int) bool {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.alive[idx]
}

// AllDead reports whether no upstream is currently alive.
func (p *Pool) AllDead() bool {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.liveCount == 0
}

// LiveCount returns the number of upstreams currently alive.
func (p *Pool) LiveCount() int {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.liveCount
}

// SetDead marks the upstream at idx dead. Marking an already-dead upstream
// is a no-op.
func (p *Pool) SetDead(idx int) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.setDeadLocked(idx)
}

// SetAlive marks the upstream at idx alive. Marking an already-alive upstream
// is a no-op.
func (p *Pool) SetAlive(idx int) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.setAliveLocked(idx)
}

// ApplyProbeResults applies one health-check cycle's full result vector,
// one bool per index, under a single write-lock acquisition so readers never
// observe a partially applied cycle.
func (p *Pool) ApplyProbeResults(results []bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	for idx, healthy := range results {
		if healthy {
			p.setAliveLocked(idx)
		} else {
			p.setDeadLocked(idx)
		}
	}
}

func (p *Pool) setDeadLocked(idx int) {
	if p.alive[idx] {
		p.alive[idx] = false
		p.liveCount--
	}
}

func (p *Pool) setAliveLocked(idx int) {
	if !p.alive[idx] {
		p.alive[idx] = true
		p.liveCount++
	}
}
