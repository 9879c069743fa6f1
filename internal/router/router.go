package router

import (
	"errors"
	"log/slog"
	"math/rand/v2"
	"net"

	"github.com/kpetrou/tcp-balancer/internal/upstream"
)

// ErrAllUpstreamsDown is returned when no live upstream remains.
var ErrAllUpstreamsDown = errors.New("all upstream servers are dead")

// Router picks live upstreams uniformly at random and dials them.
type Router struct {
	pool   *upstream.Pool
	logger *slog.Logger
}

func New(pool *upstream.Pool, logger *slog.Logger) *Router {
	return &Router{
		pool:   pool,
		logger: logger,
	}
}

// Route returns a connection to a live upstream together with its address.
// An upstream that refuses the connection is marked dead and another one is
// drawn; once the pool is exhausted Route fails with ErrAllUpstreamsDown
// without attempting any further connection.
func (r *Router) Route() (net.Conn, string, error) {
	for {
		if r.pool.AllDead() {
			return nil, "", ErrAllUpstreamsDown
		}

		// AllDead was just ruled out, so a live index exists and the draw
		// terminates. Draws may repeat dead indices on small pools.
		var idx int
		for {
			idx = rand.IntN(r.pool.Len())
			if r.pool.IsAlive(idx) {
				break
			}
		}

		addr := r.pool.Addr(idx)
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			r.logger.Warn("Failed to connect to upstream",
				slog.String("upstream", addr),
				slog.Any("err", err))
			r.pool.SetDead(idx)
			continue
		}

		return conn, addr, nil
	}
}
