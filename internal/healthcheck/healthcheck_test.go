package healthcheck_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpetrou/tcp-balancer/internal/healthcheck"
	"github.com/kpetrou/tcp-balancer/internal/upstream"
)

func TestHealthcheck(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Healthcheck Suite")
}

var _ = Describe("Checker", func() {
	var (
		log          *slog.Logger
		probeStatus  atomic.Int32
		mockUpstream *httptest.Server
		pool         *upstream.Pool
		ctx          context.Context
		cancel       context.CancelFunc
	)

	BeforeEach(func() {
		log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
		probeStatus.Store(http.StatusOK)

		mockUpstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" {
				w.WriteHeader(int(probeStatus.Load()))
				return
			}
			w.WriteHeader(http.StatusNotFound)
		}))

		pool = upstream.NewPool([]string{hostPort(mockUpstream.URL)})
		ctx, cancel = context.WithCancel(context.Background())
	})

	AfterEach(func() {
		cancel()
		mockUpstream.Close()
	})

	It("should mark an upstream answering 200 as alive", func() {
		pool.SetDead(0)

		checker := healthcheck.New(pool, "/health", 50*time.Millisecond, log, nil)
		go checker.Run(ctx)

		Eventually(func() bool {
			return pool.IsAlive(0)
		}, time.Second, 10*time.Millisecond).Should(BeTrue())
	})

	It("should mark an upstream answering 500 as dead and revive it on 200", func() {
		probeStatus.Store(http.StatusInternalServerError)

		checker := healthcheck.New(pool, "/health", 50*time.Millisecond, log, nil)
		go checker.Run(ctx)

		Eventually(func() bool {
			return pool.IsAlive(0)
		}, time.Second, 10*time.Millisecond).Should(BeFalse())

		probeStatus.Store(http.StatusOK)

		Eventually(func() bool {
			return pool.IsAlive(0)
		}, time.Second, 10*time.Millisecond).Should(BeTrue())
	})

	It("should mark an unreachable upstream as dead", func() {
		deadPool := upstream.NewPool([]string{"127.0.0.1:1"})

		checker := healthcheck.New(deadPool, "/health", 50*time.Millisecond, log, nil)
		go checker.Run(ctx)

		Eventually(func() bool {
			return deadPool.AllDead()
		}, time.Second, 10*time.Millisecond).Should(BeTrue())
	})

	It("should stop when the context is cancelled", func() {
		checker := healthcheck.New(pool, "/health", 50*time.Millisecond, log, nil)

		done := make(chan struct{})
		go func() {
			checker.Run(ctx)
			close(done)
		}()

		cancel()
		Eventually(done, time.Second).Should(BeClosed())
	})
})

func hostPort(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		panic(err)
	}
	return u.Host
}
