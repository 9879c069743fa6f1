package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/kpetrou/tcp-balancer/config"
)

func TestConfig(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Config Suite")
}

var _ = Describe("Config", func() {
	var (
		tempDir string
		origDir string
	)

	writeConfig := func(content string) {
		err := os.WriteFile(filepath.Join(tempDir, "config.yaml"), []byte(content), 0o644)
		Expect(err).NotTo(HaveOccurred())
	}

	BeforeEach(func() {
		viper.Reset()

		var err error
		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		tempDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(tempDir)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
		os.RemoveAll(tempDir)
		os.Unsetenv("UPSTREAMS")
		viper.Reset()
	})

	Describe("Load", func() {
		Context("with a valid config file", func() {
			BeforeEach(func() {
				writeConfig(`
server:
  address: "127.0.0.1:1100"
upstreams:
  - "127.0.0.1:8081"
  - "127.0.0.1:8082"
health_check:
  interval: "2s"
  path: "/health"
rate_limit:
  max_requests_per_minute: 60
  algorithm: fixed_window
logging:
  level: debug
`)
			})

			It("should load all sections", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Server.Address).To(Equal("127.0.0.1:1100"))
				Expect(cfg.Upstreams).To(Equal([]string{"127.0.0.1:8081", "127.0.0.1:8082"}))
				Expect(cfg.HealthCheck.Path).To(Equal("/health"))
				Expect(cfg.RateLimit.MaxRequestsPerMinute).To(Equal(60))
				Expect(cfg.RateLimit.Algorithm).To(Equal(config.AlgorithmFixedWindow))
				Expect(cfg.Logging.Level).To(Equal(config.LogLevelDebug))
			})

			It("should parse the health check interval", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())

				interval, err := cfg.HealthCheckInterval()
				Expect(err).NotTo(HaveOccurred())
				Expect(interval).To(Equal(2 * time.Second))
			})
		})

		Context("with only upstreams configured", func() {
			BeforeEach(func() {
				writeConfig(`
upstreams:
  - "127.0.0.1:8081"
`)
			})

			It("should fall back to defaults everywhere else", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Server.Address).To(Equal("0.0.0.0:1100"))
				Expect(cfg.Server.Environment).To(Equal(config.EnvDev))
				Expect(cfg.HealthCheck.Interval).To(Equal("10s"))
				Expect(cfg.HealthCheck.Path).To(Equal("/"))
				Expect(cfg.RateLimit.MaxRequestsPerMinute).To(Equal(0))
				Expect(cfg.Metrics.Address).To(BeEmpty())
			})
		})

		Context("with no upstreams", func() {
			It("should fail validation", func() {
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})
		})

		Context("with an invalid upstream address", func() {
			BeforeEach(func() {
				writeConfig(`
upstreams:
  - "not a hostport"
`)
			})

			It("should fail validation", func() {
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})
		})

		Context("with an unknown rate limiter algorithm", func() {
			BeforeEach(func() {
				writeConfig(`
upstreams:
  - "127.0.0.1:8081"
rate_limit:
  algorithm: token_bucket
`)
			})

			It("should fail validation", func() {
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})
		})

		Context("with an invalid health check path", func() {
			BeforeEach(func() {
				writeConfig(`
upstreams:
  - "127.0.0.1:8081"
health_check:
  path: "no-leading-slash"
`)
			})

			It("should fail validation", func() {
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})
		})

		Context("with an invalid metrics address", func() {
			BeforeEach(func() {
				writeConfig(`
upstreams:
  - "127.0.0.1:8081"
metrics:
  address: "not-a-hostport"
`)
			})

			It("should fail validation", func() {
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})
		})

		Context("with a zero health check interval", func() {
			BeforeEach(func() {
				writeConfig(`
upstreams:
  - "127.0.0.1:8081"
health_check:
  interval: "0s"
`)
			})

			It("should load and report a zero interval", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())

				interval, err := cfg.HealthCheckInterval()
				Expect(err).NotTo(HaveOccurred())
				Expect(interval).To(BeZero())
			})
		})
	})

	Describe("BindFlags", func() {
		It("should let parsed flags override defaults", func() {
			fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
			config.BindFlags(fs)

			err := fs.Parse([]string{
				"--bind", "127.0.0.1:2000",
				"--upstream", "127.0.0.1:9001",
				"--upstream", "127.0.0.1:9002",
				"--max-requests-per-minute", "5",
			})
			Expect(err).NotTo(HaveOccurred())

			cfg, err := config.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Server.Address).To(Equal("127.0.0.1:2000"))
			Expect(cfg.Upstreams).To(Equal([]string{"127.0.0.1:9001", "127.0.0.1:9002"}))
			Expect(cfg.RateLimit.MaxRequestsPerMinute).To(Equal(5))
		})
	})
})
