package config

import (
	"log/slog"
	"net"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

const AlgorithmFixedWindow = "fixed_window"

type ServerConfig struct {
	Address     string `mapstructure:"address"`
	Environment string `mapstructure:"environment"`
}

type HealthCheckConfig struct {
	Interval string `mapstructure:"interval"`
	Path     string `mapstructure:"path"`
}

type RateLimitConfig struct {
	MaxRequestsPerMinute int    `mapstructure:"max_requests_per_minute"`
	Algorithm            string `mapstructure:"algorithm"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type MetricsConfig struct {
	Address string `mapstructure:"address"`
}

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Upstreams   []string          `mapstructure:"upstreams"`
	HealthCheck HealthCheckConfig `mapstructure:"health_check"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
}

// BindFlags registers the command-line surface on the given flag set and
// binds each flag into viper. Callers parse the set themselves; a flag left
// at its default never overrides file or environment values.
func BindFlags(fs *pflag.FlagSet) {
	fs.StringP("bind", "b", "0.0.0.0:1100", "IP/port to bind to")
	fs.StringSliceP("upstream", "u", nil, "Upstream host to forward requests to (repeatable)")
	fs.String("health-check-interval", "10s", "Perform active health checks on this interval")
	fs.String("health-check-path", "/", "Path to send request to for active health checks")
	fs.Int("max-requests-per-minute", 0, "Maximum number of requests to accept per IP per minute (0 = unlimited)")
	fs.String("rate-limiter", AlgorithmFixedWindow, "The rate limit algorithm to apply")
	fs.String("metrics-addr", "", "Serve a JSON metrics endpoint on this address (empty = disabled)")
	fs.String("log-level", LogLevelInfo, "Log level (debug, info, warn, error)")

	_ = viper.BindPFlag("server.address", fs.Lookup("bind"))
	_ = viper.BindPFlag("upstreams", fs.Lookup("upstream"))
	_ = viper.BindPFlag("health_check.interval", fs.Lookup("health-check-interval"))
	_ = viper.BindPFlag("health_check.path", fs.Lookup("health-check-path"))
	_ = viper.BindPFlag("rate_limit.max_requests_per_minute", fs.Lookup("max-requests-per-minute"))
	_ = viper.BindPFlag("rate_limit.algorithm", fs.Lookup("rate-limiter"))
	_ = viper.BindPFlag("metrics.address", fs.Lookup("metrics-addr"))
	_ = viper.BindPFlag("logging.level", fs.Lookup("log-level"))
}

func Load() (*Config, error) {
	viper.SetDefault("server.environment", EnvDev)
	viper.SetDefault("server.address", "0.0.0.0:1100")
	viper.SetDefault("health_check.interval", "10s")
	viper.SetDefault("health_check.path", "/")
	viper.SetDefault("rate_limit.max_requests_per_minute", 0)
	viper.SetDefault("rate_limit.algorithm", AlgorithmFixedWindow)
	viper.SetDefault("logging.level", LogLevelInfo)
	viper.SetDefault("metrics.address", "")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("failed to read config file", slog.String("error", err.Error()))
			return nil, err
		}
		slog.Info("config file not found, using defaults, flags and environment variables")
	} else {
		slog.Info("loaded config file", slog.String("file", viper.ConfigFileUsed()))
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		slog.Error("failed to unmarshal config", slog.String("error", err.Error()))
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server,
			validation.Required,
			validation.By(func(value interface{}) error {
				sc, ok := value.(ServerConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ServerConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.Environment,
						validation.Required,
						validation.In(EnvDev, EnvStaging, EnvProd),
					),
					validation.Field(&sc.Address,
						validation.Required,
						validation.By(validateHostPort),
					),
				)
			}),
		),
		validation.Field(&c.Upstreams,
			validation.Required.Error("at least one upstream server must be specified"),
			validation.Length(1, 0),
			validation.Each(validation.By(validateHostPort)),
		),
		validation.Field(&c.HealthCheck,
			validation.Required,
			validation.By(func(value interface{}) error {
				hc, ok := value.(HealthCheckConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a HealthCheckConfig")
				}
				return validation.ValidateStruct(&hc,
					validation.Field(&hc.Interval,
						validation.Required,
						validation.By(validateDuration),
					),
					validation.Field(&hc.Path,
						validation.Required,
						validation.By(validateProbePath),
					),
				)
			}),
		),
		validation.Field(&c.RateLimit,
			validation.By(func(value interface{}) error {
				rl, ok := value.(RateLimitConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a RateLimitConfig")
				}
				return validation.ValidateStruct(&rl,
					validation.Field(&rl.MaxRequestsPerMinute,
						validation.Min(0),
					),
					validation.Field(&rl.Algorithm,
						validation.Required,
						validation.In(AlgorithmFixedWindow),
					),
				)
			}),
		),
		validation.Field(&c.Logging,
			validation.Required,
			validation.By(func(value interface{}) error {
				lc, ok := value.(LoggingConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a LoggingConfig")
				}
				return validation.ValidateStruct(&lc,
					validation.Field(&lc.Level,
						validation.Required,
						validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
					),
				)
			}),
		),
		validation.Field(&c.Metrics,
			validation.By(func(value interface{}) error {
				mc, ok := value.(MetricsConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a MetricsConfig")
				}
				if mc.Address == "" {
					return nil
				}
				return validateHostPort(mc.Address)
			}),
		),
	)
}

// HealthCheckInterval returns the parsed probe interval. A zero duration
// disables active health checking.
func (c *Config) HealthCheckInterval() (time.Duration, error) {
	return time.ParseDuration(c.HealthCheck.Interval)
}

func validateHostPort(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}

	if port == "" {
		return validation.NewError("validation_invalid_port", "port cannot be empty")
	}

	if host != "" {
		if err := is.Host.Validate(host); err != nil {
			return validation.NewError("validation_invalid_host", "invalid host")
		}
	}

	return nil
}

func validateDuration(value interface{}) error {
	durationStr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	d, err := time.ParseDuration(durationStr)
	if err != nil {
		return validation.NewError("validation_invalid_duration", "must be a valid duration (e.g., 2s, 5m, 1h)")
	}

	if d < 0 {
		return validation.NewError("validation_negative_duration", "must not be negative")
	}

	return nil
}

func validateProbePath(value interface{}) error {
	path, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if !strings.HasPrefix(path, "/") {
		return validation.NewError("validation_invalid_path", "must start with /")
	}

	return nil
}
