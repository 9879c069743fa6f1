// Package config handles loading and parsing of configuration from YAML files,
// environment variables and command-line flags. It defines the application
// configuration structure including the bind address, upstream addresses,
// health check settings, rate limiting and logging.
package config
