// Package config loads sigslot settings from TOML or YAML files and the
// environment, and keeps them live while the process runs.
//
// Sources are layered, later ones winning:
//
//	built-in defaults < config file < SIGSLOT_* environment variables
//
// Load returns a validated Config. Live holds the reloadable settings as
// properties, so a reload goes through the same cancellable change protocol
// as any other assignment; Watch re-reads the file whenever it changes.
package config

import (
	"fmt"
	"time"

	"github.com/dshills/sigslot/internal/logging"
)

// Config is the complete sigslot configuration.
type Config struct {
	Logging  LoggingConfig  `toml:"logging" yaml:"logging"`
	Throttle ThrottleConfig `toml:"throttle" yaml:"throttle"`
	Timer    TimerConfig    `toml:"timer" yaml:"timer"`
	Metrics  MetricsConfig  `toml:"metrics" yaml:"metrics"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level" yaml:"level"`
}

// ThrottleConfig configures throttled signals.
type ThrottleConfig struct {
	// Window is the coalescing window.
	Window time.Duration `toml:"window" yaml:"window"`
}

// TimerConfig configures timer signals.
type TimerConfig struct {
	// Interval is the tick interval.
	Interval time.Duration `toml:"interval" yaml:"interval"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Namespace prefixes every metric name.
	Namespace string `toml:"namespace" yaml:"namespace"`

	// Addr is the listen address of the /metrics endpoint.
	// Empty disables the endpoint.
	Addr string `toml:"addr" yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Logging:  LoggingConfig{Level: "info"},
		Throttle: ThrottleConfig{Window: 50 * time.Millisecond},
		Timer:    TimerConfig{Interval: 500 * time.Millisecond},
		Metrics:  MetricsConfig{Namespace: "sigslot"},
	}
}

// LogLevel returns the parsed logging level.
func (c *Config) LogLevel() logging.LogLevel {
	return logging.ParseLogLevel(c.Logging.Level)
}

// Validate checks every setting and returns all failures joined in a
// ValidationErrors value, or nil.
func (c *Config) Validate() error {
	var errs ValidationErrors

	if !logging.ValidLevel(c.Logging.Level) {
		errs = append(errs, &ValidationError{
			Path:    "logging.level",
			Value:   c.Logging.Level,
			Message: "must be one of debug, info, warn, error",
		})
	}
	if c.Throttle.Window <= 0 {
		errs = append(errs, &ValidationError{
			Path:    "throttle.window",
			Value:   c.Throttle.Window,
			Message: "must be positive",
		})
	}
	if c.Timer.Interval <= 0 {
		errs = append(errs, &ValidationError{
			Path:    "timer.interval",
			Value:   c.Timer.Interval,
			Message: "must be positive",
		})
	}
	if c.Metrics.Namespace == "" {
		errs = append(errs, &ValidationError{
			Path:    "metrics.namespace",
			Value:   c.Metrics.Namespace,
			Message: "cannot be empty",
		})
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// String returns a one-line summary for logs.
func (c *Config) String() string {
	return fmt.Sprintf("level=%s window=%v interval=%v namespace=%s addr=%q",
		c.Logging.Level, c.Throttle.Window, c.Timer.Interval, c.Metrics.Namespace, c.Metrics.Addr)
}
