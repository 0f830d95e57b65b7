// Package config provides configuration loading and validation for the service.
// Configuration is loaded from YAML files with environment variable overrides
// using a layered system: defaults -> base.yaml -> {profile}.yaml -> env vars.
package config

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// Config holds all configuration for the service.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Log        LogConfig        `koanf:"log"`
	Telemetry  TelemetryConfig  `koanf:"telemetry"`
	RequestLog RequestLogConfig `koanf:"request_log"`
	Dispatch   DispatchConfig   `koanf:"dispatch"`
	Collector  CollectorConfig  `koanf:"collector"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `koanf:"host"`
	Port         int           `koanf:"port"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
}

// LogConfig holds structured logging settings for the service's own logs.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled"`
	Exporter    string `koanf:"exporter"`
	Endpoint    string `koanf:"endpoint"`
	ServiceName string `koanf:"service_name"`
}

// RequestLogConfig holds the defaults for the request and error loggers.
// Field names mirror the middleware options.
type RequestLogConfig struct {
	RequestAllow   []string `koanf:"request_allow"`
	RequestDeny    []string `koanf:"request_deny"`
	ResponseAllow  []string `koanf:"response_allow"`
	BodyAllow      []string `koanf:"body_allow"`
	BodyDeny       []string `koanf:"body_deny"`
	HeaderDenylist []string `koanf:"header_denylist"`
	IgnoredRoutes  []string `koanf:"ignored_routes"`

	Level         string `koanf:"level"`
	StatusLevels  bool   `koanf:"status_levels"`
	Msg           string `koanf:"msg"`
	ExpressFormat bool   `koanf:"express_format"`
	Colorize      bool   `koanf:"colorize"`

	// MetaField is a dotted nesting path; empty keeps metadata at the top level.
	MetaField     string `koanf:"meta_field"`
	RequestField  string `koanf:"request_field"`
	ResponseField string `koanf:"response_field"`
	DisableMeta   bool   `koanf:"disable_meta"`
	TraceMeta     bool   `koanf:"trace_meta"`

	// MaxBodyBytes accepts human-readable sizes such as "64KiB" or "1 MB".
	MaxBodyBytes string `koanf:"max_body_bytes"`
}

// BodyLimit parses MaxBodyBytes. An empty value means no limit (0).
func (r *RequestLogConfig) BodyLimit() (int64, error) {
	if r.MaxBodyBytes == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(r.MaxBodyBytes)
	if err != nil {
		return 0, fmt.Errorf("parsing request_log.max_body_bytes %q: %w", r.MaxBodyBytes, err)
	}
	if n > uint64(maxBodyLimit) {
		return 0, fmt.Errorf("request_log.max_body_bytes %s exceeds %s",
			humanize.IBytes(n), humanize.IBytes(uint64(maxBodyLimit)))
	}
	return int64(n), nil
}

// DispatchConfig sizes the asynchronous log dispatcher.
type DispatchConfig struct {
	QueueSize       int           `koanf:"queue_size"`
	Workers         int           `koanf:"workers"`
	FanOut          int           `koanf:"fan_out"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	// Stdout enables the slog backend that writes entries to standard output.
	Stdout bool `koanf:"stdout"`
}

// CollectorConfig holds settings for the HTTP collector backend.
type CollectorConfig struct {
	Enabled        bool                 `koanf:"enabled"`
	BaseURL        string               `koanf:"base_url"`
	Path           string               `koanf:"path"`
	Timeout        time.Duration        `koanf:"timeout"`
	RateLimit      RateLimitConfig      `koanf:"rate_limit"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuit_breaker"`
}

// RateLimitConfig holds outbound rate limiting settings. A zero
// RequestsPerSecond disables limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	BurstSize         int     `koanf:"burst_size"`
}

// CircuitBreakerConfig holds circuit breaker settings.
type CircuitBreakerConfig struct {
	MaxFailures   int           `koanf:"max_failures"`
	Timeout       time.Duration `koanf:"timeout"`
	HalfOpenLimit int           `koanf:"half_open_limit"`
}
