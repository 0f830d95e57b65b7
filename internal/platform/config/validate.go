package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks all configuration values and returns aggregated errors.
func (c *Config) Validate() error {
	return errors.Join(
		c.Server.validate(),
		c.Log.validate(),
		c.Telemetry.validate(),
		c.RequestLog.validate(),
		c.Dispatch.validate(),
		c.Collector.validate(),
	)
}

func (s *ServerConfig) validate() error {
	var errs []error

	if s.Port < 1 || s.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", s.Port))
	}
	if s.ReadTimeout <= 0 {
		errs = append(errs, errors.New("server.read_timeout must be positive"))
	}
	if s.WriteTimeout <= 0 {
		errs = append(errs, errors.New("server.write_timeout must be positive"))
	}

	return errors.Join(errs...)
}

func (l *LogConfig) validate() error {
	var errs []error

	switch l.Level {
	case "debug", "info", "warn", "error":
		// Valid levels.
	default:
		errs = append(errs, fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", l.Level))
	}

	switch l.Format {
	case "json", "text":
		// Valid formats.
	default:
		errs = append(errs, fmt.Errorf("log.format must be one of: json, text; got %q", l.Format))
	}

	return errors.Join(errs...)
}

func (t *TelemetryConfig) validate() error {
	if !t.Enabled {
		return nil
	}

	var errs []error

	switch t.Exporter {
	case "stdout", "otlp":
		// Valid exporters.
	default:
		errs = append(errs, fmt.Errorf("telemetry.exporter must be one of: stdout, otlp; got %q", t.Exporter))
	}

	if t.Exporter == "otlp" && t.Endpoint == "" {
		errs = append(errs, errors.New("telemetry.endpoint must not be empty when exporter is otlp"))
	}

	return errors.Join(errs...)
}

func (r *RequestLogConfig) validate() error {
	var errs []error

	if strings.TrimSpace(r.Level) == "" {
		errs = append(errs, errors.New("request_log.level must not be empty"))
	}
	if len(r.RequestAllow) == 0 {
		errs = append(errs, errors.New("request_log.request_allow must list at least one field"))
	}
	if r.MetaField != "" {
		for seg := range strings.SplitSeq(r.MetaField, ".") {
			if seg == "" {
				errs = append(errs, fmt.Errorf("request_log.meta_field has an empty segment: %q", r.MetaField))
				break
			}
		}
	}
	if _, err := r.BodyLimit(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (d *DispatchConfig) validate() error {
	var errs []error

	if d.QueueSize < 1 {
		errs = append(errs, fmt.Errorf("dispatch.queue_size must be >= 1, got %d", d.QueueSize))
	}
	if d.Workers < 1 {
		errs = append(errs, fmt.Errorf("dispatch.workers must be >= 1, got %d", d.Workers))
	}
	if d.FanOut < 0 {
		errs = append(errs, fmt.Errorf("dispatch.fan_out must be >= 0, got %d", d.FanOut))
	}
	if d.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("dispatch.shutdown_timeout must be positive"))
	}

	return errors.Join(errs...)
}

func (cl *CollectorConfig) validate() error {
	if !cl.Enabled {
		return nil
	}

	var errs []error

	if u, err := url.Parse(cl.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("collector.base_url must be an absolute URL, got %q", cl.BaseURL))
	}
	if !strings.HasPrefix(cl.Path, "/") {
		errs = append(errs, fmt.Errorf("collector.path must start with /, got %q", cl.Path))
	}
	if cl.Timeout <= 0 {
		errs = append(errs, errors.New("collector.timeout must be positive"))
	}
	if cl.RateLimit.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("collector.rate_limit.requests_per_second must be >= 0, got %g",
			cl.RateLimit.RequestsPerSecond))
	}
	if cl.RateLimit.RequestsPerSecond > 0 && cl.RateLimit.BurstSize < 1 {
		errs = append(errs, fmt.Errorf("collector.rate_limit.burst_size must be >= 1 when rate limiting, got %d",
			cl.RateLimit.BurstSize))
	}
	if cl.CircuitBreaker.MaxFailures < 1 {
		errs = append(errs, fmt.Errorf("collector.circuit_breaker.max_failures must be >= 1, got %d",
			cl.CircuitBreaker.MaxFailures))
	}

	return errors.Join(errs...)
}
