package config

const (
	defaultServerPort = 8080

	defaultQueueSize = 1024
	defaultWorkers   = 4

	defaultCircuitBreakerMaxFailures = 5
	defaultCircuitBreakerHalfOpen    = 1

	maxBodyLimit = 64 << 20
)

// defaults returns the default configuration values.
// These are loaded first and can be overridden by base.yaml, profile YAML, and env vars.
func defaults() map[string]any {
	return map[string]any{
		"server.host":          "0.0.0.0",
		"server.port":          defaultServerPort,
		"server.read_timeout":  "5s",
		"server.write_timeout": "10s",
		"server.idle_timeout":  "120s",

		"log.level":  "info",
		"log.format": "json",

		"telemetry.enabled":      false,
		"telemetry.exporter":     "stdout",
		"telemetry.endpoint":     "",
		"telemetry.service_name": "reqlog",

		"request_log.request_allow":  []string{"url", "headers", "method", "httpVersion", "originalUrl", "query"},
		"request_log.response_allow": []string{"statusCode"},
		"request_log.request_deny":   []string{},
		"request_log.body_allow":     []string{},
		"request_log.body_deny":      []string{},
		"request_log.ignored_routes": []string{},
		"request_log.level":          "info",
		"request_log.msg":            "HTTP {{req.method}} {{req.url}}",
		"request_log.request_field":  "req",
		"request_log.response_field": "res",
		"request_log.max_body_bytes": "64KiB",

		"dispatch.queue_size":       defaultQueueSize,
		"dispatch.workers":          defaultWorkers,
		"dispatch.shutdown_timeout": "5s",
		"dispatch.stdout":           true,

		"collector.enabled":                         false,
		"collector.path":                            "/v1/logs",
		"collector.timeout":                         "5s",
		"collector.circuit_breaker.max_failures":    defaultCircuitBreakerMaxFailures,
		"collector.circuit_breaker.timeout":         "30s",
		"collector.circuit_breaker.half_open_limit": defaultCircuitBreakerHalfOpen,
	}
}
