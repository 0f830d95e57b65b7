package ports

import "context"

// HealthChecker is implemented by components whose failure should take the
// service out of rotation: the entry dispatcher and remote log backends.
type HealthChecker interface {
	// Name identifies the component in readiness output (e.g. "dispatcher",
	// "collector").
	Name() string

	// HealthCheck returns nil when healthy. The registry bounds each call
	// with a timeout carried on ctx.
	HealthCheck(ctx context.Context) error
}

// HealthRegistry collects checkers at startup and runs them on each
// readiness probe.
type HealthRegistry interface {
	Register(checker HealthChecker)

	// CheckAll returns one result per checker name; nil means healthy.
	CheckAll(ctx context.Context) map[string]error
}
