package ports

import "context"

// LogBackend defines the client port for a log destination (a "transport").
// Implemented by outbound adapters under adapters/backend; called by the
// dispatcher, never directly by the HTTP pipeline.
type LogBackend interface {
	// Name returns a short identifier for metrics and health reporting
	// (e.g., "slog", "collector").
	Name() string

	// Log writes one entry. Errors are counted by the caller and otherwise
	// discarded; they never reach the HTTP response.
	// Implementations should respect context cancellation and deadlines.
	Log(ctx context.Context, level, msg string, meta map[string]any) error
}
