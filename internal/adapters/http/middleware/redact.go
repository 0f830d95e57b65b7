package middleware

import (
	"maps"
	"slices"

	"github.com/jsamuelsen11/go-reqlog/internal/platform/logging"
)

// DefaultHeaderDenylist returns the header names dropped from logged request
// and response headers when no denylist is configured. It is the same set
// the service logger redacts, sorted for stable output.
func DefaultHeaderDenylist() []string {
	return slices.Sorted(maps.Keys(logging.SensitiveHeaders))
}
