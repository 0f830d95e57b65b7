// Package slogbackend writes log entries to a *slog.Logger.
//
// Entry levels are free-form strings. They are mapped onto slog levels as
// follows; anything unrecognized is written at Info with the original name
// kept in a "level_name" attribute:
//
//	silly, verbose, debug -> Debug
//	info, http            -> Info
//	warn, warning         -> Warn
//	error                 -> Error
package slogbackend

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/jsamuelsen11/go-reqlog/internal/ports"
)

// DefaultName identifies the backend in metrics and health output.
const DefaultName = "slog"

// Compile-time interface check.
var _ ports.LogBackend = (*Backend)(nil)

// Backend is a [ports.LogBackend] backed by a structured logger.
type Backend struct {
	name   string
	logger *slog.Logger
}

// New returns a Backend writing through logger. An empty name selects
// DefaultName.
func New(name string, logger *slog.Logger) *Backend {
	if name == "" {
		name = DefaultName
	}
	return &Backend{name: name, logger: logger}
}

// Name implements [ports.LogBackend].
func (b *Backend) Name() string { return b.name }

// Log implements [ports.LogBackend]. Nested maps in meta become slog groups
// so handlers render them as structured objects.
func (b *Backend) Log(ctx context.Context, level, msg string, meta map[string]any) error {
	lvl, known := mapLevel(level)

	attrs := attrsFrom(meta)
	if !known {
		attrs = append(attrs, slog.String("level_name", level))
	}

	b.logger.LogAttrs(ctx, lvl, msg, attrs...)
	return nil
}

func mapLevel(level string) (slog.Level, bool) {
	switch strings.ToLower(level) {
	case "silly", "verbose", "debug":
		return slog.LevelDebug, true
	case "info", "http":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

func attrsFrom(m map[string]any) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		attrs = append(attrs, attrFrom(k, m[k]))
	}
	return attrs
}

func attrFrom(key string, v any) slog.Attr {
	if nested, ok := v.(map[string]any); ok {
		return slog.Attr{Key: key, Value: slog.GroupValue(attrsFrom(nested)...)}
	}
	return slog.Any(key, v)
}
