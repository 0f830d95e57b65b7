package reqlog

import "net/http"

// Default level names.
const (
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// LevelFunc computes a level from the exchange. Its result is used verbatim.
type LevelFunc func(x *Exchange) string

// StatusLevels maps status-code tiers to level names. Empty fields fall back
// to info, warn and error respectively.
type StatusLevels struct {
	Success string `koanf:"success"`
	Warn    string `koanf:"warn"`
	Error   string `koanf:"error"`
}

// DefaultStatusLevels returns the info/warn/error tiers.
func DefaultStatusLevels() StatusLevels {
	return StatusLevels{Success: LevelInfo, Warn: LevelWarn, Error: LevelError}
}

// For returns the tier for status. Thresholds are applied in ascending
// order, each match overwriting the previous one, so a 500 always lands on
// the error tier. Status codes below 100 match no tier.
func (s StatusLevels) For(status int) (string, bool) {
	var level string
	if status >= http.StatusContinue {
		level = orDefault(s.Success, LevelInfo)
	}
	if status >= http.StatusBadRequest {
		level = orDefault(s.Warn, LevelWarn)
	}
	if status >= http.StatusInternalServerError {
		level = orDefault(s.Error, LevelError)
	}
	return level, level != ""
}

// LevelResolver picks the level for an entry: Func first, then Tiers, then
// Static.
type LevelResolver struct {
	Static string
	Func   LevelFunc
	Tiers  *StatusLevels
}

// Resolve returns the level for x.
func (r LevelResolver) Resolve(x *Exchange) string {
	if r.Func != nil {
		return r.Func(x)
	}
	if r.Tiers != nil {
		if level, ok := r.Tiers.For(x.Status); ok {
			return level
		}
	}
	return r.Static
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
