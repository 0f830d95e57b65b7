package reqlog

import "errors"

// Sentinel errors for errors.Is() checking. Construction-time validation in
// the middleware and dispatcher wraps these.
var (
	ErrNoBackend        = errors.New("at least one log backend is required")
	ErrNoDispatcher     = errors.New("dispatcher is required")
	ErrEmptyLevel       = errors.New("level must not be empty")
	ErrInvalidTemplate  = errors.New("invalid message template")
	ErrInvalidMetaField = errors.New("invalid meta field path")
	ErrInvalidBodyLimit = errors.New("body limit must not be negative")
)
