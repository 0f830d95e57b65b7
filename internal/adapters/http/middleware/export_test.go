package middleware

import "time"

// SetClock replaces the clock used for timing, for deterministic tests.
func SetClock(o *Options, now func() time.Time) { o.now = now }

// SetErrorClock is SetClock for ErrorOptions.
func SetErrorClock(o *ErrorOptions, now func() time.Time) { o.now = now }
