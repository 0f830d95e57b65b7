package reqlog

import (
	"fmt"
	"net/http"
	"time"
)

// Entry is a single structured log record handed to backends.
type Entry struct {
	Level   string
	Message string
	Meta    map[string]any
	Time    time.Time
}

// Exchange is the per-request view passed to callbacks and templates. Req and
// Res are the unfiltered request and response views; Res is nil on the error
// path. Status is zero until a response status is known.
type Exchange struct {
	Request  *http.Request
	Req      map[string]any
	Res      map[string]any
	Status   int
	Start    time.Time
	Duration time.Duration
	Err      error
}

// MetaFunc returns extra fields merged into an entry's metadata.
type MetaFunc func(x *Exchange) map[string]any

// Predicate decides whether a request is ignored or an entry is skipped.
type Predicate func(x *Exchange) bool

// ResponseTimeMillis returns the elapsed time in whole milliseconds.
func (x *Exchange) ResponseTimeMillis() int64 {
	return x.Duration.Milliseconds()
}

// TemplateData is the root object message placeholders resolve against.
func (x *Exchange) TemplateData() map[string]any {
	data := map[string]any{
		"req":  x.Req,
		"res":  x.Res,
		"date": CLFDate(x.Start),
	}
	if x.Err != nil {
		data["err"] = map[string]any{
			"message": x.Err.Error(),
			"type":    fmt.Sprintf("%T", x.Err),
		}
	}
	return data
}

// clfLayout is the Common Log Format timestamp, always rendered in UTC.
const clfLayout = "02/Jan/2006:15:04:05 +0000"

// CLFDate formats t as a Common Log Format timestamp.
func CLFDate(t time.Time) string {
	return t.UTC().Format(clfLayout)
}
