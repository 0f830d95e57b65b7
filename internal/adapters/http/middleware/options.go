package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/jsamuelsen11/go-reqlog/internal/domain/reqlog"
	"github.com/jsamuelsen11/go-reqlog/internal/platform/exception"
)

// DefaultRequestAllow returns the request allow-list used when none is
// given. Each call returns a fresh slice.
func DefaultRequestAllow() []string {
	return []string{"url", "headers", "method", "httpVersion", "originalUrl", "query"}
}

// DefaultResponseAllow returns the response allow-list used when none is
// given. Each call returns a fresh slice.
func DefaultResponseAllow() []string {
	return []string{"statusCode"}
}

// Options configures RequestLogger. The zero value logs the default request
// and response fields at info level under the top-level "req" and "res"
// keys.
type Options struct {
	// RequestAllow lists request view paths to log. Nil selects
	// DefaultRequestAllow; an empty non-nil slice logs no request fields.
	RequestAllow []string
	// RequestDeny trims paths nested below an allowed request path.
	RequestDeny []string
	// ResponseAllow lists response view paths. Nil selects
	// DefaultResponseAllow. Including "body" enables response body capture.
	ResponseAllow []string
	// BodyAllow and BodyDeny filter the request body's top-level fields.
	BodyAllow []string
	BodyDeny  []string
	// HeaderDenylist names headers removed from logged "headers". Nil
	// selects DefaultHeaderDenylist.
	HeaderDenylist []string

	// RequestFilter and ResponseFilter replace the default path accessor.
	// With a custom RequestFilter the header denylist is not applied.
	RequestFilter  reqlog.Accessor
	ResponseFilter reqlog.Accessor

	// IgnoredRoutes are exact request paths that are never logged.
	IgnoredRoutes []string
	// IgnoreRoute is consulted before the handler runs.
	IgnoreRoute func(r *http.Request) bool
	// Skip is consulted after the response is known.
	Skip reqlog.Predicate

	Level        string
	LevelFunc    reqlog.LevelFunc
	StatusLevels *reqlog.StatusLevels

	Msg           string
	MsgFunc       reqlog.MessageFunc
	ExpressFormat bool
	Colorize      bool

	// MetaField nests the metadata under a dotted path. MetaPath is the
	// explicit segment form and wins when both are set.
	MetaField string
	MetaPath  []string

	RequestField      string
	OmitRequestField  bool
	ResponseField     string
	OmitResponseField bool

	DynamicMeta reqlog.MetaFunc
	BaseMeta    map[string]any
	DisableMeta bool

	// MaxBodyBytes bounds captured request and response bodies. Zero
	// selects DefaultMaxBodyBytes.
	MaxBodyBytes int64

	// AllowFilterOutAllowlistedRequestBody lets a custom RequestFilter drop
	// the body even when body fields are allow-listed.
	AllowFilterOutAllowlistedRequestBody bool

	now func() time.Time
}

// ErrorOptions configures ErrorLogger. The zero value logs at error level
// with the message "middlewareError" and the default request fields.
type ErrorOptions struct {
	RequestAllow   []string
	RequestDeny    []string
	HeaderDenylist []string
	RequestFilter  reqlog.Accessor

	Level     string
	LevelFunc reqlog.LevelFunc
	Msg       string
	MsgFunc   reqlog.MessageFunc

	MetaField        string
	MetaPath         []string
	RequestField     string
	OmitRequestField bool

	DynamicMeta reqlog.MetaFunc
	BaseMeta    map[string]any
	Skip        reqlog.Predicate

	// ExceptionToMeta turns the error into top-level metadata. Nil selects
	// exception.Collect.
	ExceptionToMeta func(err error) map[string]any
	// BlacklistedMetaFields are removed from the exception metadata.
	BlacklistedMetaFields []string

	now func() time.Time
}

// placement is the resolved section layout shared by both loggers.
type placement struct {
	nesting     []string
	requestKey  string
	responseKey string
}

func resolveNesting(field string, path []string) ([]string, error) {
	if path != nil {
		if err := reqlog.ValidateNestingPath(path); err != nil {
			return nil, fmt.Errorf("meta path %q: %w", path, err)
		}
		return slices.Clone(path), nil
	}
	return reqlog.ParseNestingPath(field)
}

// defaultLevel fills an unset level. A level made only of whitespace is
// rejected since no backend recognizes it.
func defaultLevel(level *string, fn reqlog.LevelFunc, def string) error {
	switch {
	case fn != nil:
		return nil
	case *level == "":
		*level = def
	case strings.TrimSpace(*level) == "":
		return fmt.Errorf("level %q: %w", *level, reqlog.ErrEmptyLevel)
	default:
	}
	return nil
}

func sectionKey(name string, omit bool, def string) string {
	switch {
	case omit:
		return ""
	case name == "":
		return def
	default:
		return name
	}
}

func orList(v, def []string) []string {
	if v == nil {
		return def
	}
	return slices.Clone(v)
}

func (o *Options) normalize() (placement, *reqlog.Formatter, error) {
	var errs []error

	if err := defaultLevel(&o.Level, o.LevelFunc, reqlog.LevelInfo); err != nil {
		errs = append(errs, err)
	}
	if o.MaxBodyBytes < 0 {
		errs = append(errs, fmt.Errorf("max body bytes %d: %w", o.MaxBodyBytes, reqlog.ErrInvalidBodyLimit))
	}
	if o.MaxBodyBytes == 0 {
		o.MaxBodyBytes = DefaultMaxBodyBytes
	}

	o.RequestAllow = orList(o.RequestAllow, DefaultRequestAllow())
	o.ResponseAllow = orList(o.ResponseAllow, DefaultResponseAllow())
	o.HeaderDenylist = orList(o.HeaderDenylist, DefaultHeaderDenylist())
	if o.now == nil {
		o.now = time.Now
	}

	nesting, err := resolveNesting(o.MetaField, o.MetaPath)
	if err != nil {
		errs = append(errs, err)
	}

	f, err := reqlog.NewFormatter(reqlog.FormatterConfig{
		Template: o.Msg,
		Func:     o.MsgFunc,
		Express:  o.ExpressFormat,
		Colorize: o.Colorize,
	})
	if err != nil {
		errs = append(errs, err)
	}

	p := placement{
		nesting:     nesting,
		requestKey:  sectionKey(o.RequestField, o.OmitRequestField, reqlog.DefaultRequestKey),
		responseKey: sectionKey(o.ResponseField, o.OmitResponseField, reqlog.DefaultResponseKey),
	}
	return p, f, errors.Join(errs...)
}

func (o *ErrorOptions) normalize() (placement, *reqlog.Formatter, error) {
	var errs []error

	if err := defaultLevel(&o.Level, o.LevelFunc, reqlog.LevelError); err != nil {
		errs = append(errs, err)
	}
	if o.Msg == "" {
		o.Msg = reqlog.ErrorMessage
	}
	if o.ExceptionToMeta == nil {
		o.ExceptionToMeta = exception.Collect
	}

	o.RequestAllow = orList(o.RequestAllow, DefaultRequestAllow())
	o.HeaderDenylist = orList(o.HeaderDenylist, DefaultHeaderDenylist())
	if o.now == nil {
		o.now = time.Now
	}

	nesting, err := resolveNesting(o.MetaField, o.MetaPath)
	if err != nil {
		errs = append(errs, err)
	}

	f, err := reqlog.NewFormatter(reqlog.FormatterConfig{Template: o.Msg, Func: o.MsgFunc})
	if err != nil {
		errs = append(errs, err)
	}

	p := placement{
		nesting:    nesting,
		requestKey: sectionKey(o.RequestField, o.OmitRequestField, reqlog.DefaultRequestKey),
	}
	return p, f, errors.Join(errs...)
}
