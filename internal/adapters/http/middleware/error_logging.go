package middleware

import (
	"errors"
	"fmt"
	"maps"
	"net/http"

	"github.com/jsamuelsen11/go-reqlog/internal/adapters/http/dto"
	"github.com/jsamuelsen11/go-reqlog/internal/domain/reqlog"
	"github.com/jsamuelsen11/go-reqlog/internal/ports"
)

// ErrorHandler handles an error raised while serving a request. Handlers in
// an error chain pass the same error along to the next one.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// HandleErrors adapts a handler that returns an error. A non-nil error is
// passed to onErr; a nil onErr falls back to WriteError.
func HandleErrors(fn func(w http.ResponseWriter, r *http.Request) error, onErr ErrorHandler) http.Handler {
	if onErr == nil {
		onErr = WriteError
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			onErr(w, r, err)
		}
	})
}

// WriteError terminates an error chain with an RFC 9457 problem response.
// Nothing is written when the handler already started the response.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	if cw := captureFromContext(r.Context()); cw != nil && cw.headerWritten {
		return
	}
	dto.WriteErrorResponse(w, r, err)
}

// ErrorLogger emits one entry per error seen on an error chain.
type ErrorLogger struct {
	dispatcher ports.EntryDispatcher
	opts       ErrorOptions
	place      placement
	formatter  *reqlog.Formatter
	levels     reqlog.LevelResolver
	headerDeny reqlog.HeaderDenylist
}

// NewErrorLogger validates opts and returns a logger that hands entries to d.
func NewErrorLogger(d ports.EntryDispatcher, opts ErrorOptions) (*ErrorLogger, error) {
	place, formatter, err := opts.normalize()
	if d == nil {
		err = errors.Join(err, reqlog.ErrNoDispatcher)
	}
	if err != nil {
		return nil, fmt.Errorf("error logger: %w", err)
	}

	return &ErrorLogger{
		dispatcher: d,
		opts:       opts,
		place:      place,
		formatter:  formatter,
		levels:     reqlog.LevelResolver{Static: opts.Level, Func: opts.LevelFunc},
		headerDeny: reqlog.NewHeaderDenylist(opts.HeaderDenylist...),
	}, nil
}

// Wrap returns an ErrorHandler that logs err and then calls next with the
// identical error. A failure while logging never stops the chain.
func (l *ErrorLogger) Wrap(next ErrorHandler) ErrorHandler {
	if next == nil {
		next = WriteError
	}
	return func(w http.ResponseWriter, r *http.Request, err error) {
		runGuarded(func() { l.log(r, err) })
		next(w, r, err)
	}
}

func (l *ErrorLogger) log(r *http.Request, err error) {
	start := l.opts.now()

	var body any
	if raw, ok := capturedRequestBody(r); ok {
		body = reqlog.DecodeBody(raw, r.Header.Get("Content-Type"))
	}
	req := requestView(r, body)
	if rf := RouteFiltersFromContext(r.Context()); rf != nil {
		mergeFields(req, rf.requestFields)
	}

	x := &reqlog.Exchange{
		Request: r,
		Req:     req,
		Start:   start,
		Err:     err,
	}

	parts := reqlog.Parts{
		Exception:  l.exceptionMeta(err),
		RequestKey: l.place.requestKey,
		Base:       l.opts.BaseMeta,
	}
	if parts.RequestKey != "" {
		spec := reqlog.FilterSpec{Allow: l.opts.RequestAllow, Deny: l.opts.RequestDeny}
		parts.Request = reqlog.Project(req, spec, l.opts.RequestFilter, l.headerDeny)
	}
	if l.opts.DynamicMeta != nil {
		parts.Dynamic = l.opts.DynamicMeta(x)
	}

	entry := reqlog.Entry{
		Level:   l.levels.Resolve(x),
		Message: l.formatter.Format(x),
		Meta:    reqlog.Assemble(parts, l.place.nesting),
		Time:    start,
	}

	if l.opts.Skip != nil && l.opts.Skip(x) {
		return
	}
	l.dispatcher.Dispatch(r.Context(), entry)
}

func (l *ErrorLogger) exceptionMeta(err error) map[string]any {
	meta := l.opts.ExceptionToMeta(err)
	if len(l.opts.BlacklistedMetaFields) == 0 || meta == nil {
		return meta
	}
	meta = maps.Clone(meta)
	for _, f := range l.opts.BlacklistedMetaFields {
		delete(meta, f)
	}
	return meta
}
