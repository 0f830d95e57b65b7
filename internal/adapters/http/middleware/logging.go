package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/jsamuelsen11/go-reqlog/internal/domain/reqlog"
	"github.com/jsamuelsen11/go-reqlog/internal/platform/logging"
	"github.com/jsamuelsen11/go-reqlog/internal/ports"
)

// ContextLogger returns middleware that stores a child of logger enriched
// with the request ID in the request context, for handlers that log through
// logging.FromContext. It must run after RequestID.
func ContextLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			child := logger.With(slog.String("request_id", RequestIDFromContext(ctx)))
			next.ServeHTTP(w, r.WithContext(logging.WithLogger(ctx, child)))
		})
	}
}

// RequestLogger emits one entry per request after the response has been
// written to the client. It is safe for concurrent use; per-request state
// lives in the request context and the wrapped writer.
type RequestLogger struct {
	dispatcher ports.EntryDispatcher
	opts       Options
	place      placement
	formatter  *reqlog.Formatter
	levels     reqlog.LevelResolver
	headerDeny reqlog.HeaderDenylist
	ignored    map[string]struct{}
}

// NewRequestLogger validates opts and returns a logger that hands entries to
// d. All configuration problems are reported together.
func NewRequestLogger(d ports.EntryDispatcher, opts Options) (*RequestLogger, error) {
	place, formatter, err := opts.normalize()
	if d == nil {
		err = errors.Join(err, reqlog.ErrNoDispatcher)
	}
	if err != nil {
		return nil, fmt.Errorf("request logger: %w", err)
	}

	ignored := make(map[string]struct{}, len(opts.IgnoredRoutes))
	for _, p := range opts.IgnoredRoutes {
		ignored[p] = struct{}{}
	}

	return &RequestLogger{
		dispatcher: d,
		opts:       opts,
		place:      place,
		formatter:  formatter,
		levels: reqlog.LevelResolver{
			Static: opts.Level,
			Func:   opts.LevelFunc,
			Tiers:  opts.StatusLevels,
		},
		headerDeny: reqlog.NewHeaderDenylist(opts.HeaderDenylist...),
		ignored:    ignored,
	}, nil
}

// Handler is the middleware form of the logger. Ignored requests pass
// straight through; everything else is logged once the handler returns and
// the response has been flushed.
func (l *RequestLogger) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.ignore(r) {
			next.ServeHTTP(w, r)
			return
		}

		start := l.opts.now()
		rf := &RouteFilters{}
		r = r.WithContext(withRouteFilters(r.Context(), rf))
		r = teeRequestBody(r, l.opts.MaxBodyBytes)

		cw, wrapped, r := capture(w, r, l.opts.MaxBodyBytes, func() bool {
			return rf.allowsResponseBody(l.opts.ResponseAllow)
		})
		cw.holdUntilFinalize(r.Method)
		cw.OnFinalize(func() { l.log(r, cw, w, rf, start) })
		defer cw.finalize()

		next.ServeHTTP(wrapped, r)
	})
}

func (l *RequestLogger) ignore(r *http.Request) bool {
	if _, ok := l.ignored[r.URL.Path]; ok {
		return true
	}
	return l.opts.IgnoreRoute != nil && l.opts.IgnoreRoute(r)
}

func (l *RequestLogger) log(r *http.Request, cw *captureWriter, w http.ResponseWriter, rf *RouteFilters, start time.Time) {
	duration := l.opts.now().Sub(start)
	responseTime := duration.Milliseconds()

	var rawBody any
	if raw, ok := capturedRequestBody(r); ok {
		rawBody = reqlog.DecodeBody(raw, r.Header.Get("Content-Type"))
	}
	req := requestView(r, rawBody)
	mergeFields(req, rf.requestFields)

	responseAllow := concat(l.opts.ResponseAllow, rf.ResponseAllow)
	var resBody any
	if slices.Contains(responseAllow, "body") {
		resBody = reqlog.DecodeBody(cw.Body(), w.Header().Get("Content-Type"))
	}
	res := responseView(cw, w, responseTime, resBody)
	mergeFields(res, rf.responseFields)

	x := &reqlog.Exchange{
		Request:  r,
		Req:      req,
		Res:      res,
		Status:   cw.Status(),
		Start:    start,
		Duration: duration,
	}

	entry := reqlog.Entry{
		Level:   l.levels.Resolve(x),
		Message: l.formatter.Format(x),
		Meta:    map[string]any{},
		Time:    start,
	}

	if !l.opts.DisableMeta {
		entry.Meta = l.meta(x, rf, responseAllow, responseTime)
	}

	if l.opts.Skip != nil && l.opts.Skip(x) {
		return
	}
	l.dispatcher.Dispatch(r.Context(), entry)
}

func (l *RequestLogger) meta(x *reqlog.Exchange, rf *RouteFilters, responseAllow []string, responseTime int64) map[string]any {
	requestAllow := concat(l.opts.RequestAllow, rf.RequestAllow)

	parts := reqlog.Parts{
		RequestKey:  l.place.requestKey,
		ResponseKey: l.place.responseKey,
		Base:        l.opts.BaseMeta,
	}

	if parts.RequestKey != "" {
		parts.Request = l.projectRequest(x.Req, requestAllow, rf)
	}
	if parts.ResponseKey != "" {
		parts.Response = reqlog.Project(x.Res, reqlog.FilterSpec{Allow: responseAllow}, l.opts.ResponseFilter, l.headerDeny)
	}
	if !slices.Contains(responseAllow, reqlog.ResponseTimeKey) {
		parts.ResponseTime = &responseTime
	}
	if l.opts.DynamicMeta != nil {
		parts.Dynamic = l.opts.DynamicMeta(x)
	}
	return reqlog.Assemble(parts, l.place.nesting)
}

// projectRequest filters the request view. The body is handled apart from
// the other fields because body allow/deny lists apply to its keys.
func (l *RequestLogger) projectRequest(view map[string]any, allow []string, rf *RouteFilters) map[string]any {
	fields := slices.DeleteFunc(slices.Clone(allow), func(p string) bool { return p == "body" })
	spec := reqlog.FilterSpec{Allow: fields, Deny: l.opts.RequestDeny}
	out := reqlog.Project(view, spec, l.opts.RequestFilter, l.headerDeny)

	body, ok := l.projectBody(view, allow, rf)
	if !ok {
		return out
	}
	if out == nil {
		out = make(map[string]any, 1)
	}
	out["body"] = body
	return out
}

func (l *RequestLogger) projectBody(view map[string]any, allow []string, rf *RouteFilters) (any, bool) {
	raw, ok := view["body"]
	if !ok {
		return nil, false
	}
	if l.opts.AllowFilterOutAllowlistedRequestBody && l.opts.RequestFilter != nil {
		if _, keep := l.opts.RequestFilter(view, "body"); !keep {
			return nil, false
		}
	}
	bodyAllow := concat(l.opts.BodyAllow, rf.BodyAllow)
	bodyDeny := concat(l.opts.BodyDeny, rf.BodyDeny)
	return reqlog.ProjectBody(raw, allow, bodyAllow, bodyDeny, l.opts.RequestFilter)
}

func concat(base, extra []string) []string {
	if len(extra) == 0 {
		return base
	}
	return append(slices.Clip(base), extra...)
}
