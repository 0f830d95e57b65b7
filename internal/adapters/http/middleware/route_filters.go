package middleware

import (
	"context"
	"net/http"
	"slices"

	"github.com/jsamuelsen11/go-reqlog/internal/domain/reqlog"
)

// RouteFilters holds per-request additions to the request logger's
// projection. A fresh value is installed by RequestLogger for each request;
// handlers extend it through the helpers below. It is read once, after the
// handler returns.
type RouteFilters struct {
	RequestAllow  []string
	ResponseAllow []string
	BodyAllow     []string
	BodyDeny      []string

	requestFields  map[string]any
	responseFields map[string]any
}

type routeFiltersKey struct{}

func withRouteFilters(ctx context.Context, rf *RouteFilters) context.Context {
	return context.WithValue(ctx, routeFiltersKey{}, rf)
}

// RouteFiltersFromContext returns the filters installed for the request, or
// nil when the request is not being logged.
func RouteFiltersFromContext(ctx context.Context) *RouteFilters {
	rf, _ := ctx.Value(routeFiltersKey{}).(*RouteFilters)
	return rf
}

// AllowRequestFields adds request view paths to this request's allow-list.
func AllowRequestFields(r *http.Request, paths ...string) {
	if rf := RouteFiltersFromContext(r.Context()); rf != nil {
		rf.RequestAllow = append(rf.RequestAllow, paths...)
	}
}

// AllowResponseFields adds response view paths to this request's allow-list.
// Adding "body" turns on response body capture.
func AllowResponseFields(r *http.Request, paths ...string) {
	if rf := RouteFiltersFromContext(r.Context()); rf != nil {
		rf.ResponseAllow = append(rf.ResponseAllow, paths...)
	}
}

// AllowBodyFields adds request body fields to this request's allow-list.
func AllowBodyFields(r *http.Request, fields ...string) {
	if rf := RouteFiltersFromContext(r.Context()); rf != nil {
		rf.BodyAllow = append(rf.BodyAllow, fields...)
	}
}

// DenyBodyFields adds request body fields to this request's deny-list.
func DenyBodyFields(r *http.Request, fields ...string) {
	if rf := RouteFiltersFromContext(r.Context()); rf != nil {
		rf.BodyDeny = append(rf.BodyDeny, fields...)
	}
}

// SetRequestField attaches a custom value to the request view at path and
// allows it, so it appears in the entry without further configuration.
func SetRequestField(r *http.Request, path string, v any) {
	rf := RouteFiltersFromContext(r.Context())
	if rf == nil || path == "" {
		return
	}
	if rf.requestFields == nil {
		rf.requestFields = make(map[string]any)
	}
	reqlog.Set(rf.requestFields, path, v)
	rf.RequestAllow = append(rf.RequestAllow, path)
}

// SetResponseField is SetRequestField for the response view.
func SetResponseField(r *http.Request, path string, v any) {
	rf := RouteFiltersFromContext(r.Context())
	if rf == nil || path == "" {
		return
	}
	if rf.responseFields == nil {
		rf.responseFields = make(map[string]any)
	}
	reqlog.Set(rf.responseFields, path, v)
	rf.ResponseAllow = append(rf.ResponseAllow, path)
}

func (rf *RouteFilters) allowsResponseBody(base []string) bool {
	return slices.Contains(base, "body") || slices.Contains(rf.ResponseAllow, "body")
}

// mergeFields copies custom fields into a view, overwriting collisions.
func mergeFields(view, fields map[string]any) {
	for k, v := range fields {
		if sub, ok := v.(map[string]any); ok {
			if dst, ok := view[k].(map[string]any); ok {
				mergeFields(dst, sub)
				continue
			}
		}
		view[k] = v
	}
}
