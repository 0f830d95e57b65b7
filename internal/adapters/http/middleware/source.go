package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jsamuelsen11/go-reqlog/internal/domain/reqlog"
)

// requestView builds the unfiltered request object projections read from.
// Header names are lowercased and repeated values joined with ", ".
func requestView(r *http.Request, body any) map[string]any {
	view := map[string]any{
		"url":         r.URL.RequestURI(),
		"originalUrl": r.RequestURI,
		"path":        r.URL.Path,
		"method":      r.Method,
		"httpVersion": httpVersion(r),
		"protocol":    scheme(r),
		"host":        r.Host,
		"remoteAddr":  r.RemoteAddr,
		"ip":          clientIP(r),
		"headers":     headerView(r.Header),
		"query":       reqlog.ValuesMap(r.URL.Query()),
	}
	if view["originalUrl"] == "" {
		view["originalUrl"] = view["url"]
	}
	if id := RequestIDFromContext(r.Context()); id != "" {
		view["requestId"] = id
	}
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			view["route"] = pattern
		}
		if len(rctx.URLParams.Keys) > 0 {
			params := make(map[string]any, len(rctx.URLParams.Keys))
			for i, k := range rctx.URLParams.Keys {
				params[k] = rctx.URLParams.Values[i]
			}
			view["params"] = params
		}
	}
	if body != nil {
		view["body"] = body
	}
	return view
}

// responseView builds the unfiltered response object.
func responseView(cw *captureWriter, w http.ResponseWriter, responseTime int64, body any) map[string]any {
	view := map[string]any{
		"statusCode":   cw.Status(),
		"responseTime": responseTime,
		"headers":      headerView(w.Header()),
	}
	if body != nil {
		view["body"] = body
	}
	return view
}

func headerView(h http.Header) map[string]any {
	out := make(map[string]any, len(h))
	for name, vals := range h {
		if len(vals) == 0 {
			continue
		}
		key := strings.ToLower(name)
		if prev, ok := out[key].(string); ok {
			out[key] = prev + ", " + strings.Join(vals, ", ")
			continue
		}
		out[key] = strings.Join(vals, ", ")
	}
	return out
}

func httpVersion(r *http.Request) string {
	return strings.TrimPrefix(r.Proto, "HTTP/")
}

func scheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
