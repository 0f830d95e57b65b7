package middleware_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"

	"github.com/jsamuelsen11/go-reqlog/internal/adapters/http/middleware"
	"github.com/jsamuelsen11/go-reqlog/internal/domain/reqlog"
	"github.com/jsamuelsen11/go-reqlog/internal/platform/logging"
	"github.com/jsamuelsen11/go-reqlog/mocks"
)

func newRequestLogger(t *testing.T, opts middleware.Options) (*middleware.RequestLogger, *recordingDispatcher) {
	t.Helper()
	d := &recordingDispatcher{}
	middleware.SetClock(&opts, fixedClock())
	rl, err := middleware.NewRequestLogger(d, opts)
	if err != nil {
		t.Fatalf("NewRequestLogger() error = %v", err)
	}
	return rl, d
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func writeText(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func TestRequestLogger_DefaultEntry(t *testing.T) {
	t.Parallel()

	rl, d := newRequestLogger(t, middleware.Options{})
	rec := serve(rl.Handler(writeText(http.StatusOK, "hi")), httptest.NewRequest(http.MethodGet, "/hello", http.NoBody))

	if rec.Body.String() != "hi" {
		t.Errorf("client body = %q, want %q", rec.Body.String(), "hi")
	}

	e := d.only(t)
	if e.Level != "info" {
		t.Errorf("Level = %q, want %q", e.Level, "info")
	}
	if e.Message != "HTTP GET /hello" {
		t.Errorf("Message = %q, want %q", e.Message, "HTTP GET /hello")
	}

	req := section(t, e.Meta, "req")
	if req["method"] != "GET" {
		t.Errorf("req.method = %v, want GET", req["method"])
	}
	if req["url"] != "/hello" {
		t.Errorf("req.url = %v, want /hello", req["url"])
	}
	if _, ok := req["body"]; ok {
		t.Errorf("req.body = %v, want absent", req["body"])
	}

	res := section(t, e.Meta, "res")
	if res["statusCode"] != http.StatusOK {
		t.Errorf("res.statusCode = %v, want 200", res["statusCode"])
	}
	if e.Meta["responseTime"] != int64(0) {
		t.Errorf("responseTime = %#v, want int64(0)", e.Meta["responseTime"])
	}
}

func TestRequestLogger_StatusLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		want   string
	}{
		{status: http.StatusOK, want: "info"},
		{status: http.StatusFound, want: "info"},
		{status: http.StatusForbidden, want: "warn"},
		{status: http.StatusServiceUnavailable, want: "error"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			t.Parallel()

			levels := reqlog.DefaultStatusLevels()
			rl, d := newRequestLogger(t, middleware.Options{StatusLevels: &levels})
			serve(rl.Handler(writeText(tt.status, "")), httptest.NewRequest(http.MethodGet, "/", http.NoBody))

			if got := d.only(t).Level; got != tt.want {
				t.Errorf("Level = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequestLogger_LevelFuncWins(t *testing.T) {
	t.Parallel()

	levels := reqlog.DefaultStatusLevels()
	rl, d := newRequestLogger(t, middleware.Options{
		StatusLevels: &levels,
		LevelFunc:    func(*reqlog.Exchange) string { return "http" },
	})
	serve(rl.Handler(writeText(http.StatusInternalServerError, "")), httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	if got := d.only(t).Level; got != "http" {
		t.Errorf("Level = %q, want %q", got, "http")
	}
}

func TestRequestLogger_ResponseBody(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		contentType string
		body        string
		want        any
	}{
		{name: "json is decoded", contentType: "application/json", body: `{"ok":true}`, want: map[string]any{"ok": true}},
		{name: "invalid json kept raw", contentType: "application/json", body: "}", want: "}"},
		{name: "text kept raw", contentType: "text/plain", body: "pong", want: "pong"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rl, d := newRequestLogger(t, middleware.Options{ResponseAllow: []string{"statusCode", "body"}})
			handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				_, _ = io.WriteString(w, tt.body)
			})
			rec := serve(rl.Handler(handler), httptest.NewRequest(http.MethodGet, "/", http.NoBody))

			if rec.Body.String() != tt.body {
				t.Errorf("client body = %q, want %q", rec.Body.String(), tt.body)
			}
			res := section(t, d.only(t).Meta, "res")
			if got := res["body"]; !equalJSONish(got, tt.want) {
				t.Errorf("res.body = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func equalJSONish(got, want any) bool {
	gm, gok := got.(map[string]any)
	wm, wok := want.(map[string]any)
	if gok && wok {
		if len(gm) != len(wm) {
			return false
		}
		for k, v := range wm {
			if gm[k] != v {
				return false
			}
		}
		return true
	}
	return got == want
}

func TestRequestLogger_ResponseBodyNotCapturedByDefault(t *testing.T) {
	t.Parallel()

	rl, d := newRequestLogger(t, middleware.Options{})
	serve(rl.Handler(writeText(http.StatusOK, `{"secret":1}`)), httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	res := section(t, d.only(t).Meta, "res")
	if _, ok := res["body"]; ok {
		t.Errorf("res.body = %v, want absent", res["body"])
	}
}

func TestRequestLogger_IgnoredRoutes(t *testing.T) {
	t.Parallel()

	rl, d := newRequestLogger(t, middleware.Options{
		IgnoredRoutes: []string{"/health/live"},
		IgnoreRoute:   func(r *http.Request) bool { return r.Method == http.MethodOptions },
	})

	tests := []struct {
		method string
		path   string
	}{
		{method: http.MethodGet, path: "/health/live"},
		{method: http.MethodOptions, path: "/api"},
	}
	for _, tt := range tests {
		called := false
		handler := rl.Handler(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
		serve(handler, httptest.NewRequest(tt.method, tt.path, http.NoBody))
		if !called {
			t.Errorf("%s %s: handler not called", tt.method, tt.path)
		}
	}

	if n := len(d.all()); n != 0 {
		t.Errorf("dispatched entries = %d, want 0", n)
	}
}

func TestRequestLogger_MetaNesting(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts middleware.Options
	}{
		{name: "dotted field", opts: middleware.Options{MetaField: "outer.inner"}},
		{name: "explicit path wins", opts: middleware.Options{MetaField: "ignored", MetaPath: []string{"outer", "inner"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rl, d := newRequestLogger(t, tt.opts)
			serve(rl.Handler(writeText(http.StatusOK, "")), httptest.NewRequest(http.MethodGet, "/", http.NoBody))

			meta := d.only(t).Meta
			if len(meta) != 1 {
				t.Errorf("top-level keys = %v, want only outer", meta)
			}
			inner := section(t, section(t, meta, "outer"), "inner")
			if _, ok := inner["req"]; !ok {
				t.Errorf("outer.inner = %v, want req section", inner)
			}
			if _, ok := inner["responseTime"]; !ok {
				t.Errorf("outer.inner = %v, want responseTime", inner)
			}
		})
	}
}

func TestRequestLogger_HeaderDenylist(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		denylist []string
		dropped  []string
		kept     []string
	}{
		{
			name:    "default denylist",
			dropped: []string{"authorization", "cookie"},
			kept:    []string{"x-custom"},
		},
		{
			name:     "configured names are case-insensitive",
			denylist: []string{"X-CUSTOM"},
			dropped:  []string{"x-custom"},
			kept:     []string{"authorization", "cookie"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rl, d := newRequestLogger(t, middleware.Options{HeaderDenylist: tt.denylist})
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			req.Header.Set("Authorization", "Bearer abc")
			req.Header.Set("Cookie", "sid=1")
			req.Header.Set("X-Custom", "yes")
			serve(rl.Handler(writeText(http.StatusOK, "")), req)

			headers := section(t, section(t, d.only(t).Meta, "req"), "headers")
			for _, h := range tt.dropped {
				if _, ok := headers[h]; ok {
					t.Errorf("headers[%q] present, want dropped", h)
				}
			}
			for _, h := range tt.kept {
				if _, ok := headers[h]; !ok {
					t.Errorf("headers[%q] missing, want kept", h)
				}
			}
		})
	}
}

func TestRequestLogger_RequestDenyTrimsNestedPath(t *testing.T) {
	t.Parallel()

	rl, d := newRequestLogger(t, middleware.Options{
		RequestAllow: []string{"method", "headers"},
		RequestDeny:  []string{"headers.accept", "method"},
	})
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set("Accept", "text/plain")
	req.Header.Set("X-Trace", "t1")
	serve(rl.Handler(writeText(http.StatusOK, "")), req)

	reqMeta := section(t, d.only(t).Meta, "req")
	if reqMeta["method"] != "GET" {
		t.Errorf("req.method = %v, want GET (allow wins over equal deny)", reqMeta["method"])
	}
	headers := section(t, reqMeta, "headers")
	if _, ok := headers["accept"]; ok {
		t.Error("headers.accept present, want trimmed")
	}
	if headers["x-trace"] != "t1" {
		t.Errorf("headers.x-trace = %v, want t1", headers["x-trace"])
	}
}

func TestRequestLogger_RouteFilters(t *testing.T) {
	t.Parallel()

	rl, d := newRequestLogger(t, middleware.Options{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.AllowRequestFields(r, "host")
		middleware.AllowResponseFields(r, "body")
		middleware.SetRequestField(r, "user.id", "42")
		middleware.SetResponseField(r, "cache", "miss")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"42"}`)
	})
	serve(rl.Handler(handler), httptest.NewRequest(http.MethodGet, "http://example.com/users/42", http.NoBody))

	meta := d.only(t).Meta
	req := section(t, meta, "req")
	if req["host"] != "example.com" {
		t.Errorf("req.host = %v, want example.com", req["host"])
	}
	if got := section(t, req, "user")["id"]; got != "42" {
		t.Errorf("req.user.id = %v, want 42", got)
	}
	res := section(t, meta, "res")
	if res["cache"] != "miss" {
		t.Errorf("res.cache = %v, want miss", res["cache"])
	}
	if got := section(t, res, "body")["id"]; got != "42" {
		t.Errorf("res.body.id = %v, want 42", got)
	}
}

func TestRequestLogger_RouteFiltersDoNotLeakBetweenRequests(t *testing.T) {
	t.Parallel()

	rl, d := newRequestLogger(t, middleware.Options{})
	first := true
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if first {
			middleware.AllowRequestFields(r, "host")
			first = false
		}
		w.WriteHeader(http.StatusOK)
	})
	serve(rl.Handler(handler), httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	serve(rl.Handler(handler), httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	entries := d.all()
	if len(entries) != 2 {
		t.Fatalf("dispatched entries = %d, want 2", len(entries))
	}
	if _, ok := section(t, entries[1].Meta, "req")["host"]; ok {
		t.Error("second request logged host, want route filters scoped to the first request")
	}
}

func TestRequestLogger_ChiParamsAndRoute(t *testing.T) {
	t.Parallel()

	rl, d := newRequestLogger(t, middleware.Options{RequestAllow: []string{"method", "params", "route"}})
	r := chi.NewRouter()
	r.Use(rl.Handler)
	r.Get("/users/{id}", writeText(http.StatusOK, ""))

	serve(r, httptest.NewRequest(http.MethodGet, "/users/42", http.NoBody))

	req := section(t, d.only(t).Meta, "req")
	if got := section(t, req, "params")["id"]; got != "42" {
		t.Errorf("req.params.id = %v, want 42", got)
	}
	if req["route"] != "/users/{id}" {
		t.Errorf("req.route = %v, want /users/{id}", req["route"])
	}
}

func TestRequestLogger_Skip(t *testing.T) {
	t.Parallel()

	rl, d := newRequestLogger(t, middleware.Options{
		Skip: func(x *reqlog.Exchange) bool { return x.Status == http.StatusNotFound },
	})
	serve(rl.Handler(writeText(http.StatusNotFound, "")), httptest.NewRequest(http.MethodGet, "/missing", http.NoBody))
	serve(rl.Handler(writeText(http.StatusOK, "")), httptest.NewRequest(http.MethodGet, "/found", http.NoBody))

	e := d.only(t)
	if e.Message != "HTTP GET /found" {
		t.Errorf("Message = %q, want the unskipped request", e.Message)
	}
}

func TestRequestLogger_DisableMeta(t *testing.T) {
	t.Parallel()

	rl, d := newRequestLogger(t, middleware.Options{DisableMeta: true, BaseMeta: map[string]any{"svc": "x"}})
	serve(rl.Handler(writeText(http.StatusOK, "")), httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	e := d.only(t)
	if len(e.Meta) != 0 {
		t.Errorf("Meta = %v, want empty", e.Meta)
	}
	if e.Message != "HTTP GET /" {
		t.Errorf("Message = %q, want message still rendered", e.Message)
	}
}

func TestRequestLogger_SharedSectionKey(t *testing.T) {
	t.Parallel()

	rl, d := newRequestLogger(t, middleware.Options{RequestField: "http", ResponseField: "http"})
	serve(rl.Handler(writeText(http.StatusCreated, "")), httptest.NewRequest(http.MethodPost, "/", http.NoBody))

	httpMeta := section(t, d.only(t).Meta, "http")
	if httpMeta["method"] != "POST" {
		t.Errorf("http.method = %v, want POST", httpMeta["method"])
	}
	if httpMeta["statusCode"] != http.StatusCreated {
		t.Errorf("http.statusCode = %v, want 201", httpMeta["statusCode"])
	}
}

func TestRequestLogger_OmitSections(t *testing.T) {
	t.Parallel()

	rl, d := newRequestLogger(t, middleware.Options{OmitRequestField: true, OmitResponseField: true})
	serve(rl.Handler(writeText(http.StatusOK, "")), httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	meta := d.only(t).Meta
	if _, ok := meta["req"]; ok {
		t.Error("req section present, want omitted")
	}
	if _, ok := meta["res"]; ok {
		t.Error("res section present, want omitted")
	}
	if _, ok := meta["responseTime"]; !ok {
		t.Error("responseTime missing, want it kept at top level")
	}
}

func TestRequestLogger_ResponseTimeClaimedByAllowList(t *testing.T) {
	t.Parallel()

	rl, d := newRequestLogger(t, middleware.Options{ResponseAllow: []string{"statusCode", "responseTime"}})
	serve(rl.Handler(writeText(http.StatusOK, "")), httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	meta := d.only(t).Meta
	if _, ok := meta["responseTime"]; ok {
		t.Error("top-level responseTime present, want it only under res")
	}
	if got := section(t, meta, "res")["responseTime"]; got != int64(0) {
		t.Errorf("res.responseTime = %#v, want int64(0)", got)
	}
}

func TestRequestLogger_DynamicAndBaseMeta(t *testing.T) {
	t.Parallel()

	rl, d := newRequestLogger(t, middleware.Options{
		DynamicMeta: func(x *reqlog.Exchange) map[string]any {
			return map[string]any{"status": x.Status, "env": "dynamic"}
		},
		BaseMeta: map[string]any{"env": "base"},
	})
	serve(rl.Handler(writeText(http.StatusAccepted, "")), httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	meta := d.only(t).Meta
	if meta["status"] != http.StatusAccepted {
		t.Errorf("status = %v, want 202", meta["status"])
	}
	if meta["env"] != "base" {
		t.Errorf("env = %v, want base meta to win", meta["env"])
	}
}

func TestRequestLogger_RequestBody(t *testing.T) {
	t.Parallel()

	const payload = `{"name":"ada","email":"ada@example.com","password":"hunter2"}`

	tests := []struct {
		name     string
		opts     middleware.Options
		wantBody map[string]any
	}{
		{
			name:     "absent by default",
			opts:     middleware.Options{},
			wantBody: nil,
		},
		{
			name:     "deny list alone keeps the rest",
			opts:     middleware.Options{BodyDeny: []string{"password"}},
			wantBody: map[string]any{"name": "ada", "email": "ada@example.com"},
		},
		{
			name:     "allow list selects fields",
			opts:     middleware.Options{BodyAllow: []string{"name"}},
			wantBody: map[string]any{"name": "ada"},
		},
		{
			name:     "allow wins over deny",
			opts:     middleware.Options{BodyAllow: []string{"name", "password"}, BodyDeny: []string{"password"}},
			wantBody: map[string]any{"name": "ada", "password": "hunter2"},
		},
		{
			name:     "body in request allow-list logs everything",
			opts:     middleware.Options{RequestAllow: []string{"method", "body"}},
			wantBody: map[string]any{"name": "ada", "email": "ada@example.com", "password": "hunter2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rl, d := newRequestLogger(t, tt.opts)
			var seen string
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				b, _ := io.ReadAll(r.Body)
				seen = string(b)
				w.WriteHeader(http.StatusCreated)
			})
			req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(payload))
			req.Header.Set("Content-Type", "application/json")
			serve(rl.Handler(handler), req)

			if seen != payload {
				t.Errorf("handler read %q, want the full body", seen)
			}

			reqMeta := section(t, d.only(t).Meta, "req")
			if tt.wantBody == nil {
				if _, ok := reqMeta["body"]; ok {
					t.Errorf("req.body = %v, want absent", reqMeta["body"])
				}
				return
			}
			if got := section(t, reqMeta, "body"); !equalJSONish(got, tt.wantBody) {
				t.Errorf("req.body = %v, want %v", got, tt.wantBody)
			}
		})
	}
}

func TestRequestLogger_AllowFilterOutAllowlistedRequestBody(t *testing.T) {
	t.Parallel()

	dropBody := func(src map[string]any, path string) (any, bool) {
		if path == "body" {
			return nil, false
		}
		return reqlog.Get(src, path)
	}

	tests := []struct {
		name     string
		allowOut bool
		wantBody bool
	}{
		{name: "allow-listed body survives the filter", allowOut: false, wantBody: true},
		{name: "filter may drop allow-listed body", allowOut: true, wantBody: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rl, d := newRequestLogger(t, middleware.Options{
				RequestFilter:                        dropBody,
				BodyAllow:                            []string{"name"},
				AllowFilterOutAllowlistedRequestBody: tt.allowOut,
			})
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.Copy(io.Discard, r.Body)
				w.WriteHeader(http.StatusOK)
			})
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"ada"}`))
			req.Header.Set("Content-Type", "application/json")
			serve(rl.Handler(handler), req)

			_, got := section(t, d.only(t).Meta, "req")["body"]
			if got != tt.wantBody {
				t.Errorf("req.body present = %v, want %v", got, tt.wantBody)
			}
		})
	}
}

func TestDefaultAllowLists_ReturnCopies(t *testing.T) {
	t.Parallel()

	middleware.DefaultRequestAllow()[0] = "mutated"
	middleware.DefaultResponseAllow()[0] = "mutated"

	if slices.Contains(middleware.DefaultRequestAllow(), "mutated") {
		t.Error("DefaultRequestAllow() shares state between calls")
	}
	if slices.Contains(middleware.DefaultResponseAllow(), "mutated") {
		t.Error("DefaultResponseAllow() shares state between calls")
	}

	rl, d := newRequestLogger(t, middleware.Options{})
	serve(rl.Handler(writeText(http.StatusOK, "")), httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	meta := d.only(t).Meta
	if got := section(t, meta, "req")["method"]; got != http.MethodGet {
		t.Errorf("req.method = %v, want %s", got, http.MethodGet)
	}
	if got := section(t, meta, "res")["statusCode"]; got != http.StatusOK {
		t.Errorf("res.statusCode = %v, want %d", got, http.StatusOK)
	}
}

func TestRequestLogger_RequestFilterAppliesToBodyFields(t *testing.T) {
	t.Parallel()

	redact := func(src map[string]any, path string) (any, bool) {
		if path == "password" {
			return "[REDACTED]", true
		}
		return reqlog.Get(src, path)
	}

	rl, d := newRequestLogger(t, middleware.Options{
		RequestFilter: redact,
		BodyAllow:     []string{"user", "password"},
	})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"user":"a","password":"hunter2"}`))
	req.Header.Set("Content-Type", "application/json")
	serve(rl.Handler(handler), req)

	body := section(t, section(t, d.only(t).Meta, "req"), "body")
	if body["password"] != "[REDACTED]" {
		t.Errorf("req.body.password = %v, want [REDACTED]", body["password"])
	}
	if body["user"] != "a" {
		t.Errorf("req.body.user = %v, want a", body["user"])
	}
}

func TestRequestLogger_MessageFormats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts middleware.Options
		want string
	}{
		{name: "custom template", opts: middleware.Options{Msg: "{{ req.method }} -> {{res.statusCode}}"}, want: "GET -> 418"},
		{name: "express format", opts: middleware.Options{ExpressFormat: true}, want: "GET /tea?cup=1 418 0ms"},
		{
			name: "message func",
			opts: middleware.Options{MsgFunc: func(x *reqlog.Exchange) string { return "status {{res.statusCode}}" }},
			want: "status 418",
		},
		{name: "missing path renders empty", opts: middleware.Options{Msg: "[{{req.nope}}]"}, want: "[]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rl, d := newRequestLogger(t, tt.opts)
			serve(rl.Handler(writeText(http.StatusTeapot, "")), httptest.NewRequest(http.MethodGet, "/tea?cup=1", http.NoBody))

			if got := d.only(t).Message; got != tt.want {
				t.Errorf("Message = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequestLogger_LogsAfterFlush(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	var flushed bool
	d := &recordingDispatcher{onEntry: func(reqlog.Entry) { flushed = rec.Flushed }}
	rl, err := middleware.NewRequestLogger(d, middleware.Options{})
	if err != nil {
		t.Fatalf("NewRequestLogger() error = %v", err)
	}

	rl.Handler(writeText(http.StatusOK, "done")).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	if !flushed {
		t.Error("entry dispatched before the response was flushed")
	}
}

func TestRequestLogger_DispatchesWithRequestContext(t *testing.T) {
	t.Parallel()

	d := mocks.NewMockEntryDispatcher(t)
	d.EXPECT().
		Dispatch(mock.MatchedBy(func(ctx context.Context) bool {
			return middleware.RequestIDFromContext(ctx) == "req-7"
		}), mock.MatchedBy(func(e reqlog.Entry) bool {
			return e.Message == "HTTP GET /ping"
		})).
		Return().
		Once()

	rl, err := middleware.NewRequestLogger(d, middleware.Options{})
	if err != nil {
		t.Fatalf("NewRequestLogger() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/ping", http.NoBody)
	req.Header.Set("X-Request-ID", "req-7")
	serve(middleware.RequestID()(rl.Handler(writeText(http.StatusOK, "pong"))), req)
}

func TestRequestLogger_ConstructionErrors(t *testing.T) {
	t.Parallel()

	d := &recordingDispatcher{}
	tests := []struct {
		name       string
		dispatcher *recordingDispatcher
		opts       middleware.Options
		want       []error
	}{
		{name: "nil dispatcher", opts: middleware.Options{}, want: []error{reqlog.ErrNoDispatcher}},
		{name: "blank level", dispatcher: d, opts: middleware.Options{Level: "  "}, want: []error{reqlog.ErrEmptyLevel}},
		{name: "unterminated template", dispatcher: d, opts: middleware.Options{Msg: "HTTP {{req.method"}, want: []error{reqlog.ErrInvalidTemplate}},
		{name: "empty meta segment", dispatcher: d, opts: middleware.Options{MetaField: "a..b"}, want: []error{reqlog.ErrInvalidMetaField}},
		{name: "negative body limit", dispatcher: d, opts: middleware.Options{MaxBodyBytes: -1}, want: []error{reqlog.ErrInvalidBodyLimit}},
		{
			name: "errors are joined",
			opts: middleware.Options{MetaPath: []string{""}, MaxBodyBytes: -5},
			want: []error{reqlog.ErrNoDispatcher, reqlog.ErrInvalidMetaField, reqlog.ErrInvalidBodyLimit},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var err error
			if tt.dispatcher == nil {
				_, err = middleware.NewRequestLogger(nil, tt.opts)
			} else {
				_, err = middleware.NewRequestLogger(tt.dispatcher, tt.opts)
			}
			if err == nil {
				t.Fatal("NewRequestLogger() error = nil, want error")
			}
			for _, w := range tt.want {
				if !errors.Is(err, w) {
					t.Errorf("error = %v, want errors.Is %v", err, w)
				}
			}
		})
	}
}

func TestContextLogger_AddsRequestID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := logging.New("info", "json", &buf)

	handler := middleware.RequestID()(middleware.ContextLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logging.FromContext(r.Context()).InfoContext(r.Context(), "handling")
		w.WriteHeader(http.StatusNoContent)
	})))

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set("X-Request-ID", "ctx-logger-1")
	serve(handler, req)

	if !strings.Contains(buf.String(), `"request_id":"ctx-logger-1"`) {
		t.Errorf("log output = %q, want request_id attribute", buf.String())
	}
}

func TestRequestLogger_KeepsResponseFraming(t *testing.T) {
	t.Parallel()

	large := strings.Repeat("x", 4096)

	tests := []struct {
		name    string
		method  string
		handler http.HandlerFunc
	}{
		{name: "small body without length", method: http.MethodGet, handler: writeText(http.StatusOK, "hello")},
		{name: "status only", method: http.MethodGet, handler: writeText(http.StatusAccepted, "")},
		{name: "no content", method: http.MethodGet, handler: writeText(http.StatusNoContent, "")},
		{name: "large body", method: http.MethodGet, handler: writeText(http.StatusOK, large)},
		{name: "head", method: http.MethodHead, handler: writeText(http.StatusOK, "hello")},
		{
			name:   "explicit length",
			method: http.MethodGet,
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Length", "5")
				_, _ = io.WriteString(w, "hello")
			},
		},
		{
			name:   "handler flushes",
			method: http.MethodGet,
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, "part one ")
				http.NewResponseController(w).Flush()
				_, _ = io.WriteString(w, "part two")
			},
		},
	}

	type framing struct {
		status           int
		contentLength    int64
		transferEncoding []string
		body             string
	}

	fetch := func(t *testing.T, h http.Handler, method string) framing {
		t.Helper()
		srv := httptest.NewServer(h)
		defer srv.Close()

		req, err := http.NewRequestWithContext(t.Context(), method, srv.URL, http.NoBody)
		if err != nil {
			t.Fatalf("NewRequest() error = %v", err)
		}
		resp, err := srv.Client().Do(req)
		if err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("ReadAll() error = %v", err)
		}
		return framing{
			status:           resp.StatusCode,
			contentLength:    resp.ContentLength,
			transferEncoding: resp.TransferEncoding,
			body:             string(body),
		}
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rl, d := newRequestLogger(t, middleware.Options{ResponseAllow: []string{"statusCode", "body"}})

			plain := fetch(t, tt.handler, tt.method)
			logged := fetch(t, rl.Handler(tt.handler), tt.method)

			if logged.status != plain.status {
				t.Errorf("status = %d, want %d", logged.status, plain.status)
			}
			if logged.contentLength != plain.contentLength {
				t.Errorf("ContentLength = %d, want %d", logged.contentLength, plain.contentLength)
			}
			if !slices.Equal(logged.transferEncoding, plain.transferEncoding) {
				t.Errorf("TransferEncoding = %v, want %v", logged.transferEncoding, plain.transferEncoding)
			}
			if logged.body != plain.body {
				t.Errorf("body length = %d, want %d", len(logged.body), len(plain.body))
			}
			d.only(t)
		})
	}
}
