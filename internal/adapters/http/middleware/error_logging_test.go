package middleware_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jsamuelsen11/go-reqlog/internal/adapters/http/middleware"
	"github.com/jsamuelsen11/go-reqlog/internal/domain"
	"github.com/jsamuelsen11/go-reqlog/internal/domain/reqlog"
)

func newErrorLogger(t *testing.T, opts middleware.ErrorOptions) (*middleware.ErrorLogger, *recordingDispatcher) {
	t.Helper()
	d := &recordingDispatcher{}
	middleware.SetErrorClock(&opts, fixedClock())
	el, err := middleware.NewErrorLogger(d, opts)
	if err != nil {
		t.Fatalf("NewErrorLogger() error = %v", err)
	}
	return el, d
}

func TestErrorLogger_ForwardsIdenticalError(t *testing.T) {
	t.Parallel()

	el, d := newErrorLogger(t, middleware.ErrorOptions{})
	sent := fmt.Errorf("loading user: %w", domain.ErrNotFound)

	var got error
	calls := 0
	chain := el.Wrap(func(_ http.ResponseWriter, _ *http.Request, err error) {
		calls++
		got = err
	})
	chain(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/users/1", http.NoBody), sent)

	if calls != 1 {
		t.Fatalf("next calls = %d, want 1", calls)
	}
	if got != sent { //nolint:errorlint // identity is the property under test
		t.Errorf("next received %v, want the identical error value", got)
	}
	if n := len(d.all()); n != 1 {
		t.Errorf("dispatched entries = %d, want 1", n)
	}
}

func TestErrorLogger_DefaultEntry(t *testing.T) {
	t.Parallel()

	el, d := newErrorLogger(t, middleware.ErrorOptions{})
	el.Wrap(nil)(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/users/1", http.NoBody), errors.New("boom"))

	e := d.only(t)
	if e.Level != "error" {
		t.Errorf("Level = %q, want %q", e.Level, "error")
	}
	if e.Message != "middlewareError" {
		t.Errorf("Message = %q, want %q", e.Message, "middlewareError")
	}
	if e.Meta["error"] != "boom" {
		t.Errorf("meta.error = %v, want boom", e.Meta["error"])
	}
	for _, key := range []string{"stack", "trace", "process", "os", "date"} {
		if _, ok := e.Meta[key]; !ok {
			t.Errorf("meta.%s missing, want exception detail", key)
		}
	}
	if got := section(t, e.Meta, "req")["method"]; got != http.MethodDelete {
		t.Errorf("req.method = %v, want DELETE", got)
	}
	if _, ok := e.Meta["res"]; ok {
		t.Error("res section present, want none on the error path")
	}
}

func TestErrorLogger_BlacklistedMetaFields(t *testing.T) {
	t.Parallel()

	el, d := newErrorLogger(t, middleware.ErrorOptions{BlacklistedMetaFields: []string{"process", "os", "trace"}})
	el.Wrap(nil)(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody), errors.New("boom"))

	meta := d.only(t).Meta
	for _, key := range []string{"process", "os", "trace"} {
		if _, ok := meta[key]; ok {
			t.Errorf("meta.%s present, want removed", key)
		}
	}
	if _, ok := meta["stack"]; !ok {
		t.Error("meta.stack missing, want it kept")
	}
}

func TestErrorLogger_CustomExceptionAndDynamicMeta(t *testing.T) {
	t.Parallel()

	el, d := newErrorLogger(t, middleware.ErrorOptions{
		ExceptionToMeta: func(err error) map[string]any {
			return map[string]any{"kind": fmt.Sprintf("%T", err), "shared": "exception"}
		},
		DynamicMeta: func(x *reqlog.Exchange) map[string]any {
			return map[string]any{"notFound": errors.Is(x.Err, domain.ErrNotFound), "shared": "dynamic"}
		},
		Msg: "{{err.message}} on {{req.method}}",
	})
	el.Wrap(nil)(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody), domain.ErrNotFound)

	e := d.only(t)
	if e.Meta["kind"] != "*errors.errorString" {
		t.Errorf("meta.kind = %v, want *errors.errorString", e.Meta["kind"])
	}
	if e.Meta["notFound"] != true {
		t.Errorf("meta.notFound = %v, want true", e.Meta["notFound"])
	}
	if e.Meta["shared"] != "dynamic" {
		t.Errorf("meta.shared = %v, want dynamic meta to override exception meta", e.Meta["shared"])
	}
	if want := domain.ErrNotFound.Error() + " on GET"; e.Message != want {
		t.Errorf("Message = %q, want %q", e.Message, want)
	}
}

func TestErrorLogger_SkipAndLevelFunc(t *testing.T) {
	t.Parallel()

	el, d := newErrorLogger(t, middleware.ErrorOptions{
		Skip: func(x *reqlog.Exchange) bool { return errors.Is(x.Err, domain.ErrValidation) },
		LevelFunc: func(x *reqlog.Exchange) string {
			if errors.Is(x.Err, domain.ErrNotFound) {
				return "warn"
			}
			return "error"
		},
	})
	next := func(http.ResponseWriter, *http.Request, error) {}
	chain := el.Wrap(next)

	chain(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody), domain.ErrValidation)
	chain(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody), domain.ErrNotFound)

	if got := d.only(t).Level; got != "warn" {
		t.Errorf("Level = %q, want %q", got, "warn")
	}
}

func TestErrorLogger_PanickingCallbackStillForwards(t *testing.T) {
	t.Parallel()

	el, d := newErrorLogger(t, middleware.ErrorOptions{
		DynamicMeta: func(*reqlog.Exchange) map[string]any { panic("bad callback") },
	})

	forwarded := false
	el.Wrap(func(http.ResponseWriter, *http.Request, error) { forwarded = true })(
		httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody), errors.New("x"))

	if !forwarded {
		t.Error("error not forwarded after a panicking callback")
	}
	if n := len(d.all()); n != 0 {
		t.Errorf("dispatched entries = %d, want 0", n)
	}
}

func TestErrorLogger_ReusesCapturedRequestBody(t *testing.T) {
	t.Parallel()

	rl, _ := newRequestLogger(t, middleware.Options{})
	el, d := newErrorLogger(t, middleware.ErrorOptions{RequestAllow: []string{"method", "body"}})

	fail := func(_ http.ResponseWriter, r *http.Request) error {
		_, _ = io.ReadAll(r.Body)
		return domain.ErrConflict
	}
	handler := rl.Handler(middleware.HandleErrors(fail, el.Wrap(middleware.WriteError)))

	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"email":"a@b.c"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(handler, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
	body := section(t, section(t, d.only(t).Meta, "req"), "body")
	if body["email"] != "a@b.c" {
		t.Errorf("req.body.email = %v, want a@b.c", body["email"])
	}
}

func TestErrorLogger_ConstructionErrors(t *testing.T) {
	t.Parallel()

	if _, err := middleware.NewErrorLogger(nil, middleware.ErrorOptions{}); !errors.Is(err, reqlog.ErrNoDispatcher) {
		t.Errorf("nil dispatcher error = %v, want %v", err, reqlog.ErrNoDispatcher)
	}

	_, err := middleware.NewErrorLogger(&recordingDispatcher{}, middleware.ErrorOptions{Msg: "{{err", MetaField: "."})
	if !errors.Is(err, reqlog.ErrInvalidTemplate) || !errors.Is(err, reqlog.ErrInvalidMetaField) {
		t.Errorf("error = %v, want both template and meta field errors", err)
	}
}

func TestHandleErrors_WritesProblemResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "nil error writes nothing extra", err: nil, wantStatus: http.StatusOK},
		{name: "not found", err: domain.ErrNotFound, wantStatus: http.StatusNotFound},
		{name: "unknown", err: errors.New("db down"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := middleware.HandleErrors(func(http.ResponseWriter, *http.Request) error { return tt.err }, nil)
			rec := serve(handler, httptest.NewRequest(http.MethodGet, "/x", http.NoBody))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.err == nil {
				return
			}
			var body map[string]any
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decoding problem body: %v", err)
			}
			if strings.Contains(rec.Body.String(), "db down") {
				t.Errorf("body = %q, want internal message hidden", rec.Body.String())
			}
		})
	}
}

func TestWriteError_SkipsStartedResponse(t *testing.T) {
	t.Parallel()

	rl, d := newRequestLogger(t, middleware.Options{})
	fail := func(w http.ResponseWriter, _ *http.Request) error {
		w.WriteHeader(http.StatusAccepted)
		_, _ = io.WriteString(w, "partial")
		return errors.New("late failure")
	}
	rec := serve(rl.Handler(middleware.HandleErrors(fail, middleware.WriteError)), httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusAccepted)
	}
	if rec.Body.String() != "partial" {
		t.Errorf("body = %q, want only the handler's output", rec.Body.String())
	}
	if got := section(t, d.only(t).Meta, "res")["statusCode"]; got != http.StatusAccepted {
		t.Errorf("res.statusCode = %v, want 202", got)
	}
}
