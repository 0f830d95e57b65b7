package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jsamuelsen11/go-reqlog/internal/adapters/http/dto"
	"github.com/jsamuelsen11/go-reqlog/internal/adapters/http/middleware"
)

// errUpstream stands in for a dependency failure on the demo error route.
var errUpstream = errors.New("upstream unavailable")

// DemoHandler serves endpoints that exercise the request and error loggers.
type DemoHandler struct{}

// NewDemoHandler creates a DemoHandler.
func NewDemoHandler() *DemoHandler {
	return &DemoHandler{}
}

// Echo handles /api/v1/echo for any method by mirroring the request back.
// The echoed body is also logged as the response body.
func (h *DemoHandler) Echo(w http.ResponseWriter, r *http.Request) error {
	var body dto.EchoRequest
	if err := decodeJSONBody(w, r, &body, true); err != nil {
		return err
	}

	middleware.AllowResponseFields(r, "body")

	writeJSON(w, http.StatusOK, dto.EchoResponse{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Body:   body,
	})
	return nil
}

// Fail handles GET /api/v1/fail. It returns an error for the error chain,
// or panics when called with ?mode=panic.
func (h *DemoHandler) Fail(_ http.ResponseWriter, r *http.Request) error {
	if r.URL.Query().Get("mode") == "panic" {
		panic("demo panic")
	}
	return fmt.Errorf("processing %s: %w", r.URL.Path, errUpstream)
}
