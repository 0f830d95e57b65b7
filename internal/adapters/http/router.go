// Package http provides the inbound HTTP adapter including routing and server lifecycle.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jsamuelsen11/go-reqlog/internal/adapters/http/handlers"
	"github.com/jsamuelsen11/go-reqlog/internal/adapters/http/middleware"
)

// NewRouter creates an HTTP handler with all application routes registered.
// Middleware is applied globally in the order given, inside the mux, so that
// route patterns and URL parameters are visible when entries are written.
// Errors returned by API handlers are passed to onErr; a nil onErr writes a
// problem response.
func NewRouter(
	demoHandler *handlers.DemoHandler,
	userHandler *handlers.UserHandler,
	healthHandler *handlers.HealthHandler,
	onErr middleware.ErrorHandler,
	middlewares ...func(http.Handler) http.Handler,
) http.Handler {
	r := chi.NewRouter()

	for _, mw := range middlewares {
		r.Use(mw)
	}

	handle := func(fn func(http.ResponseWriter, *http.Request) error) http.Handler {
		return middleware.HandleErrors(fn, onErr)
	}

	// Health endpoints (outside /api/v1 prefix).
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)

	// API v1 routes.
	r.Route("/api/v1", func(r chi.Router) {
		r.Handle("/echo", handle(demoHandler.Echo))
		r.Method(http.MethodGet, "/fail", handle(demoHandler.Fail))

		r.Method(http.MethodPost, "/users", handle(userHandler.CreateUser))
		r.Method(http.MethodGet, "/users/{id}", handle(userHandler.GetUser))
	})

	return r
}
