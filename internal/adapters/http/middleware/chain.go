package middleware

import "net/http"

// Chain composes middleware into one, outermost first, so a chain reads in
// request order:
//
//	Chain(RequestID(), rl.Handler, Recovery(onErr))(handler)
//
// wraps handler as RequestID()(rl.Handler(Recovery(onErr)(handler))). Inside
// a chi router, prefer r.Use so route patterns are resolved before entries
// are written.
func Chain(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(handler http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			handler = middlewares[i](handler)
		}
		return handler
	}
}
