package middleware

import (
	"fmt"
	"net/http"

	"github.com/jsamuelsen11/go-reqlog/internal/platform/exception"
)

// PanicError carries a recovered panic value and the stack at the point of
// the panic. Its message never reaches the client: it reports a 500, which
// the problem writer renders as a generic internal error.
type PanicError struct {
	Value any
	pcs   []uintptr
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes a panicked error value to errors.Is and errors.As.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// HTTPStatus reports 500 for every recovered panic.
func (e *PanicError) HTTPStatus() int {
	return http.StatusInternalServerError
}

// Callers returns the program counters captured in the deferred recover.
func (e *PanicError) Callers() []uintptr {
	return e.pcs
}

// Recovery returns middleware that turns a panic in a downstream handler
// into a *PanicError and passes it to onErr, which is typically an
// ErrorLogger wrapping WriteError. A nil onErr falls back to WriteError.
// http.ErrAbortHandler is re-panicked so net/http can abort the connection.
func Recovery(onErr ErrorHandler) func(http.Handler) http.Handler {
	if onErr == nil {
		onErr = WriteError
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler { //nolint:errorlint // sentinel panic value
					panic(v)
				}
				// Skip this closure and runtime.gopanic.
				onErr(w, r, &PanicError{Value: v, pcs: exception.Capture(2)})
			}()

			next.ServeHTTP(w, r)
		})
	}
}
