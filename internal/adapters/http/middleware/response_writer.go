// Package middleware provides HTTP middleware for the inbound request pipeline.
//
// The middleware chain processes requests in this order:
//
//	RequestID → ContextLogger → Tracing → RequestLogger → Recovery → Handler
//
// RequestLogger emits one access log entry per request after the response
// has been written. Handlers returning errors are adapted with HandleErrors,
// whose error chain is observed by ErrorLogger before the problem response
// is written.
//
// Each middleware is a func(http.Handler) http.Handler and can be composed
// using the Chain helper.
package middleware

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"maps"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/felixge/httpsnoop"
)

// pendingLimit matches the amount net/http buffers before it commits to
// chunked encoding.
const pendingLimit = 2048

// captureWriter observes what a handler writes. Writes go straight to the
// underlying writer; a bounded copy of the body is kept only while
// captureBody reports true. Optional interfaces (Flusher, Hijacker,
// ReaderFrom, Pusher) of the underlying writer are preserved by httpsnoop.
//
// A holding writer keeps the header and the first pendingLimit bytes back
// until the handler returns, the way net/http does, so finalize can send
// them with the same Content-Length net/http would have computed.
type captureWriter struct {
	underlying  http.ResponseWriter
	captureBody func() bool
	limit       int64

	statusCode    int
	headerWritten bool
	written       int64
	body          bytes.Buffer
	truncated     bool

	hold      bool
	head      bool
	committed bool
	header    http.Header
	pending   bytes.Buffer

	once      sync.Once
	callbacks []func()
}

type captureKey struct{}

// newCaptureWriter wraps w. captureBody may be nil to never keep the body;
// a limit of zero keeps nothing.
func newCaptureWriter(w http.ResponseWriter, limit int64, captureBody func() bool) (*captureWriter, http.ResponseWriter) {
	cw := &captureWriter{
		underlying:  w,
		captureBody: captureBody,
		limit:       limit,
		statusCode:  http.StatusOK,
	}

	wrapped := httpsnoop.Wrap(w, httpsnoop.Hooks{
		WriteHeader: func(next httpsnoop.WriteHeaderFunc) httpsnoop.WriteHeaderFunc {
			return func(code int) {
				if informational(code) {
					next(code)
					return
				}
				cw.writeHeader(code)
				if !cw.holding() {
					next(code)
				}
			}
		},
		Write: func(next httpsnoop.WriteFunc) httpsnoop.WriteFunc {
			return func(b []byte) (int, error) {
				if cw.holding() {
					cw.writeHeader(http.StatusOK)
					if len(b) == 0 {
						return 0, nil
					}
					if !bodyAllowed(cw.statusCode) {
						return 0, http.ErrBodyNotAllowed
					}
					if cw.pending.Len()+len(b) <= pendingLimit {
						cw.pending.Write(b)
						cw.record(b)
						return len(b), nil
					}
					if err := cw.commit(false); err != nil {
						return 0, err
					}
				}
				cw.headerWritten = true
				n, err := next(b)
				cw.record(b[:n])
				return n, err
			}
		},
		Flush: func(next httpsnoop.FlushFunc) httpsnoop.FlushFunc {
			return func() {
				if cw.holding() {
					_ = cw.commit(false)
				}
				next()
			}
		},
		Hijack: func(next httpsnoop.HijackFunc) httpsnoop.HijackFunc {
			return func() (net.Conn, *bufio.ReadWriter, error) {
				if cw.holding() {
					_ = cw.commit(false)
				}
				return next()
			}
		},
		ReadFrom: func(next httpsnoop.ReadFromFunc) httpsnoop.ReadFromFunc {
			return func(src io.Reader) (int64, error) {
				if cw.holding() {
					cw.writeHeader(http.StatusOK)
					if err := cw.commit(false); err != nil {
						return 0, err
					}
				}
				cw.headerWritten = true
				if cw.wantsBody() {
					src = io.TeeReader(src, writerFunc(func(b []byte) (int, error) {
						cw.keep(b)
						return len(b), nil
					}))
				}
				n, err := next(src)
				cw.written += n
				return n, err
			}
		},
	})
	return cw, wrapped
}

// capture wraps w and records the writer state in the request context so
// error handlers further down can tell whether a response was started.
func capture(w http.ResponseWriter, r *http.Request, limit int64, captureBody func() bool) (*captureWriter, http.ResponseWriter, *http.Request) {
	cw, wrapped := newCaptureWriter(w, limit, captureBody)
	ctx := context.WithValue(r.Context(), captureKey{}, cw)
	return cw, wrapped, r.WithContext(ctx)
}

// captureFromContext returns the innermost captureWriter installed for the
// request, or nil.
func captureFromContext(ctx context.Context) *captureWriter {
	cw, _ := ctx.Value(captureKey{}).(*captureWriter)
	return cw
}

// holdUntilFinalize switches cw to holding mode. It must be called before
// the handler writes anything.
func (cw *captureWriter) holdUntilFinalize(method string) {
	cw.hold = true
	cw.head = method == http.MethodHead
}

func (cw *captureWriter) holding() bool {
	return cw.hold && !cw.committed
}

// Only the first status is recorded. A holding writer snapshots the header
// at that point, as net/http does.
func (cw *captureWriter) writeHeader(code int) {
	if cw.headerWritten {
		return
	}
	cw.statusCode = code
	cw.headerWritten = true
	if cw.hold {
		cw.header = cw.underlying.Header().Clone()
	}
}

// commit sends the held header and bytes to the underlying writer. When the
// handler has finished, a Content-Length is added under the same conditions
// net/http applies to a response it fully buffered.
func (cw *captureWriter) commit(final bool) error {
	cw.committed = true
	if !cw.headerWritten {
		return nil
	}
	h := cw.underlying.Header()
	if cw.header != nil {
		clear(h)
		maps.Copy(h, cw.header)
	}
	if final && cw.needsLength(h) {
		h.Set("Content-Length", strconv.Itoa(cw.pending.Len()))
	}
	cw.underlying.WriteHeader(cw.statusCode)
	if cw.pending.Len() == 0 {
		return nil
	}
	_, err := cw.underlying.Write(cw.pending.Bytes())
	cw.pending.Reset()
	return err
}

func (cw *captureWriter) needsLength(h http.Header) bool {
	if h.Get("Content-Length") != "" || h.Get("Transfer-Encoding") != "" {
		return false
	}
	if !bodyAllowed(cw.statusCode) || (cw.head && cw.pending.Len() == 0) {
		return false
	}
	for name := range h {
		if name == "Trailer" || strings.HasPrefix(name, http.TrailerPrefix) {
			return false
		}
	}
	return true
}

func informational(code int) bool {
	return code >= 100 && code < 200 && code != http.StatusSwitchingProtocols
}

func bodyAllowed(code int) bool {
	switch {
	case code >= 100 && code < 200:
		return false
	case code == http.StatusNoContent, code == http.StatusNotModified:
		return false
	}
	return true
}

func (cw *captureWriter) record(b []byte) {
	cw.written += int64(len(b))
	if cw.wantsBody() {
		cw.keep(b)
	}
}

func (cw *captureWriter) wantsBody() bool {
	return cw.captureBody != nil && cw.limit > 0 && cw.captureBody()
}

func (cw *captureWriter) keep(b []byte) {
	room := cw.limit - int64(cw.body.Len())
	if room <= 0 {
		cw.truncated = cw.truncated || len(b) > 0
		return
	}
	if int64(len(b)) > room {
		b = b[:room]
		cw.truncated = true
	}
	cw.body.Write(b)
}

// Status returns the status sent to the client, or 200 if the handler
// never wrote a header.
func (cw *captureWriter) Status() int {
	return cw.statusCode
}

// Body returns the captured (possibly truncated) response body.
func (cw *captureWriter) Body() []byte {
	return cw.body.Bytes()
}

// OnFinalize registers fn to run after the response has been flushed.
func (cw *captureWriter) OnFinalize(fn func()) {
	cw.callbacks = append(cw.callbacks, fn)
}

// finalize sends and flushes whatever the handler wrote to the client, then
// runs the registered callbacks. It runs at most once. A panicking callback
// is swallowed so it cannot affect the response.
func (cw *captureWriter) finalize() {
	cw.once.Do(func() {
		if cw.holding() {
			_ = cw.commit(true)
		}
		if cw.headerWritten {
			_ = http.NewResponseController(cw.underlying).Flush()
		}
		for _, fn := range cw.callbacks {
			runGuarded(fn)
		}
	})
}

func runGuarded(fn func()) {
	defer func() { _ = recover() }()
	fn()
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) { return f(b) }
