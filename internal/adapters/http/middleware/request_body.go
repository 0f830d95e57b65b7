package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
)

// DefaultMaxBodyBytes bounds how much of a request or response body is kept
// for logging when no limit is configured.
const DefaultMaxBodyBytes int64 = 64 << 10

// bodyTee wraps a request body and keeps a bounded copy of what the handler
// reads. Nothing is read ahead of the handler.
type bodyTee struct {
	io.ReadCloser
	limit     int64
	buf       bytes.Buffer
	truncated bool
}

// teeRequestBody returns a shallow copy of r whose body is teed and whose
// context carries the tee. r itself is left untouched.
func teeRequestBody(r *http.Request, limit int64) *http.Request {
	if r.Body == nil || r.Body == http.NoBody || limit <= 0 {
		return r
	}
	t := &bodyTee{ReadCloser: r.Body, limit: limit}
	r = r.WithContext(context.WithValue(r.Context(), bodyTeeKey{}, t))
	r.Body = t
	return r
}

func (t *bodyTee) Read(p []byte) (int, error) {
	n, err := t.ReadCloser.Read(p)
	if n > 0 {
		room := t.limit - int64(t.buf.Len())
		switch {
		case room <= 0:
			t.truncated = true
		case int64(n) > room:
			t.buf.Write(p[:room])
			t.truncated = true
		default:
			t.buf.Write(p[:n])
		}
	}
	return n, err
}

// Bytes returns the captured prefix of the body.
func (t *bodyTee) Bytes() []byte {
	if t == nil {
		return nil
	}
	return t.buf.Bytes()
}

type bodyTeeKey struct{}

// capturedRequestBody returns the bytes read through the request logger's
// tee. Handlers may rewrap r.Body, so the tee is found through the context.
func capturedRequestBody(r *http.Request) ([]byte, bool) {
	t, ok := r.Context().Value(bodyTeeKey{}).(*bodyTee)
	if !ok {
		return nil, false
	}
	return t.Bytes(), true
}
