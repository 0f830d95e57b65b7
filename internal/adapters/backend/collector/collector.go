// Package collector ships log entries to a remote HTTP log collector.
//
// Each entry is POSTed as one JSON document:
//
//	{"level":"info","message":"HTTP GET /","meta":{...},"time":"2026-02-12T15:04:05Z"}
//
// Delivery goes through httpclient.Client, so the circuit breaker, rate
// limiter, and tracing apply. Entries are not retried; a failed delivery is
// reported to the caller, which counts and discards it.
package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jsamuelsen11/go-reqlog/internal/platform/httpclient"
	"github.com/jsamuelsen11/go-reqlog/internal/ports"
)

// Compile-time interface checks.
var (
	_ ports.LogBackend    = (*Backend)(nil)
	_ ports.HealthChecker = (*Backend)(nil)
)

// maxErrorBody bounds how much of a rejected response is kept in the error.
const maxErrorBody = 512

type payload struct {
	Level   string         `json:"level"`
	Message string         `json:"message"`
	Meta    map[string]any `json:"meta,omitempty"`
	Time    time.Time      `json:"time"`
}

// Backend is a [ports.LogBackend] that POSTs entries to a collector.
type Backend struct {
	client *httpclient.Client
	path   string
	logger *slog.Logger
	now    func() time.Time
}

// New creates a collector backend that posts to client.BaseURL()+path.
func New(client *httpclient.Client, path string, logger *slog.Logger) *Backend {
	return &Backend{
		client: client,
		path:   path,
		logger: logger,
		now:    time.Now,
	}
}

// Name returns the downstream service name of the underlying client.
func (b *Backend) Name() string {
	return b.client.Name()
}

// HealthCheck reports collector availability from the circuit breaker.
func (b *Backend) HealthCheck(ctx context.Context) error {
	return b.client.HealthCheck(ctx)
}

// Log implements [ports.LogBackend]. Any 2xx response counts as accepted.
func (b *Backend) Log(ctx context.Context, level, msg string, meta map[string]any) error {
	body, err := json.Marshal(payload{
		Level:   level,
		Message: msg,
		Meta:    meta,
		Time:    b.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshaling log entry: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.client.BaseURL()+b.path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating collector request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(ctx, req)
	if resp != nil {
		defer b.closeBody(ctx, resp)
	}
	if err != nil {
		return fmt.Errorf("posting log entry: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("collector rejected entry: HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	return nil
}

// closeBody drains and closes the response so the connection can be reused.
func (b *Backend) closeBody(ctx context.Context, resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	if err := resp.Body.Close(); err != nil {
		b.logger.WarnContext(ctx, "failed to close collector response body",
			slog.String("error", err.Error()),
		)
	}
}
