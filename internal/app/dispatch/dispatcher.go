// Package dispatch delivers finished log entries to every configured backend
// without blocking the HTTP request that produced them.
//
// Entries are queued on a bounded channel and drained by a fixed pool of
// workers. Each entry is fanned out to all backends concurrently. When the
// queue is full the entry is dropped and counted; the caller never waits.
//
//	d, err := dispatch.New(backends, dispatch.Options{QueueSize: 1024, Workers: 4}, metrics, logger)
//	d.Dispatch(ctx, entry)
//	defer d.Shutdown(ctx)
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/jsamuelsen11/go-reqlog/internal/domain/reqlog"
	"github.com/jsamuelsen11/go-reqlog/internal/platform/telemetry"
	"github.com/jsamuelsen11/go-reqlog/internal/ports"
)

const (
	defaultQueueSize = 1024
	defaultWorkers   = 4

	dropQueueFull = "queue_full"
	dropClosed    = "closed"

	// saturationPercent is the queue fill level above which readiness fails.
	saturationPercent = 90
)

// Compile-time interface checks.
var (
	_ ports.EntryDispatcher = (*Dispatcher)(nil)
	_ ports.HealthChecker   = (*Dispatcher)(nil)
)

var (
	// ErrClosed is reported by HealthCheck after Shutdown.
	ErrClosed = errors.New("dispatcher closed")
	// ErrSaturated is reported by HealthCheck while the queue is nearly full.
	ErrSaturated = errors.New("log queue saturated")
)

// Options sizes the queue and worker pool. Zero values select defaults.
// FanOut caps concurrent backend calls per entry; zero means one goroutine
// per backend.
type Options struct {
	QueueSize int
	Workers   int
	FanOut    int
}

type job struct {
	ctx   context.Context
	entry reqlog.Entry
}

// Dispatcher is a fire-and-forget [ports.EntryDispatcher].
type Dispatcher struct {
	backends []ports.LogBackend
	fanOut   int
	queue    chan job
	metrics  *telemetry.Metrics
	logger   *slog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// New validates the backend list and starts the worker pool. At least one
// non-nil backend is required. If metrics is nil, metric recording is skipped.
func New(backends []ports.LogBackend, opts Options, metrics *telemetry.Metrics, logger *slog.Logger) (*Dispatcher, error) {
	if len(backends) == 0 {
		return nil, reqlog.ErrNoBackend
	}
	for i, b := range backends {
		if b == nil {
			return nil, fmt.Errorf("backend %d is nil: %w", i, reqlog.ErrNoBackend)
		}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	queueSize := opts.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	fan := opts.FanOut
	if fan <= 0 {
		fan = len(backends)
	}

	d := &Dispatcher{
		backends: append([]ports.LogBackend(nil), backends...),
		fanOut:   fan,
		queue:    make(chan job, queueSize),
		metrics:  metrics,
		logger:   logger,
	}

	d.wg.Add(workers)
	for range workers {
		go d.work()
	}
	return d, nil
}

// Dispatch queues entry for delivery and returns immediately. The context is
// detached from cancellation so a finished request does not abort delivery.
func (d *Dispatcher) Dispatch(ctx context.Context, entry reqlog.Entry) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(ctx, entry, dropClosed)
		return
	}

	select {
	case d.queue <- job{ctx: context.WithoutCancel(ctx), entry: entry}:
	default:
		d.drop(ctx, entry, dropQueueFull)
	}
}

// Shutdown stops accepting entries and waits for queued ones to be
// delivered, or for ctx to expire. Safe to call more than once.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("draining log queue: %w", ctx.Err())
	}
}

// Name implements [ports.HealthChecker].
func (d *Dispatcher) Name() string { return "dispatcher" }

// HealthCheck fails once the dispatcher is shut down or while the queue is
// nearly full, since new entries would be dropped.
func (d *Dispatcher) HealthCheck(_ context.Context) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrClosed
	}
	if n, c := len(d.queue), cap(d.queue); n*100 >= c*saturationPercent {
		return fmt.Errorf("log queue %d/%d: %w", n, c, ErrSaturated)
	}
	return nil
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for j := range d.queue {
		d.deliver(j.ctx, j.entry)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, entry reqlog.Entry) {
	errs := fanOut(ctx, d.fanOut, d.backends, func(ctx context.Context, b ports.LogBackend) error {
		start := time.Now()
		err := b.Log(ctx, entry.Level, entry.Message, entry.Meta)
		d.recordDelivery(ctx, b.Name(), entry.Level, start, err)
		return err
	})

	for i, err := range errs {
		if err != nil {
			d.logger.DebugContext(ctx, "log backend failed",
				slog.String("backend", d.backends[i].Name()),
				slog.String("level", entry.Level),
				slog.Any("error", err),
			)
		}
	}
}

func (d *Dispatcher) drop(ctx context.Context, entry reqlog.Entry, reason string) {
	d.logger.WarnContext(ctx, "log entry dropped",
		slog.String("reason", reason),
		slog.String("level", entry.Level),
		slog.String("message", entry.Message),
	)
	if d.metrics == nil {
		return
	}
	d.metrics.LogEntriesDropped.Add(ctx, 1, metric.WithAttributes(
		telemetry.AttrReason.String(reason),
		telemetry.AttrLevel.String(entry.Level),
	))
}

// recordDelivery records per-backend delivery metrics. Safe to call with nil
// metrics.
func (d *Dispatcher) recordDelivery(ctx context.Context, backend, level string, start time.Time, err error) {
	if d.metrics == nil {
		return
	}

	result := "success"
	if err != nil {
		result = "error"
	}

	attrs := metric.WithAttributes(
		telemetry.AttrBackend.String(backend),
		telemetry.AttrLevel.String(level),
		telemetry.AttrResult.String(result),
	)

	d.metrics.LogDeliveryDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	d.metrics.LogEntriesTotal.Add(ctx, 1, attrs)
}
