package middleware_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jsamuelsen11/go-reqlog/internal/domain/reqlog"
)

// recordingDispatcher keeps every entry handed to it.
type recordingDispatcher struct {
	mu      sync.Mutex
	entries []reqlog.Entry
	onEntry func(reqlog.Entry)
}

func (d *recordingDispatcher) Dispatch(_ context.Context, e reqlog.Entry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.onEntry != nil {
		d.onEntry(e)
	}
	d.entries = append(d.entries, e)
}

func (d *recordingDispatcher) all() []reqlog.Entry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]reqlog.Entry(nil), d.entries...)
}

// only returns the single recorded entry, failing the test otherwise.
func (d *recordingDispatcher) only(t *testing.T) reqlog.Entry {
	t.Helper()
	entries := d.all()
	if len(entries) != 1 {
		t.Fatalf("dispatched entries = %d, want 1", len(entries))
	}
	return entries[0]
}

// fixedClock returns a clock that always reports the same instant, so
// every response time is 0ms.
func fixedClock() func() time.Time {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return ts }
}

// section returns meta[key] as a map, failing the test if it is missing.
func section(t *testing.T, meta map[string]any, key string) map[string]any {
	t.Helper()
	m, ok := meta[key].(map[string]any)
	if !ok {
		t.Fatalf("meta[%q] = %#v, want map", key, meta[key])
	}
	return m
}
