package dispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/jsamuelsen11/go-reqlog/internal/ports"
)

// fanOut delivers to every backend using at most limit concurrent
// goroutines. Errors are returned in backend order; a nil entry means the
// backend accepted the entry.
//
// If ctx is canceled while a goroutine is waiting for a slot, that backend
// records ctx.Err() and is not called. A panicking backend is reported as an
// error rather than crashing the worker.
func fanOut(ctx context.Context, limit int, backends []ports.LogBackend, fn func(context.Context, ports.LogBackend) error) []error {
	errs := make([]error, len(backends))
	if len(backends) == 0 {
		return errs
	}
	if limit < 1 {
		limit = 1
	}

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup

	for i, b := range backends {
		wg.Add(1)
		go func(idx int, backend ports.LogBackend) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				errs[idx] = ctx.Err()
				return
			}

			errs[idx] = safeCall(ctx, backend, fn)
		}(i, b)
	}

	wg.Wait()
	return errs
}

func safeCall(ctx context.Context, b ports.LogBackend, fn func(context.Context, ports.LogBackend) error) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("backend %s panicked: %v", b.Name(), v)
		}
	}()
	return fn(ctx, b)
}
