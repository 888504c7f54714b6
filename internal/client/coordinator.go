package client

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// RefreshCoordinator collapses a burst of concurrent authorization
// failures into a single session refresh. The first failing request
// becomes the leader and performs the refresh; every request failing
// while that refresh is in flight is parked on the waiter list instead
// of issuing a duplicate call. When the refresh resolves, all parked
// requests are released with the leader's result and each replays its
// original request once.
//
// The coordinator owns its state explicitly — an idle/refreshing flag
// and the waiter list behind one mutex — rather than living in package
// globals, so independent clients never share a session.
type RefreshCoordinator struct {
	mu         sync.Mutex
	refreshing bool
	waiters    []chan error
	timeout    time.Duration
}

// NewRefreshCoordinator builds a coordinator. The timeout bounds one
// refresh attempt so a hung refresh cannot starve the waiter queue
// forever; zero selects a 30 second default.
func NewRefreshCoordinator(timeout time.Duration) *RefreshCoordinator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RefreshCoordinator{timeout: timeout}
}

// Do runs refresh at most once per failure burst and returns its
// result. Callers arriving while a refresh is in flight block until it
// resolves (or their own context is cancelled) and receive the leader's
// error, nil on success. The refreshing flag is cleared on every exit
// path, including a panicking refresh function.
func (rc *RefreshCoordinator) Do(ctx context.Context, refresh func(context.Context) error) error {
	rc.mu.Lock()
	if rc.refreshing {
		ch := make(chan error, 1)
		rc.waiters = append(rc.waiters, ch)
		rc.mu.Unlock()
		select {
		case err := <-ch:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	rc.refreshing = true
	rc.mu.Unlock()

	rctx, cancel := context.WithTimeout(ctx, rc.timeout)
	err := runRefresh(rctx, refresh)
	cancel()

	rc.mu.Lock()
	rc.refreshing = false
	waiters := rc.waiters
	rc.waiters = nil
	rc.mu.Unlock()

	// Buffered channels: no waiter can block the leader.
	for _, ch := range waiters {
		ch <- err
	}
	return err
}

// waiting reports the number of parked requests.
func (rc *RefreshCoordinator) waiting() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return len(rc.waiters)
}

func runRefresh(ctx context.Context, refresh func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("refresh panicked: %v", r)
		}
	}()
	return refresh(ctx)
}
