package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingRefresh is a refresh function the test releases by hand.
type blockingRefresh struct {
	started chan struct{}
	release chan error
	calls   atomic.Int64
}

func newBlockingRefresh() *blockingRefresh {
	return &blockingRefresh{started: make(chan struct{}, 16), release: make(chan error)}
}

func (b *blockingRefresh) fn(ctx context.Context) error {
	b.calls.Add(1)
	b.started <- struct{}{}
	select {
	case err := <-b.release:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestCoordinatorCollapsesBurst(t *testing.T) {
	rc := NewRefreshCoordinator(time.Second)
	br := newBlockingRefresh()

	var wg sync.WaitGroup
	results := make([]error, 8)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0] = rc.Do(context.Background(), br.fn)
	}()
	<-br.started

	// Everyone arriving during the refresh parks on the waiter list.
	for i := 1; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = rc.Do(context.Background(), br.fn)
		}(i)
	}
	require.Eventually(t, func() bool { return rc.waiting() == 7 }, time.Second, time.Millisecond)

	br.release <- nil
	wg.Wait()

	assert.Equal(t, int64(1), br.calls.Load())
	for i, err := range results {
		assert.NoError(t, err, "caller %d", i)
	}
	assert.Equal(t, 0, rc.waiting())
}

func TestCoordinatorPropagatesFailure(t *testing.T) {
	rc := NewRefreshCoordinator(time.Second)
	br := newBlockingRefresh()
	refreshErr := errors.New("refresh rejected")

	var wg sync.WaitGroup
	results := make([]error, 4)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0] = rc.Do(context.Background(), br.fn)
	}()
	<-br.started

	for i := 1; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = rc.Do(context.Background(), br.fn)
		}(i)
	}
	require.Eventually(t, func() bool { return rc.waiting() == 3 }, time.Second, time.Millisecond)

	br.release <- refreshErr
	wg.Wait()

	assert.Equal(t, int64(1), br.calls.Load())
	for i, err := range results {
		assert.ErrorIs(t, err, refreshErr, "caller %d", i)
	}
}

// Each burst refreshes independently: once a refresh resolves, the next
// failure starts a new one.
func TestCoordinatorSequentialBursts(t *testing.T) {
	rc := NewRefreshCoordinator(time.Second)
	var calls atomic.Int64
	refresh := func(context.Context) error {
		calls.Add(1)
		return nil
	}

	require.NoError(t, rc.Do(context.Background(), refresh))
	require.NoError(t, rc.Do(context.Background(), refresh))
	assert.Equal(t, int64(2), calls.Load())
}

func TestCoordinatorRefreshTimeout(t *testing.T) {
	rc := NewRefreshCoordinator(20 * time.Millisecond)

	err := rc.Do(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The flag was reset: a later refresh runs normally.
	assert.NoError(t, rc.Do(context.Background(), func(context.Context) error { return nil }))
}

func TestCoordinatorWaiterContextCancel(t *testing.T) {
	rc := NewRefreshCoordinator(time.Second)
	br := newBlockingRefresh()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = rc.Do(context.Background(), br.fn)
	}()
	<-br.started

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- rc.Do(ctx, br.fn) }()
	require.Eventually(t, func() bool { return rc.waiting() == 1 }, time.Second, time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	br.release <- nil
	wg.Wait()
}

func TestCoordinatorRecoversPanickingRefresh(t *testing.T) {
	rc := NewRefreshCoordinator(time.Second)

	err := rc.Do(context.Background(), func(context.Context) error {
		panic("boom")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refresh panicked")

	// The flag was reset despite the panic.
	assert.NoError(t, rc.Do(context.Background(), func(context.Context) error { return nil }))
}
