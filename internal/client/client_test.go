package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI is a minimal storefront server for client round-trip tests.
// It tracks the currently valid access cookie value so a test can
// invalidate a session server-side and force the refresh path.
type fakeAPI struct {
	mu           sync.Mutex
	validAccess  string
	nextAccess   int
	refreshCalls int
	profileCalls int
	refreshFail  bool
	// refreshGate, when set, blocks the refresh handler until released.
	refreshGate chan struct{}
	// refreshStarted receives once per refresh call entering the handler.
	refreshStarted chan struct{}
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{refreshStarted: make(chan struct{}, 16)}
}

func (f *fakeAPI) issueAccess(w http.ResponseWriter) {
	f.nextAccess++
	f.validAccess = fmt.Sprintf("tok-%d", f.nextAccess)
	http.SetCookie(w, &http.Cookie{Name: "accessToken", Value: f.validAccess, Path: "/"})
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.issueAccess(w)
		f.mu.Unlock()
		http.SetCookie(w, &http.Cookie{Name: "refreshToken", Value: "refresh-1", Path: "/"})
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":1,"name":"Alice","email":"alice@example.com","role":"customer"}`)
	})

	mux.HandleFunc("POST /v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.refreshCalls++
		gate := f.refreshGate
		fail := f.refreshFail
		f.mu.Unlock()
		f.refreshStarted <- struct{}{}
		if gate != nil {
			<-gate
		}
		if fail {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":"unauthorized"}`)
			return
		}
		f.mu.Lock()
		f.issueAccess(w)
		f.mu.Unlock()
		fmt.Fprint(w, `{"message":"token refreshed successfully"}`)
	})

	mux.HandleFunc("GET /v1/products/featured", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[]`)
	})

	mux.HandleFunc("GET /v1/auth/profile", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.profileCalls++
		valid := f.validAccess
		f.mu.Unlock()
		ck, err := r.Cookie("accessToken")
		if err != nil || valid == "" || ck.Value != valid {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":"unauthorized"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":1,"name":"Alice","email":"alice@example.com","role":"customer"}`)
	})

	return mux
}

// invalidate expires the session server-side, leaving the client with a
// stale access cookie.
func (f *fakeAPI) invalidate() {
	f.mu.Lock()
	f.validAccess = ""
	f.mu.Unlock()
}

func setupClient(t *testing.T) (*Client, *fakeAPI) {
	t.Helper()
	api := newFakeAPI()
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)
	c, err := New(srv.URL)
	require.NoError(t, err)
	return c, api
}

func TestClientLoginAndProfile(t *testing.T) {
	c, _ := setupClient(t)
	ctx := context.Background()

	u, err := c.Login(ctx, "alice@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.Name)

	u, err = c.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), u.ID)
}

func TestClientRefreshesOnceAndReplays(t *testing.T) {
	c, api := setupClient(t)
	ctx := context.Background()

	_, err := c.Login(ctx, "alice@example.com", "correct horse")
	require.NoError(t, err)
	api.invalidate()

	u, err := c.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.Name)

	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Equal(t, 1, api.refreshCalls)
	assert.Equal(t, 2, api.profileCalls) // original attempt plus one replay
}

// A burst of concurrent 401s produces exactly one refresh; every
// request replays once against the refreshed session.
func TestClientCoalescesConcurrentRefreshes(t *testing.T) {
	c, api := setupClient(t)
	ctx := context.Background()

	_, err := c.Login(ctx, "alice@example.com", "correct horse")
	require.NoError(t, err)
	api.invalidate()
	api.refreshGate = make(chan struct{})

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, errs[0] = c.Profile(ctx)
	}()
	<-api.refreshStarted

	// With the refresh held open, the remaining calls all fail their
	// first attempt and park on the coordinator.
	for i := 1; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Profile(ctx)
		}(i)
	}
	require.Eventually(t, func() bool { return c.coord.waiting() == n-1 }, 2*time.Second, time.Millisecond)

	close(api.refreshGate)
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "request %d", i)
	}
	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Equal(t, 1, api.refreshCalls)
	// Each of the n requests attempted once, failed, and replayed once.
	assert.Equal(t, 2*n, api.profileCalls)
}

// Clearing the session after a failed refresh must be safe against
// requests running on other goroutines: the http.Client reads its Jar
// field unsynchronized, so the clear goes through the jar rather than
// replacing it. Run with -race.
func TestClientSessionClearDuringConcurrentRequests(t *testing.T) {
	c, api := setupClient(t)
	ctx := context.Background()

	_, err := c.Login(ctx, "alice@example.com", "correct horse")
	require.NoError(t, err)
	require.NotEmpty(t, c.http.Jar.Cookies(c.base))
	api.invalidate()
	api.refreshFail = true

	// Public traffic keeps flowing while the session dies.
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			_, _ = c.FeaturedProducts(ctx)
		}
	}()

	_, err = c.Profile(ctx)
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))

	close(done)
	wg.Wait()

	// Both credential cookies are gone from the jar.
	assert.Empty(t, c.http.Jar.Cookies(c.base))
}

func TestClientRefreshFailureSurfaces(t *testing.T) {
	c, api := setupClient(t)
	ctx := context.Background()

	_, err := c.Login(ctx, "alice@example.com", "correct horse")
	require.NoError(t, err)
	api.invalidate()
	api.refreshFail = true

	_, err = c.Profile(ctx)
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))

	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Equal(t, 1, api.refreshCalls)
	assert.Equal(t, 1, api.profileCalls) // no replay after a failed refresh
}

// A replayed request that still fails is surfaced, never re-queued.
func TestClientReplaysAtMostOnce(t *testing.T) {
	c, api := setupClient(t)
	ctx := context.Background()

	_, err := c.Login(ctx, "alice@example.com", "correct horse")
	require.NoError(t, err)

	// Refresh succeeds but the server invalidates again immediately, so
	// the replay also answers 401.
	api.invalidate()
	api.refreshGate = make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, perr := c.Profile(ctx)
		done <- perr
	}()
	<-api.refreshStarted
	close(api.refreshGate)
	// Let the refresh hand out a new token, then kill it before the
	// replay can race it: the replay may land before or after this, so
	// accept either a success or a 401; what must hold is the bound.
	api.invalidate()
	err = <-done
	if err != nil {
		assert.True(t, IsUnauthorized(err))
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Equal(t, 1, api.refreshCalls)
	assert.LessOrEqual(t, api.profileCalls, 2)
}
