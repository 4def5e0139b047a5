package ebay_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/product-aggregator/internal/ebay"
)

// tokenJSON returns a valid eBay OAuth2 token response as JSON bytes.
func tokenJSON(token string) []byte {
	return []byte(fmt.Sprintf(
		`{"access_token":%q,"expires_in":7200,"token_type":"Application Access Token"}`,
		token,
	))
}

// fixedClock is a mutable clock safe for concurrent use.
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestOAuthTokenProvider_Token(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantErr    bool
		wantToken  string
		wantCalls  int32
		errContain string
	}{
		{
			name: "successful token fetch",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write(tokenJSON("test-token-123"))
			},
			wantToken: "test-token-123",
			wantCalls: 1,
		},
		{
			name: "server returns 401 without retry",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write(
					[]byte(
						`{"error":"invalid_client","error_description":"client authentication failed"}`,
					),
				)
			},
			wantErr:    true,
			wantCalls:  1,
			errContain: "status 401",
		},
		{
			name: "server returns 500 and is retried once",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantErr:    true,
			wantCalls:  2,
			errContain: "status 500",
		},
		{
			name: "server returns invalid JSON",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte("not json"))
			},
			wantErr:    true,
			wantCalls:  1,
			errContain: "parsing token response",
		},
		{
			name: "response without expiry",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"access_token":"abc"}`))
			},
			wantErr:    true,
			wantCalls:  1,
			errContain: "missing access_token or expires_in",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				tt.handler(w, r)
			}))
			defer srv.Close()

			provider := ebay.NewOAuthTokenProvider(
				"test-app-id",
				"test-cert-id",
				ebay.WithTokenURL(srv.URL),
				ebay.WithTokenRetryDelay(time.Millisecond),
			)

			token, err := provider.Token(context.Background())
			assert.Equal(t, tt.wantCalls, calls.Load())

			if tt.wantErr {
				require.ErrorIs(t, err, ebay.ErrAuth)
				assert.Contains(t, err.Error(), tt.errContain)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantToken, token)
		})
	}
}

func TestOAuthTokenProvider_MissingCredentials(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	provider := ebay.NewOAuthTokenProvider("", "", ebay.WithTokenURL(srv.URL))

	_, err := provider.Token(context.Background())
	require.ErrorIs(t, err, ebay.ErrAuth)
	assert.Contains(t, err.Error(), "missing client credentials")
	assert.Zero(t, calls.Load())
}

func TestOAuthTokenProvider_TokenCaching(t *testing.T) {
	t.Parallel()

	var callCount atomic.Int32

	srv := httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			callCount.Add(1)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(tokenJSON("cached-token"))
		}),
	)
	defer srv.Close()

	provider := ebay.NewOAuthTokenProvider(
		"test-app-id",
		"test-cert-id",
		ebay.WithTokenURL(srv.URL),
	)

	token1, err := provider.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cached-token", token1)
	assert.Equal(t, int32(1), callCount.Load())

	// Second call should return cached token (no HTTP call).
	token2, err := provider.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cached-token", token2)
	assert.Equal(t, int32(1), callCount.Load())
}

func TestOAuthTokenProvider_ExpiryBuffer(t *testing.T) {
	t.Parallel()

	var callCount atomic.Int32
	clock := &fixedClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	start := clock.Now()

	srv := httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			callCount.Add(1)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(tokenJSON("refreshed-token"))
		}),
	)
	defer srv.Close()

	provider := ebay.NewOAuthTokenProvider(
		"test-app-id",
		"test-cert-id",
		ebay.WithTokenURL(srv.URL),
		ebay.WithNowFunc(clock.Now),
	)

	cred, err := provider.Credential(context.Background())
	require.NoError(t, err)
	assert.Equal(t, start.Add(7140*time.Second), cred.ExpiresAt)
	assert.Equal(t, int32(1), callCount.Load())

	// One second before the buffered expiry the token is still reused.
	clock.Advance(7139 * time.Second)
	_, err = provider.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), callCount.Load())

	// At the buffered expiry it is refreshed.
	clock.Advance(time.Second)
	_, err = provider.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), callCount.Load())
}

func TestOAuthTokenProvider_ConcurrentRefreshIsSingleFlight(t *testing.T) {
	t.Parallel()

	var callCount atomic.Int32
	release := make(chan struct{})
	clock := &fixedClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}

	srv := httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			n := callCount.Add(1)
			if n > 1 {
				<-release
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(tokenJSON(fmt.Sprintf("token-%d", n)))
		}),
	)
	defer srv.Close()

	provider := ebay.NewOAuthTokenProvider(
		"test-app-id",
		"test-cert-id",
		ebay.WithTokenURL(srv.URL),
		ebay.WithNowFunc(clock.Now),
	)

	_, err := provider.Token(context.Background())
	require.NoError(t, err)

	// Expire the cached credential.
	clock.Advance(3 * time.Hour)

	const goroutines = 20

	var (
		wg     sync.WaitGroup
		tokens sync.Map
	)
	wg.Add(goroutines)
	for i := range goroutines {
		go func() {
			defer wg.Done()
			token, err := provider.Token(context.Background())
			assert.NoError(t, err)
			tokens.Store(i, token)
		}()
	}

	// Let every goroutine reach the in-flight refresh before it completes.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(2), callCount.Load(), "exactly one refresh after expiry")
	tokens.Range(func(_, v any) bool {
		assert.Equal(t, "token-2", v)
		return true
	})
}

func TestOAuthTokenProvider_Invalidate(t *testing.T) {
	t.Parallel()

	var callCount atomic.Int32
	srv := httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			n := callCount.Add(1)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(tokenJSON(fmt.Sprintf("token-%d", n)))
		}),
	)
	defer srv.Close()

	provider := ebay.NewOAuthTokenProvider("app", "cert", ebay.WithTokenURL(srv.URL))

	token, err := provider.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", token)

	// A stale value from another caller does not drop the current token.
	provider.Invalidate("some-older-token")
	token, err = provider.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", token)
	assert.Equal(t, int32(1), callCount.Load())

	provider.Invalidate("token-1")
	token, err = provider.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-2", token)
}

func TestOAuthTokenProvider_FailedRefreshKeepsCredential(t *testing.T) {
	t.Parallel()

	var fail atomic.Bool
	clock := &fixedClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}

	srv := httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if fail.Load() {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_request"}`))
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(tokenJSON("good-token"))
		}),
	)
	defer srv.Close()

	provider := ebay.NewOAuthTokenProvider(
		"app", "cert",
		ebay.WithTokenURL(srv.URL),
		ebay.WithNowFunc(clock.Now),
	)

	_, err := provider.Token(context.Background())
	require.NoError(t, err)

	fail.Store(true)
	clock.Advance(3 * time.Hour)
	_, err = provider.Token(context.Background())
	require.ErrorIs(t, err, ebay.ErrAuth)

	// The upstream recovers; the next request refreshes normally.
	fail.Store(false)
	token, err := provider.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "good-token", token)
}

func TestOAuthTokenProvider_RequestFormat(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(
				t,
				"application/x-www-form-urlencoded",
				r.Header.Get("Content-Type"),
			)

			appID, certID, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "my-app-id", appID)
			assert.Equal(t, "my-cert-id", certID)

			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "client_credentials", r.FormValue("grant_type"))
			assert.Contains(t, r.FormValue("scope"), "api.ebay.com")

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(tokenJSON("format-test-token"))
		}),
	)
	defer srv.Close()

	provider := ebay.NewOAuthTokenProvider(
		"my-app-id",
		"my-cert-id",
		ebay.WithTokenURL(srv.URL),
	)

	token, err := provider.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "format-test-token", token)
}
