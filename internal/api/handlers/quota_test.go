package handlers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/product-aggregator/internal/api/handlers"
	"github.com/donaldgifford/product-aggregator/internal/ebay"
)

type quotaBody struct {
	DailyLimit int64     `json:"daily_limit"`
	DailyUsed  int64     `json:"daily_used"`
	Remaining  int64     `json:"remaining"`
	Exhausted  bool      `json:"exhausted"`
	ResetAt    time.Time `json:"reset_at"`
}

// syncerFunc adapts a function to handlers.QuotaSyncer.
type syncerFunc func(ctx context.Context) error

func (f syncerFunc) SyncQuota(ctx context.Context) error { return f(ctx) }

func TestGetQuota(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 6, 15, 14, 30, 0, 0, time.UTC)
	clock := ebay.WithRateLimiterNowFunc(func() time.Time { return now })

	tests := []struct {
		name     string
		rl       func() *ebay.RateLimiter
		preCalls int
		want     quotaBody
	}{
		{
			name: "no limiter reports an empty budget",
			rl:   func() *ebay.RateLimiter { return nil },
			want: quotaBody{},
		},
		{
			name: "fresh limiter",
			rl:   func() *ebay.RateLimiter { return ebay.NewRateLimiter(100, 10, 5000, clock) },
			want: quotaBody{DailyLimit: 5000, Remaining: 5000, ResetAt: now.Add(24 * time.Hour)},
		},
		{
			name:     "searches charged against the budget",
			rl:       func() *ebay.RateLimiter { return ebay.NewRateLimiter(100, 10, 100, clock) },
			preCalls: 3,
			want:     quotaBody{DailyLimit: 100, DailyUsed: 3, Remaining: 97, ResetAt: now.Add(24 * time.Hour)},
		},
		{
			name:     "spent budget is exhausted",
			rl:       func() *ebay.RateLimiter { return ebay.NewRateLimiter(100, 10, 2, clock) },
			preCalls: 2,
			want: quotaBody{
				DailyLimit: 2,
				DailyUsed:  2,
				Exhausted:  true,
				ResetAt:    now.Add(24 * time.Hour),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rl := tt.rl()
			for range tt.preCalls {
				require.NoError(t, rl.Wait(t.Context()))
			}

			api := newTestAPI(t)
			handlers.RegisterQuotaRoutes(api, handlers.NewQuotaHandler(rl))

			resp := api.Get("/api/v1/quota")
			require.Equal(t, http.StatusOK, resp.Code)

			var got quotaBody
			require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
			assert.Equal(t, tt.want.DailyLimit, got.DailyLimit)
			assert.Equal(t, tt.want.DailyUsed, got.DailyUsed)
			assert.Equal(t, tt.want.Remaining, got.Remaining)
			assert.Equal(t, tt.want.Exhausted, got.Exhausted)
			assert.True(t, tt.want.ResetAt.Equal(got.ResetAt), "reset_at %s", got.ResetAt)
		})
	}
}

func TestSyncQuota(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 6, 15, 14, 30, 0, 0, time.UTC)
	upstreamReset := now.Add(3 * time.Hour)

	tests := []struct {
		name       string
		syncErr    error
		wantStatus int
		wantUsed   int64
		notInBody  string
	}{
		{
			name:       "raises local count to eBay's",
			wantStatus: http.StatusOK,
			wantUsed:   4200,
		},
		{
			name:       "upstream failure is 503 without detail",
			syncErr:    fmt.Errorf("analytics status 500: %w", ebay.ErrUpstreamUnavailable),
			wantStatus: http.StatusServiceUnavailable,
			notInBody:  "analytics status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rl := ebay.NewRateLimiter(100, 10, 5000,
				ebay.WithRateLimiterNowFunc(func() time.Time { return now }))

			calls := 0
			syncer := syncerFunc(func(context.Context) error {
				calls++
				if tt.syncErr != nil {
					return tt.syncErr
				}
				rl.Sync(4200, upstreamReset)
				return nil
			})

			api := newTestAPI(t)
			handlers.RegisterQuotaRoutes(api, handlers.NewQuotaHandler(rl, handlers.WithQuotaSyncer(syncer)))

			resp := api.Post("/api/v1/quota/sync")
			require.Equal(t, tt.wantStatus, resp.Code, resp.Body.String())
			assert.Equal(t, 1, calls)

			if tt.notInBody != "" {
				assert.NotContains(t, resp.Body.String(), tt.notInBody)
				return
			}

			var got quotaBody
			require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
			assert.Equal(t, tt.wantUsed, got.DailyUsed)
			assert.Equal(t, 5000-tt.wantUsed, got.Remaining)
			assert.True(t, upstreamReset.Equal(got.ResetAt))
		})
	}
}

func TestSyncQuota_NotMountedWithoutSyncer(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t)
	handlers.RegisterQuotaRoutes(api, handlers.NewQuotaHandler(ebay.NewRateLimiter(100, 10, 5000)))

	resp := api.Post("/api/v1/quota/sync")
	assert.GreaterOrEqual(t, resp.Code, http.StatusBadRequest)
	assert.NotEqual(t, http.StatusOK, resp.Code)
}
