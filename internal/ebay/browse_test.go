package ebay_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/product-aggregator/internal/ebay"
	"github.com/donaldgifford/product-aggregator/internal/ebay/mocks"
)

const emptyPage = `{"itemSummaries":[],"total":0,"offset":0,"limit":50}`

func TestBrowseClient_Search(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		req        ebay.SearchRequest
		handler    http.HandlerFunc
		tokenErr   error
		wantErr    error
		errContain string
		wantCalls  int32
		wantItems  int
		wantMore   bool
	}{
		{
			name: "successful search with results",
			req:  ebay.SearchRequest{Query: "thinkpad x1", Limit: 10},
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
				assert.Equal(t, "EBAY_US", r.Header.Get("X-EBAY-C-MARKETPLACE-ID"))
				assert.Equal(t, "thinkpad x1", r.URL.Query().Get("q"))
				assert.Equal(t, "10", r.URL.Query().Get("limit"))

				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{
					"itemSummaries": [
						{"itemId": "v1|1|0", "title": "Item 1", "price": {"value": "10.00", "currency": "USD"}, "itemWebUrl": "https://ebay.com/1"},
						{"itemId": "v1|2|0", "title": "Item 2", "price": {"value": "20.00", "currency": "USD"}, "itemWebUrl": "https://ebay.com/2",
						 "seller": {"username": "s", "feedbackScore": 12, "feedbackPercentage": "99.1"},
						 "itemLocation": {"country": "DE"}}
					],
					"total": 100,
					"offset": 0,
					"limit": 10,
					"next": "https://api.ebay.com/buy/browse/v1/item_summary/search?q=test&offset=10"
				}`))
			},
			wantCalls: 1,
			wantItems: 2,
			wantMore:  true,
		},
		{
			name: "empty results",
			req:  ebay.SearchRequest{Query: "nonexistent item xyz"},
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(emptyPage))
			},
			wantCalls: 1,
		},
		{
			name: "429 is retried up to the attempt bound",
			req:  ebay.SearchRequest{Query: "test"},
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"errors": [{"message": "Rate limit exceeded"}]}`))
			},
			wantErr:    ebay.ErrUpstreamRateLimit,
			errContain: "status 429",
			wantCalls:  3,
		},
		{
			name: "500 is retried then reported unavailable",
			req:  ebay.SearchRequest{Query: "test"},
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte("internal secret stack trace"))
			},
			wantErr:    ebay.ErrUpstreamUnavailable,
			errContain: "status 500",
			wantCalls:  3,
		},
		{
			name: "400 is not retried",
			req:  ebay.SearchRequest{Query: "test"},
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
			},
			wantErr:    ebay.ErrUpstreamUnavailable,
			errContain: "status 400",
			wantCalls:  1,
		},
		{
			name:       "token provider error",
			req:        ebay.SearchRequest{Query: "test"},
			handler:    func(_ http.ResponseWriter, _ *http.Request) {},
			tokenErr:   fmt.Errorf("%w: token fetch failed", ebay.ErrAuth),
			wantErr:    ebay.ErrAuth,
			errContain: "getting auth token",
		},
		{
			name: "invalid JSON response",
			req:  ebay.SearchRequest{Query: "test"},
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte("not valid json"))
			},
			wantErr:    ebay.ErrUpstreamSchema,
			errContain: "parsing search response",
			wantCalls:  1,
		},
		{
			name: "object without total",
			req:  ebay.SearchRequest{Query: "test"},
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"message":"ok"}`))
			},
			wantErr:    ebay.ErrUpstreamSchema,
			errContain: "missing total",
			wantCalls:  1,
		},
		{
			name: "wrong field types",
			req:  ebay.SearchRequest{Query: "test"},
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"itemSummaries":"nope","total":1}`))
			},
			wantErr:    ebay.ErrUpstreamSchema,
			errContain: "parsing search response",
			wantCalls:  1,
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

			mockTokens := mocks.NewMockTokenProvider(t)
			if tt.tokenErr != nil {
				mockTokens.EXPECT().
					Token(mock.Anything).
					Return("", tt.tokenErr)
			} else {
				mockTokens.EXPECT().
					Token(mock.Anything).
					Return("test-token", nil)
			}

			client := ebay.NewBrowseClient(
				mockTokens,
				ebay.WithBrowseURL(srv.URL),
				ebay.WithRetry(3, time.Millisecond),
			)

			resp, err := client.Search(context.Background(), tt.req)
			assert.Equal(t, tt.wantCalls, calls.Load())

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Contains(t, err.Error(), tt.errContain)
				assert.NotContains(t, err.Error(), "secret")
				return
			}

			require.NoError(t, err)
			require.NotNil(t, resp)
			assert.Len(t, resp.Items, tt.wantItems)
			assert.Equal(t, tt.wantMore, resp.HasMore)
		})
	}
}

func TestBrowseClient_Search_ItemFields(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"itemSummaries": [{
				"itemId": "v1|9|0",
				"title": "Laptop",
				"price": {"value": "499.99", "currency": "GBP"},
				"condition": "Used",
				"conditionId": "3000",
				"seller": {"username": "bob", "feedbackScore": 321, "feedbackPercentage": "98.7"},
				"itemLocation": {"country": "GB"},
				"itemWebUrl": "https://ebay.com/9"
			}, {
				"itemId": "v1|10|0",
				"title": "No price"
			}],
			"total": 2
		}`))
	}))
	defer srv.Close()

	mockTokens := mocks.NewMockTokenProvider(t)
	mockTokens.EXPECT().Token(mock.Anything).Return("test-token", nil)

	client := ebay.NewBrowseClient(mockTokens, ebay.WithBrowseURL(srv.URL))
	resp, err := client.Search(context.Background(), ebay.SearchRequest{Query: "laptop"})
	require.NoError(t, err)
	require.Len(t, resp.Items, 2)

	item := resp.Items[0]
	require.NotNil(t, item.Price)
	assert.Equal(t, "499.99", item.Price.Value)
	assert.Equal(t, "GBP", item.Price.Currency)
	assert.Equal(t, "3000", item.ConditionID)
	require.NotNil(t, item.Seller)
	assert.Equal(t, 321, item.Seller.FeedbackScore)
	assert.Equal(t, "98.7", item.Seller.FeedbackPercentage)
	require.NotNil(t, item.ItemLocation)
	assert.Equal(t, "GB", item.ItemLocation.Country)

	assert.Nil(t, resp.Items[1].Price)
}

func TestBrowseClient_Search_RetriesAfter429(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(emptyPage))
	}))
	defer srv.Close()

	mockTokens := mocks.NewMockTokenProvider(t)
	mockTokens.EXPECT().Token(mock.Anything).Return("test-token", nil)

	client := ebay.NewBrowseClient(
		mockTokens,
		ebay.WithBrowseURL(srv.URL),
		ebay.WithRetry(3, time.Millisecond),
	)

	_, err := client.Search(context.Background(), ebay.SearchRequest{Query: "test"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestBrowseClient_Search_Unauthorized(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    func(call int32) int
		wantErr   error
		wantCalls int32
	}{
		{
			name: "401 refreshes token and retries once",
			status: func(call int32) int {
				if call == 1 {
					return http.StatusUnauthorized
				}
				return http.StatusOK
			},
			wantCalls: 2,
		},
		{
			name: "403 refreshes token and retries once",
			status: func(call int32) int {
				if call == 1 {
					return http.StatusForbidden
				}
				return http.StatusOK
			},
			wantCalls: 2,
		},
		{
			name:      "rejected twice fails with upstream auth error",
			status:    func(int32) int { return http.StatusUnauthorized },
			wantErr:   ebay.ErrUpstreamAuth,
			wantCalls: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := calls.Add(1)
				assert.Equal(t, fmt.Sprintf("Bearer token-%d", n), r.Header.Get("Authorization"))
				status := tt.status(n)
				w.WriteHeader(status)
				if status == http.StatusOK {
					_, _ = w.Write([]byte(emptyPage))
				}
			}))
			defer srv.Close()

			mockTokens := mocks.NewMockTokenProvider(t)
			mockTokens.EXPECT().Token(mock.Anything).Return("token-1", nil).Once()
			mockTokens.EXPECT().Token(mock.Anything).Return("token-2", nil).Once()
			mockTokens.EXPECT().Invalidate("token-1").Return().Once()
			if tt.wantErr != nil {
				mockTokens.EXPECT().Invalidate("token-2").Return().Once()
			}

			client := ebay.NewBrowseClient(
				mockTokens,
				ebay.WithBrowseURL(srv.URL),
				ebay.WithRetry(3, time.Millisecond),
			)

			_, err := client.Search(context.Background(), ebay.SearchRequest{Query: "test"})
			assert.Equal(t, tt.wantCalls, calls.Load())
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestBrowseClient_Search_RateLimited(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(emptyPage))
	}))
	defer srv.Close()

	mockTokens := mocks.NewMockTokenProvider(t)
	mockTokens.EXPECT().
		Token(mock.Anything).
		Return("test-token", nil).
		Maybe()

	// Rate limiter with daily limit of 1.
	rl := ebay.NewRateLimiter(100, 10, 1)
	client := ebay.NewBrowseClient(
		mockTokens,
		ebay.WithBrowseURL(srv.URL),
		ebay.WithRateLimiter(rl),
	)

	_, err := client.Search(context.Background(), ebay.SearchRequest{Query: "test"})
	require.NoError(t, err)

	// Second call hits daily limit and is not retried.
	_, err = client.Search(context.Background(), ebay.SearchRequest{Query: "test"})
	require.ErrorIs(t, err, ebay.ErrDailyLimitReached)
	assert.Contains(t, err.Error(), "rate limit:")
	assert.Equal(t, int64(1), rl.DailyCount())
}

func TestBrowseClient_Search_CanceledContext(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	mockTokens := mocks.NewMockTokenProvider(t)
	mockTokens.EXPECT().Token(mock.Anything).Return("test-token", nil).Maybe()

	client := ebay.NewBrowseClient(
		mockTokens,
		ebay.WithBrowseURL(srv.URL),
		ebay.WithRetry(3, time.Hour),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := client.Search(ctx, ebay.SearchRequest{Query: "test"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ebay.ErrUpstreamRateLimit))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestBrowseClient_Search_HTMLResponse(t *testing.T) {
	t.Parallel()

	// eBay returns HTML instead of JSON (e.g., error page or captcha).
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write(
			[]byte(`<!DOCTYPE html><html><body><h1>Service Unavailable</h1></body></html>`),
		)
	}))
	defer srv.Close()

	mockTokens := mocks.NewMockTokenProvider(t)
	mockTokens.EXPECT().
		Token(mock.Anything).
		Return("test-token", nil)

	client := ebay.NewBrowseClient(mockTokens, ebay.WithBrowseURL(srv.URL))
	_, err := client.Search(context.Background(), ebay.SearchRequest{Query: "test"})
	require.ErrorIs(t, err, ebay.ErrUpstreamSchema)
	assert.Contains(t, err.Error(), "parsing search response")
}

func TestBrowseClient_Search_QueryParams(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		req       ebay.SearchRequest
		opts      []ebay.BrowseOption
		wantQuery map[string]string
		wantMkt   string
	}{
		{
			name: "basic query with defaults",
			req:  ebay.SearchRequest{Query: "laptop"},
			wantQuery: map[string]string{
				"q":     "laptop",
				"limit": "50",
			},
			wantMkt: "EBAY_US",
		},
		{
			name: "with category and sort",
			req: ebay.SearchRequest{
				Query:      "gaming laptop",
				CategoryID: "177",
				Sort:       "price",
				Limit:      25,
			},
			wantQuery: map[string]string{
				"q":            "gaming laptop",
				"category_ids": "177",
				"sort":         "price",
				"limit":        "25",
			},
			wantMkt: "EBAY_US",
		},
		{
			name: "with offset and marketplace",
			req: ebay.SearchRequest{
				Query:  "test",
				Limit:  10,
				Offset: 20,
			},
			opts: []ebay.BrowseOption{ebay.WithMarketplace("EBAY_DE")},
			wantQuery: map[string]string{
				"q":      "test",
				"limit":  "10",
				"offset": "20",
			},
			wantMkt: "EBAY_DE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					for k, v := range tt.wantQuery {
						assert.Equalf(t, v, r.URL.Query().Get(k), "query param %q", k)
					}
					assert.Equal(t, tt.wantMkt, r.Header.Get("X-EBAY-C-MARKETPLACE-ID"))
					w.Header().Set("Content-Type", "application/json")
					_, _ = w.Write([]byte(emptyPage))
				}),
			)
			defer srv.Close()

			mockTokens := mocks.NewMockTokenProvider(t)
			mockTokens.EXPECT().
				Token(mock.Anything).
				Return("test-token", nil)

			opts := append([]ebay.BrowseOption{ebay.WithBrowseURL(srv.URL)}, tt.opts...)
			client := ebay.NewBrowseClient(mockTokens, opts...)

			_, err := client.Search(context.Background(), tt.req)
			require.NoError(t, err)
		})
	}
}
