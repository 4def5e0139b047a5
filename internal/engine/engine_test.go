package engine

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"testing"
	"time"

	ptestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/product-aggregator/internal/ebay"
	ebayMocks "github.com/donaldgifford/product-aggregator/internal/ebay/mocks"
	"github.com/donaldgifford/product-aggregator/internal/exchange"
	"github.com/donaldgifford/product-aggregator/internal/metrics"
	"github.com/donaldgifford/product-aggregator/internal/resultcache"
	domain "github.com/donaldgifford/product-aggregator/pkg/types"
)

func newTestEngine(src ListingSource, opts ...EngineOption) (*Engine, *resultcache.MemoryCache) {
	cache := resultcache.NewMemoryCache()
	opts = append([]EngineOption{WithLogger(quietLogger())}, opts...)
	return NewEngine(src, newTestProcessor(), cache, opts...), cache
}

func searchReq(query string) domain.SearchRequest {
	return domain.SearchRequest{Query: query, Currency: "USD"}
}

func TestNewEngine_Defaults(t *testing.T) {
	t.Parallel()

	eng, _ := newTestEngine(&fakeSource{})
	assert.Equal(t, defaultSearchTimeout, eng.searchTimeout)
	assert.Len(t, eng.allowed, len(DefaultCurrencies))
	assert.True(t, eng.allowed["EUR"])
	assert.Empty(t, eng.categoryID)
}

func TestEngine_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		req     domain.SearchRequest
		want    domain.SearchRequest
		wantErr string
	}{
		{
			name: "defaults are filled",
			req:  domain.SearchRequest{Query: "  laptop "},
			want: domain.SearchRequest{
				Query: "laptop", Condition: domain.FilterAll, Currency: "USD", Sort: domain.SortPriceAsc,
			},
		},
		{
			name: "case insensitive values",
			req:  domain.SearchRequest{Query: "laptop", Condition: "used", Currency: "eur", Sort: "rating_desc"},
			want: domain.SearchRequest{
				Query: "laptop", Condition: domain.FilterUsed, Currency: "EUR", Sort: domain.SortRatingDesc,
			},
		},
		{
			name:    "empty query",
			req:     domain.SearchRequest{Query: "   "},
			wantErr: "Query must not be empty.",
		},
		{
			name:    "currency not allowed",
			req:     domain.SearchRequest{Query: "x", Currency: "MKD"},
			wantErr: `Unsupported currency "MKD".`,
		},
		{
			name:    "bad condition",
			req:     domain.SearchRequest{Query: "x", Condition: "broken"},
			wantErr: `Unsupported condition "broken"`,
		},
		{
			name:    "bad sort",
			req:     domain.SearchRequest{Query: "x", Sort: "newest"},
			wantErr: `Unsupported sort "newest"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			eng, _ := newTestEngine(&fakeSource{})
			got, err := eng.Validate(tt.req)
			if tt.wantErr != "" {
				require.ErrorIs(t, err, ErrValidation)
				var se *SearchError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, KindValidation, se.Kind)
				assert.Contains(t, se.Message, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEngine_AllowedCurrenciesOption(t *testing.T) {
	t.Parallel()

	eng, _ := newTestEngine(&fakeSource{}, WithAllowedCurrencies([]string{"usd", " mkd"}))
	_, err := eng.Validate(domain.SearchRequest{Query: "x", Currency: "MKD"})
	require.NoError(t, err)
	_, err = eng.Validate(domain.SearchRequest{Query: "x", Currency: "EUR"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestEngine_Execute(t *testing.T) {
	t.Parallel()

	src := &fakeSource{items: []ebay.ItemSummary{
		listing("pricey", "100", "USD"),
		listing("cheap", "80", "USD"),
	}}
	eng, _ := newTestEngine(src, WithCategoryID("177"))

	before := ptestutil.ToFloat64(metrics.SearchesTotal.WithLabelValues("success"))

	products, count, err := eng.Execute(context.Background(), "s1", searchReq("laptop"))
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, []string{"cheap", "pricey"}, titles(products))

	got := src.got.Load()
	require.NotNil(t, got)
	assert.Equal(t, "laptop", got.Query)
	assert.Equal(t, "177", got.CategoryID)

	assert.GreaterOrEqual(t, ptestutil.ToFloat64(metrics.SearchesTotal.WithLabelValues("success")), before+1)
}

func TestEngine_ExecuteValidationSkipsFetch(t *testing.T) {
	t.Parallel()

	src := &fakeSource{}
	eng, _ := newTestEngine(src)

	_, _, err := eng.Execute(context.Background(), "s1", domain.SearchRequest{Query: ""})
	require.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, src.calls.Load())
}

func TestEngine_ExecuteErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantKind ErrorKind
	}{
		{"auth", fmt.Errorf("getting auth token: %w", ebay.ErrAuth), KindServiceUnavailable},
		{"upstream auth", fmt.Errorf("searching page 0: %w", ebay.ErrUpstreamAuth), KindServiceUnavailable},
		{"rate limited", fmt.Errorf("searching page 1: %w", ebay.ErrUpstreamRateLimit), KindRateLimited},
		{"daily limit", fmt.Errorf("rate limit: %w", ebay.ErrDailyLimitReached), KindRateLimited},
		{"schema", fmt.Errorf("parsing: %w", ebay.ErrUpstreamSchema), KindServiceUnavailable},
		{"unavailable", fmt.Errorf("status 503: %w", ebay.ErrUpstreamUnavailable), KindServiceUnavailable},
		{"rates", fmt.Errorf("%w: source down", exchange.ErrRateUnavailable), KindCurrencyUnavailable},
		{"timeout", context.DeadlineExceeded, KindServiceUnavailable},
		{"unexpected", errors.New("secret internal detail"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			eng, cache := newTestEngine(&fakeSource{err: tt.err})

			products, count, err := eng.Execute(context.Background(), "s1", searchReq("laptop"))
			require.Error(t, err)
			assert.Nil(t, products)
			assert.Zero(t, count)

			var se *SearchError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.wantKind, se.Kind)
			assert.ErrorIs(t, err, tt.err)
			assert.NotContains(t, se.Message, "secret")
			assert.NotContains(t, se.Error(), "status 503")

			_, cacheErr := cache.Get(context.Background(), "s1")
			assert.ErrorIs(t, cacheErr, resultcache.ErrCacheMiss, "failed search must not be cached")
		})
	}
}

func TestEngine_ExecuteIgnoresCallerCancellation(t *testing.T) {
	t.Parallel()

	src := &ctxCheckingSource{items: []ebay.ItemSummary{listing("a", "1", "USD")}}
	eng, _ := newTestEngine(src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	products, _, err := eng.Execute(ctx, "s1", searchReq("x"))
	require.NoError(t, err)
	assert.Len(t, products, 1)
	assert.True(t, src.hadDeadline)
}

type ctxCheckingSource struct {
	items       []ebay.ItemSummary
	hadDeadline bool
}

func (s *ctxCheckingSource) Listings(ctx context.Context, _ ebay.SearchRequest) iter.Seq2[ebay.ItemSummary, error] {
	_, s.hadDeadline = ctx.Deadline()
	if ctx.Err() != nil {
		return seqOf(nil, ctx.Err())
	}
	return seqOf(s.items, nil)
}

func TestEngine_Export(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 6, 1, 9, 30, 0, 0, time.UTC)
	src := &fakeSource{items: []ebay.ItemSummary{listing("a", "5", "USD")}}
	eng, _ := newTestEngine(src, WithNowFunc(func() time.Time { return now }))
	ctx := context.Background()

	t.Run("no search yet", func(t *testing.T) {
		_, err := eng.Export(ctx, "fresh")
		var se *SearchError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, KindNoData, se.Kind)
	})

	t.Run("returns last results", func(t *testing.T) {
		_, _, err := eng.Execute(ctx, "s1", searchReq("widget"))
		require.NoError(t, err)

		got, err := eng.Export(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, "widget", got.Request.Query)
		assert.Equal(t, domain.SortPriceAsc, got.Request.Sort)
		assert.Equal(t, now, got.StoredAt)
		assert.Equal(t, []string{"a"}, titles(got.Products))
	})

	t.Run("empty session name shares the default slot", func(t *testing.T) {
		_, _, err := eng.Execute(ctx, "", searchReq("cli"))
		require.NoError(t, err)
		got, err := eng.Export(ctx, defaultSession)
		require.NoError(t, err)
		assert.Equal(t, "cli", got.Request.Query)
	})

	t.Run("empty result set has no data", func(t *testing.T) {
		empty, _ := newTestEngine(&fakeSource{})
		_, count, err := empty.Execute(ctx, "s2", searchReq("nothing"))
		require.NoError(t, err)
		assert.Zero(t, count)

		_, err = empty.Export(ctx, "s2")
		var se *SearchError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, KindNoData, se.Kind)
	})
}

func TestEngine_SessionsDoNotLeak(t *testing.T) {
	t.Parallel()

	eng, _ := newTestEngine(&queryEchoSource{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session := fmt.Sprintf("user-%d", i)
			_, _, err := eng.Execute(ctx, session, searchReq(session))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	for i := range 20 {
		session := fmt.Sprintf("user-%d", i)
		got, err := eng.Export(ctx, session)
		require.NoError(t, err)
		assert.Equal(t, session, got.Request.Query)
		assert.Equal(t, []string{session}, titles(got.Products))
	}
}

// queryEchoSource returns a single listing titled after the query.
type queryEchoSource struct{}

func (queryEchoSource) Listings(_ context.Context, req ebay.SearchRequest) iter.Seq2[ebay.ItemSummary, error] {
	return seqOf([]ebay.ItemSummary{listing(req.Query, "1", "USD")}, nil)
}

type failingCache struct{ err error }

func (f failingCache) Get(context.Context, string) (*domain.CachedResults, error) {
	return nil, f.err
}

func (f failingCache) Set(context.Context, string, *domain.CachedResults) error {
	return f.err
}

func TestEngine_CacheFailures(t *testing.T) {
	t.Parallel()

	cacheErr := errors.New("redis down")
	src := &fakeSource{items: []ebay.ItemSummary{listing("a", "1", "USD")}}
	eng := NewEngine(src, newTestProcessor(), failingCache{err: cacheErr}, WithLogger(quietLogger()))

	products, count, err := eng.Execute(context.Background(), "s1", searchReq("x"))
	require.NoError(t, err, "cache write failure must not fail the search")
	assert.Equal(t, 1, count)
	assert.Len(t, products, 1)

	_, err = eng.Export(context.Background(), "s1")
	var se *SearchError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, KindInternal, se.Kind)
	assert.ErrorIs(t, err, cacheErr)
}

// staticRates is an exchange.RateSource with fixed USD-based rates.
type staticRates struct{}

func (staticRates) Latest(_ context.Context, base string) (*domain.ExchangeRateSnapshot, error) {
	return &domain.ExchangeRateSnapshot{
		Base:      base,
		Rates:     map[string]float64{"USD": 1, "EUR": 0.92},
		FetchedAt: time.Now(),
	}, nil
}

func TestEngine_EndToEndLaptopEUR(t *testing.T) {
	t.Parallel()

	client := ebayMocks.NewMockEbayClient(t)
	client.EXPECT().Search(mock.Anything, mock.MatchedBy(func(r ebay.SearchRequest) bool {
		return r.Query == "laptop" && r.Offset == 0
	})).Return(&ebay.SearchResponse{
		Items: []ebay.ItemSummary{
			listing("laptop-100", "100.00", "USD", withCondition("USED_GOOD"), withSeller("99.1", 40)),
			listing("laptop-80", "80.00", "USD", withCondition("NEW"), withSeller("97.0", 12)),
		},
		Total:   2,
		HasMore: false,
	}, nil).Once()

	pag := ebay.NewPaginator(client, ebay.WithPageSize(50), ebay.WithMaxPages(3), ebay.WithPaginatorLogger(quietLogger()))
	conv := exchange.NewConverter(staticRates{}, exchange.WithLogger(quietLogger()))
	proc := NewProcessor(conv, WithProcessorLogger(quietLogger()))
	eng := NewEngine(pag, proc, resultcache.NewMemoryCache(), WithLogger(quietLogger()))

	products, count, err := eng.Execute(context.Background(), "s1", domain.SearchRequest{
		Query:     "laptop",
		Condition: domain.FilterAll,
		Currency:  "EUR",
		Sort:      domain.SortPriceAsc,
	})
	require.NoError(t, err)
	require.Equal(t, 2, count)

	assert.Equal(t, []string{"laptop-80", "laptop-100"}, titles(products))
	for _, p := range products {
		assert.Equal(t, "EUR", p.Currency)
		assert.True(t, p.Converted)
	}
	assert.True(t, products[0].ConvertedPrice.Equal(decimal.RequireFromString("73.6")), products[0].ConvertedPrice.String())
	assert.True(t, products[1].ConvertedPrice.Equal(decimal.RequireFromString("92")), products[1].ConvertedPrice.String())
}
