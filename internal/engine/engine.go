package engine

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/donaldgifford/product-aggregator/internal/ebay"
	"github.com/donaldgifford/product-aggregator/internal/metrics"
	"github.com/donaldgifford/product-aggregator/internal/resultcache"
	domain "github.com/donaldgifford/product-aggregator/pkg/types"
)

const (
	defaultSearchTimeout = 60 * time.Second
	defaultSession       = "default"
)

// DefaultCurrencies are the display currencies accepted when none are
// configured.
var DefaultCurrencies = []string{"USD", "EUR", "GBP", "JPY", "CAD", "CNY", "HKD", "AUD", "SGD", "CHF"}

// ListingSource produces the raw listings for one search. ebay.Paginator
// satisfies it.
type ListingSource interface {
	Listings(ctx context.Context, req ebay.SearchRequest) iter.Seq2[ebay.ItemSummary, error]
}

// Engine runs product searches end to end and keeps each session's last
// result set for export.
type Engine struct {
	source    ListingSource
	processor *Processor
	cache     resultcache.Cache
	log       *slog.Logger
	tracer    trace.Tracer

	allowed       map[string]bool
	categoryID    string
	searchTimeout time.Duration
	nowFunc       func() time.Time
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.log = l
	}
}

// WithAllowedCurrencies restricts the display currencies a request may ask
// for. Codes are matched case-insensitively.
func WithAllowedCurrencies(codes []string) EngineOption {
	return func(e *Engine) {
		if len(codes) == 0 {
			return
		}
		e.allowed = currencySet(codes)
	}
}

// WithCategoryID limits upstream searches to one marketplace category.
func WithCategoryID(id string) EngineOption {
	return func(e *Engine) {
		e.categoryID = id
	}
}

// WithSearchTimeout bounds the total duration of one search.
func WithSearchTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.searchTimeout = d
		}
	}
}

// WithNowFunc overrides the clock (for testing).
func WithNowFunc(fn func() time.Time) EngineOption {
	return func(e *Engine) {
		e.nowFunc = fn
	}
}

// NewEngine creates a new Engine with injected dependencies.
func NewEngine(
	src ListingSource,
	proc *Processor,
	cache resultcache.Cache,
	opts ...EngineOption,
) *Engine {
	eng := &Engine{
		source:        src,
		processor:     proc,
		cache:         cache,
		log:           slog.Default(),
		tracer:        otel.Tracer("github.com/donaldgifford/product-aggregator/internal/engine"),
		allowed:       currencySet(DefaultCurrencies),
		searchTimeout: defaultSearchTimeout,
		nowFunc:       time.Now,
	}
	for _, opt := range opts {
		opt(eng)
	}
	return eng
}

// Validate normalizes req and checks it against the accepted values. Empty
// condition and sort fields take their defaults. Failures are SearchErrors
// of KindValidation.
func (eng *Engine) Validate(req domain.SearchRequest) (domain.SearchRequest, error) {
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return req, validationError("Query must not be empty.")
	}

	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	if req.Currency == "" {
		req.Currency = defaultSourceCurrency
	}
	if !eng.allowed[req.Currency] {
		return req, validationError(fmt.Sprintf("Unsupported currency %q.", req.Currency))
	}

	cond, ok := domain.ParseConditionFilter(string(req.Condition))
	if !ok {
		return req, validationError(fmt.Sprintf("Unsupported condition %q; use all, new or used.", req.Condition))
	}
	req.Condition = cond

	sortKey, ok := domain.ParseSortKey(string(req.Sort))
	if !ok {
		return req, validationError(fmt.Sprintf(
			"Unsupported sort %q; use price_asc, price_desc, rating_asc or rating_desc.", req.Sort,
		))
	}
	req.Sort = sortKey

	return req, nil
}

// Execute validates req, fetches and processes the matching listings and
// stores the result as the session's export set. It returns the products
// and their count, or a *SearchError.
//
// The search runs to completion or to the search timeout even if ctx is
// canceled, so a finished result set is always cached.
func (eng *Engine) Execute(
	ctx context.Context,
	session string,
	req domain.SearchRequest,
) ([]domain.NormalizedProduct, int, error) {
	start := eng.nowFunc()

	req, err := eng.Validate(req)
	if err != nil {
		eng.record(req, start, 0, err)
		return nil, 0, err
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eng.searchTimeout)
	defer cancel()

	ctx, span := eng.tracer.Start(ctx, "engine.Execute", trace.WithAttributes(
		attribute.String("search.query", req.Query),
		attribute.String("search.condition", string(req.Condition)),
		attribute.String("search.currency", req.Currency),
		attribute.String("search.sort", string(req.Sort)),
	))
	defer span.End()

	listings := eng.source.Listings(ctx, ebay.SearchRequest{
		Query:      req.Query,
		CategoryID: eng.categoryID,
	})

	products, err := eng.processor.Process(ctx, listings, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		err = classify(err)
		eng.record(req, start, 0, err)
		return nil, 0, err
	}
	span.SetAttributes(attribute.Int("search.results", len(products)))

	eng.storeResults(ctx, session, req, products)
	eng.record(req, start, len(products), nil)

	return products, len(products), nil
}

// Export returns the session's most recent result set. A session without a
// cached or non-empty set gets a *SearchError of KindNoData.
func (eng *Engine) Export(ctx context.Context, session string) (*domain.CachedResults, error) {
	results, err := eng.cache.Get(ctx, sessionKey(session))
	switch {
	case errors.Is(err, resultcache.ErrCacheMiss):
		metrics.ResultCacheOpsTotal.WithLabelValues("get", "miss").Inc()
		return nil, &SearchError{Kind: KindNoData, Message: msgNoData, Err: err}
	case err != nil:
		metrics.ResultCacheOpsTotal.WithLabelValues("get", "error").Inc()
		eng.log.Error("loading cached results", "error", err)
		return nil, &SearchError{Kind: KindInternal, Message: msgInternal, Err: err}
	}
	metrics.ResultCacheOpsTotal.WithLabelValues("get", "hit").Inc()

	if len(results.Products) == 0 {
		return nil, &SearchError{Kind: KindNoData, Message: msgNoData}
	}
	return results, nil
}

// storeResults replaces the session's export set. A cache failure is logged and
// does not fail the search.
func (eng *Engine) storeResults(
	ctx context.Context,
	session string,
	req domain.SearchRequest,
	products []domain.NormalizedProduct,
) {
	err := eng.cache.Set(ctx, sessionKey(session), &domain.CachedResults{
		Request:  req,
		Products: products,
		StoredAt: eng.nowFunc(),
	})
	if err != nil {
		metrics.ResultCacheOpsTotal.WithLabelValues("set", "error").Inc()
		eng.log.Error("caching search results", "error", err)
		return
	}
	metrics.ResultCacheOpsTotal.WithLabelValues("set", "ok").Inc()
}

func (eng *Engine) record(req domain.SearchRequest, start time.Time, n int, err error) {
	elapsed := eng.nowFunc().Sub(start)
	metrics.SearchDuration.Observe(elapsed.Seconds())

	if err == nil {
		metrics.SearchesTotal.WithLabelValues("success").Inc()
		metrics.SearchResults.Observe(float64(n))
		eng.log.Info("search complete",
			"query", req.Query,
			"condition", req.Condition,
			"currency", req.Currency,
			"sort", req.Sort,
			"results", n,
			"duration", elapsed,
		)
		return
	}

	var se *SearchError
	kind := KindInternal
	if errors.As(err, &se) {
		kind = se.Kind
	}
	metrics.SearchesTotal.WithLabelValues(string(kind)).Inc()

	level := slog.LevelError
	if kind == KindValidation {
		level = slog.LevelInfo
	}
	eng.log.Log(context.Background(), level, "search failed",
		"query", req.Query,
		"kind", kind,
		"error", errors.Unwrap(err),
		"duration", elapsed,
	)
}

func sessionKey(session string) string {
	if session == "" {
		return defaultSession
	}
	return session
}

func currencySet(codes []string) map[string]bool {
	set := make(map[string]bool, len(codes))
	for _, c := range codes {
		set[strings.ToUpper(strings.TrimSpace(c))] = true
	}
	return set
}
