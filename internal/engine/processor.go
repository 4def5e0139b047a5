package engine

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/donaldgifford/product-aggregator/internal/ebay"
	"github.com/donaldgifford/product-aggregator/internal/exchange"
	"github.com/donaldgifford/product-aggregator/internal/metrics"
	"github.com/donaldgifford/product-aggregator/pkg/condition"
	domain "github.com/donaldgifford/product-aggregator/pkg/types"
)

// defaultSourceCurrency applies to listings whose price carries no currency.
const defaultSourceCurrency = "USD"

// CurrencyConverter converts a monetary amount between two currencies.
// exchange.Converter satisfies it.
type CurrencyConverter interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error)
}

// Processor turns raw upstream listings into the filtered, ordered product
// list returned to callers.
type Processor struct {
	converter           CurrencyConverter
	fallbackUnconverted bool
	log                 *slog.Logger
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithFallbackUnconverted keeps products whose price cannot be converted,
// annotated with their source currency, instead of failing the search.
func WithFallbackUnconverted(enabled bool) ProcessorOption {
	return func(p *Processor) {
		p.fallbackUnconverted = enabled
	}
}

// WithProcessorLogger sets a custom logger.
func WithProcessorLogger(l *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		p.log = l
	}
}

// NewProcessor creates a Processor that converts prices with conv.
func NewProcessor(conv CurrencyConverter, opts ...ProcessorOption) *Processor {
	p := &Processor{
		converter: conv,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process consumes listings once, normalizes each into a NormalizedProduct
// priced in req.Currency, keeps those passing req.Condition and returns them
// ordered by req.Sort. The first error yielded by listings aborts processing.
func (p *Processor) Process(
	ctx context.Context,
	listings iter.Seq2[ebay.ItemSummary, error],
	req domain.SearchRequest,
) ([]domain.NormalizedProduct, error) {
	var products []domain.NormalizedProduct

	for item, err := range listings {
		if err != nil {
			return nil, err
		}

		product, ok, err := p.normalize(ctx, &item, req.Currency)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		if !req.Condition.Matches(product.Condition) {
			metrics.ListingsSkippedTotal.WithLabelValues("condition_filter").Inc()
			continue
		}

		products = append(products, product)
	}

	SortProducts(products, req.Sort)
	return products, nil
}

// normalize builds one product. It reports false for listings that are
// skipped rather than failing the search.
func (p *Processor) normalize(
	ctx context.Context,
	item *ebay.ItemSummary,
	target string,
) (domain.NormalizedProduct, bool, error) {
	if item.Price == nil || strings.TrimSpace(item.Price.Value) == "" {
		p.log.Warn("skipping listing without price", "item_id", item.ItemID)
		metrics.ListingsSkippedTotal.WithLabelValues("missing_price").Inc()
		return domain.NormalizedProduct{}, false, nil
	}

	price, err := decimal.NewFromString(strings.TrimSpace(item.Price.Value))
	if err != nil {
		return domain.NormalizedProduct{}, false, fmt.Errorf(
			"%w: item %s has unparseable price %q", ebay.ErrUpstreamSchema, item.ItemID, item.Price.Value,
		)
	}

	source := strings.ToUpper(strings.TrimSpace(item.Price.Currency))
	if source == "" {
		source = defaultSourceCurrency
	}

	cond, display := condition.NormalizeWithID(item.Condition, item.ConditionID)

	product := domain.NormalizedProduct{
		Title:            item.Title,
		Price:            price,
		SourceCurrency:   source,
		Currency:         target,
		Condition:        cond,
		ConditionDisplay: display,
		URL:              item.ItemWebURL,
	}

	if item.Seller != nil {
		product.SellerRatingPct = parseRating(item.Seller.FeedbackPercentage)
		product.SellerFeedbackCount = item.Seller.FeedbackScore
	}
	if item.ItemLocation != nil {
		product.OriginCountry = item.ItemLocation.Country
	}

	converted, err := p.converter.Convert(ctx, price, source, target)
	switch {
	case err == nil:
		product.ConvertedPrice = converted
		product.Converted = true
	case p.fallbackUnconverted && errors.Is(err, exchange.ErrRateUnavailable):
		p.log.Warn("showing unconverted price",
			"item_id", item.ItemID, "from", source, "to", target, "error", err)
		product.ConvertedPrice = price
		product.Currency = source
	default:
		return domain.NormalizedProduct{}, false, fmt.Errorf("converting price of item %s: %w", item.ItemID, err)
	}

	return product, true, nil
}

// parseRating reads an upstream feedback percentage such as "99.5". Absent
// or malformed values count as 0.
func parseRating(s string) float64 {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// SortProducts orders products in place by key. Price keys compare
// ConvertedPrice; rating keys compare SellerRatingPct and break ties by
// SellerFeedbackCount, highest first. Full ties keep their input order.
func SortProducts(products []domain.NormalizedProduct, key domain.SortKey) {
	var less func(a, b domain.NormalizedProduct) int

	switch key {
	case domain.SortPriceDesc:
		less = func(a, b domain.NormalizedProduct) int {
			return b.ConvertedPrice.Cmp(a.ConvertedPrice)
		}
	case domain.SortRatingAsc:
		less = func(a, b domain.NormalizedProduct) int {
			return cmp.Or(
				cmp.Compare(a.SellerRatingPct, b.SellerRatingPct),
				cmp.Compare(b.SellerFeedbackCount, a.SellerFeedbackCount),
			)
		}
	case domain.SortRatingDesc:
		less = func(a, b domain.NormalizedProduct) int {
			return cmp.Or(
				cmp.Compare(b.SellerRatingPct, a.SellerRatingPct),
				cmp.Compare(b.SellerFeedbackCount, a.SellerFeedbackCount),
			)
		}
	default:
		less = func(a, b domain.NormalizedProduct) int {
			return a.ConvertedPrice.Cmp(b.ConvertedPrice)
		}
	}

	slices.SortStableFunc(products, less)
}
