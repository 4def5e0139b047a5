package engine

import (
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"github.com/donaldgifford/product-aggregator/internal/ebay"
	"github.com/donaldgifford/product-aggregator/internal/exchange"
	domain "github.com/donaldgifford/product-aggregator/pkg/types"
)

// quietLogger returns a logger that discards output for tests.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// tableConverter converts through fixed USD-based rates.
type tableConverter struct {
	rates map[string]float64
	calls atomic.Int32
}

func newTableConverter() *tableConverter {
	return &tableConverter{rates: map[string]float64{
		"USD": 1,
		"EUR": 0.9,
		"GBP": 0.8,
	}}
}

func (c *tableConverter) Convert(_ context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	c.calls.Add(1)
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return amount, nil
	}
	fr, ok := c.rates[from]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%w: no rate for %s", exchange.ErrRateUnavailable, from)
	}
	tr, ok := c.rates[to]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%w: no rate for %s", exchange.ErrRateUnavailable, to)
	}
	return amount.Mul(decimal.NewFromFloat(tr)).Div(decimal.NewFromFloat(fr)).Round(2), nil
}

// seqOf yields items in order, then err if non-nil.
func seqOf(items []ebay.ItemSummary, err error) iter.Seq2[ebay.ItemSummary, error] {
	return func(yield func(ebay.ItemSummary, error) bool) {
		for _, it := range items {
			if !yield(it, nil) {
				return
			}
		}
		if err != nil {
			yield(ebay.ItemSummary{}, err)
		}
	}
}

type listingOpt func(*ebay.ItemSummary)

func withCondition(cond string) listingOpt {
	return func(it *ebay.ItemSummary) { it.Condition = cond }
}

func withSeller(pct string, score int) listingOpt {
	return func(it *ebay.ItemSummary) {
		it.Seller = &ebay.ItemSeller{Username: "seller", FeedbackPercentage: pct, FeedbackScore: score}
	}
}

func withCountry(cc string) listingOpt {
	return func(it *ebay.ItemSummary) { it.ItemLocation = &ebay.ItemLocation{Country: cc} }
}

func listing(title, value, currency string, opts ...listingOpt) ebay.ItemSummary {
	it := ebay.ItemSummary{
		ItemID:     "v1|" + title,
		Title:      title,
		Price:      &ebay.ItemPrice{Value: value, Currency: currency},
		ItemWebURL: "https://www.ebay.com/itm/" + title,
		Condition:  "Used",
	}
	for _, opt := range opts {
		opt(&it)
	}
	return it
}

func titles(products []domain.NormalizedProduct) []string {
	out := make([]string, len(products))
	for i := range products {
		out[i] = products[i].Title
	}
	return out
}

// fakeSource serves a fixed listing set and records the upstream request.
type fakeSource struct {
	items []ebay.ItemSummary
	err   error
	got   atomic.Pointer[ebay.SearchRequest]
	calls atomic.Int32
}

func (f *fakeSource) Listings(_ context.Context, req ebay.SearchRequest) iter.Seq2[ebay.ItemSummary, error] {
	f.calls.Add(1)
	f.got.Store(&req)
	return seqOf(f.items, f.err)
}
