package ebay

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"sync/atomic"
)

const (
	defaultPageSize = 100
	defaultMaxPages = 3
	maxPageSize     = 200
)

// Paginator walks Browse API result pages.
type Paginator struct {
	client   EbayClient
	logger   *slog.Logger
	pageSize int
	maxPages int
}

// PaginatorOption configures the Paginator.
type PaginatorOption func(*Paginator)

// WithPageSize overrides the default page size. eBay caps it at 200.
func WithPageSize(size int) PaginatorOption {
	return func(p *Paginator) {
		if size > 0 {
			p.pageSize = min(size, maxPageSize)
		}
	}
}

// WithMaxPages overrides the default max pages.
func WithMaxPages(n int) PaginatorOption {
	return func(p *Paginator) {
		if n > 0 {
			p.maxPages = n
		}
	}
}

// WithPaginatorLogger sets the logger.
func WithPaginatorLogger(l *slog.Logger) PaginatorOption {
	return func(p *Paginator) {
		p.logger = l
	}
}

// NewPaginator creates a new Paginator.
func NewPaginator(client EbayClient, opts ...PaginatorOption) *Paginator {
	p := &Paginator{
		client:   client,
		logger:   slog.Default(),
		pageSize: defaultPageSize,
		maxPages: defaultMaxPages,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Listings returns a lazy sequence over the listings matching req. Pages are
// requested only as the consumer advances and each page is fetched at most
// once. Iteration ends when a page comes back empty, the upstream reports no
// further pages, or maxPages pages have been read. Breaking out of the loop
// stops fetching.
//
// The sequence is single-pass: ranging over it again yields
// ErrSequenceConsumed. A fetch error is yielded once and ends the sequence.
func (p *Paginator) Listings(ctx context.Context, req SearchRequest) iter.Seq2[ItemSummary, error] {
	var consumed atomic.Bool

	return func(yield func(ItemSummary, error) bool) {
		if consumed.Swap(true) {
			yield(ItemSummary{}, ErrSequenceConsumed)
			return
		}

		req.Limit = p.pageSize

		for page := range p.maxPages {
			req.Offset = page * p.pageSize

			resp, err := p.client.Search(ctx, req)
			if err != nil {
				yield(ItemSummary{}, fmt.Errorf("searching page %d: %w", page, err))
				return
			}

			for i := range resp.Items {
				if !yield(resp.Items[i], nil) {
					return
				}
			}

			if len(resp.Items) == 0 || !resp.HasMore {
				p.logger.Debug("pagination complete",
					"query", req.Query, "pages", page+1, "reason", "no_more_results")
				return
			}
		}

		p.logger.Debug("pagination complete",
			"query", req.Query, "pages", p.maxPages, "reason", "max_pages")
	}
}
