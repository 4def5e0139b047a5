// Package ebay provides an eBay Browse API client abstracted behind interfaces
// for testability.
package ebay

import (
	"context"
)

// SearchRequest defines the parameters for one Browse API page request.
type SearchRequest struct {
	Query      string
	CategoryID string
	Limit      int
	Offset     int
	Sort       string // "price", "-price", "newlyListed"
	Filters    map[string]string
}

// SearchResponse holds one page of eBay search results.
type SearchResponse struct {
	Items   []ItemSummary
	Total   int
	Offset  int
	Limit   int
	HasMore bool
}

// EbayClient defines the interface for interacting with the eBay API.
type EbayClient interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// TokenProvider defines the interface for obtaining OAuth2 tokens.
//
// Invalidate drops the cached token if it is still the given value, so the
// next Token call performs a refresh. It is used after the Browse API
// rejects a token that looked valid locally.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
	Invalidate(token string)
}
