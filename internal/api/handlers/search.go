package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/product-aggregator/internal/api/middleware"
	domain "github.com/donaldgifford/product-aggregator/pkg/types"
)

// Searcher runs product searches and serves the last result set of a
// session. *engine.Engine satisfies it.
type Searcher interface {
	Execute(ctx context.Context, session string, req domain.SearchRequest) ([]domain.NormalizedProduct, int, error)
	Export(ctx context.Context, session string) (*domain.CachedResults, error)
}

// SearchHandler handles product search requests.
type SearchHandler struct {
	searcher Searcher
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(s Searcher) *SearchHandler {
	return &SearchHandler{searcher: s}
}

// SearchInput is the request body for the search endpoint.
type SearchInput struct {
	Body struct {
		ProductName string `json:"product_name,omitempty" doc:"Product to search for" example:"laptop"`
		Query       string `json:"query,omitempty"        doc:"Alias of product_name"`
		Condition   string `json:"condition,omitempty"    doc:"all, new or used (default all)"                              example:"used"`
		Currency    string `json:"currency,omitempty"     doc:"Target currency code (default USD)"                          example:"EUR"`
		SortBy      string `json:"sort_by,omitempty"      doc:"price_asc, price_desc, rating_asc or rating_desc (default price_asc)" example:"price_asc"`
	}
}

// ProductView is one product as returned by the API. Price is in Currency.
type ProductView struct {
	Title               string  `json:"title"                    example:"Lenovo ThinkPad T480"`
	Price               float64 `json:"price"                    example:"73.6"`
	Currency            string  `json:"currency"                 example:"EUR"`
	OriginalPrice       float64 `json:"original_price"           example:"80"`
	OriginalCurrency    string  `json:"original_currency"        example:"USD"`
	Converted           bool    `json:"converted"                doc:"False when the price could not be converted and is shown in its original currency"`
	Condition           string  `json:"condition"                example:"USED_GOOD"`
	ConditionDisplay    string  `json:"condition_display"        example:"Used - Good"`
	SellerRatingPct     float64 `json:"seller_rating_pct"        example:"99.2"`
	SellerFeedbackCount int     `json:"seller_feedback_count"    example:"1520"`
	OriginCountry       string  `json:"origin_country,omitempty" example:"US"`
	URL                 string  `json:"url"                      example:"https://www.ebay.com/itm/123"`
}

// SearchOutput is the response body for the search endpoint.
type SearchOutput struct {
	Body struct {
		Products []ProductView `json:"products" doc:"Filtered and sorted products"`
		Count    int           `json:"count"    doc:"Number of products returned"`
	}
}

// Search runs a product search for the caller's session.
func (h *SearchHandler) Search(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	query := input.Body.ProductName
	if query == "" {
		query = input.Body.Query
	}

	products, count, err := h.searcher.Execute(ctx, middleware.SessionFromContext(ctx), domain.SearchRequest{
		Query:     query,
		Condition: domain.ConditionFilter(input.Body.Condition),
		Currency:  input.Body.Currency,
		Sort:      domain.SortKey(input.Body.SortBy),
	})
	if err != nil {
		return nil, searchError(err)
	}

	out := &SearchOutput{}
	out.Body.Products = make([]ProductView, 0, len(products))
	for i := range products {
		out.Body.Products = append(out.Body.Products, toView(&products[i]))
	}
	out.Body.Count = count
	return out, nil
}

func toView(p *domain.NormalizedProduct) ProductView {
	return ProductView{
		Title:               p.Title,
		Price:               p.ConvertedPrice.InexactFloat64(),
		Currency:            p.Currency,
		OriginalPrice:       p.Price.InexactFloat64(),
		OriginalCurrency:    p.SourceCurrency,
		Converted:           p.Converted,
		Condition:           string(p.Condition),
		ConditionDisplay:    p.ConditionDisplay,
		SellerRatingPct:     p.SellerRatingPct,
		SellerFeedbackCount: p.SellerFeedbackCount,
		OriginCountry:       p.OriginCountry,
		URL:                 p.URL,
	}
}

// RegisterSearchRoutes registers search endpoints with the Huma API.
func RegisterSearchRoutes(api huma.API, h *SearchHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "search-products",
		Method:      http.MethodPost,
		Path:        "/api/v1/search",
		Summary:     "Search products",
		Description: "Searches eBay listings, normalizes condition, converts prices and returns the filtered, sorted products. The result set is kept for export.",
		Tags:        []string{"search"},
		Errors: []int{
			http.StatusBadRequest,
			http.StatusTooManyRequests,
			http.StatusServiceUnavailable,
		},
	}, h.Search)
}
