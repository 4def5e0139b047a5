package client

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"time"
)

// SearchRequest is the body of a product search.
type SearchRequest struct {
	ProductName string `json:"product_name"`
	Condition   string `json:"condition,omitempty"`
	Currency    string `json:"currency,omitempty"`
	SortBy      string `json:"sort_by,omitempty"`
}

// Product is one search result. Price is in Currency.
type Product struct {
	Title               string  `json:"title"`
	Price               float64 `json:"price"`
	Currency            string  `json:"currency"`
	OriginalPrice       float64 `json:"original_price"`
	OriginalCurrency    string  `json:"original_currency"`
	Converted           bool    `json:"converted"`
	Condition           string  `json:"condition"`
	ConditionDisplay    string  `json:"condition_display"`
	SellerRatingPct     float64 `json:"seller_rating_pct"`
	SellerFeedbackCount int     `json:"seller_feedback_count"`
	OriginCountry       string  `json:"origin_country,omitempty"`
	URL                 string  `json:"url"`
}

// SearchResponse is the result of a product search.
type SearchResponse struct {
	Products []Product `json:"products"`
	Count    int       `json:"count"`
}

// Search runs a product search. The results become the session's export set.
func (c *Client) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	var resp SearchResponse
	if err := c.post(ctx, "/api/v1/search", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ExportFile is a downloaded export.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Export downloads the session's last results in format (csv, json or excel).
func (c *Client) Export(ctx context.Context, format string) (*ExportFile, error) {
	path := "/api/v1/export"
	if format != "" {
		path += "?" + url.Values{"format": {format}}.Encode()
	}

	body, header, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	f := &ExportFile{ContentType: header.Get("Content-Type"), Data: body}
	if _, params, err := mime.ParseMediaType(header.Get("Content-Disposition")); err == nil {
		f.Filename = params["filename"]
	}
	return f, nil
}

// WriteTo writes the export data to w.
func (f *ExportFile) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(f.Data)
	if err != nil {
		return int64(n), fmt.Errorf("writing export: %w", err)
	}
	return int64(n), nil
}

// Quota is the server's view of the daily eBay call budget.
type Quota struct {
	DailyLimit int64     `json:"daily_limit"`
	DailyUsed  int64     `json:"daily_used"`
	Remaining  int64     `json:"remaining"`
	Exhausted  bool      `json:"exhausted"`
	ResetAt    time.Time `json:"reset_at"`
}

// GetQuota returns the daily eBay API quota status.
func (c *Client) GetQuota(ctx context.Context) (*Quota, error) {
	var q Quota
	if err := c.get(ctx, "/api/v1/quota", &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// SyncQuota asks the server to reconcile its quota with eBay and returns
// the updated status.
func (c *Client) SyncQuota(ctx context.Context) (*Quota, error) {
	var q Quota
	if err := c.post(ctx, "/api/v1/quota/sync", nil, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// Rates is the exchange rate snapshot the server converts with.
type Rates struct {
	Base       string             `json:"base"`
	Rates      map[string]float64 `json:"rates"`
	FetchedAt  time.Time          `json:"fetched_at"`
	AgeSeconds int64              `json:"age_seconds"`
}

// GetRates returns the exchange rates currently in use.
func (c *Client) GetRates(ctx context.Context) (*Rates, error) {
	var r Rates
	if err := c.get(ctx, "/api/v1/rates", &r); err != nil {
		return nil, err
	}
	return &r, nil
}
