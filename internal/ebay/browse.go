package ebay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/donaldgifford/product-aggregator/internal/metrics"
)

const (
	defaultBrowseURL    = "https://api.ebay.com/buy/browse/v1/item_summary/search"
	defaultMarketplace  = "EBAY_US"
	defaultMaxAttempts  = 3
	defaultRetryInitial = 500 * time.Millisecond
	defaultLimit        = 50
	maxErrorBodyLog     = 512
)

// errUnauthorized marks a 401/403 response. The token that was sent has
// already been invalidated when it is returned.
var errUnauthorized = errors.New("unauthorized")

// BrowseClient implements EbayClient using the eBay Browse API.
//
// 429 and transient failures are retried with exponential backoff up to the
// configured attempt bound. A 401/403 invalidates the credential and the
// page is retried once with a fresh token.
type BrowseClient struct {
	tokens       TokenProvider
	browseURL    string
	marketplace  string
	client       *http.Client
	rateLimiter  *RateLimiter
	maxAttempts  int
	retryInitial time.Duration
	logger       *slog.Logger
}

// BrowseOption configures the BrowseClient.
type BrowseOption func(*BrowseClient)

// WithBrowseURL overrides the default Browse API endpoint.
func WithBrowseURL(u string) BrowseOption {
	return func(c *BrowseClient) {
		c.browseURL = u
	}
}

// WithMarketplace overrides the default marketplace.
func WithMarketplace(m string) BrowseOption {
	return func(c *BrowseClient) {
		c.marketplace = m
	}
}

// WithBrowseHTTPClient overrides the default HTTP client.
func WithBrowseHTTPClient(hc *http.Client) BrowseOption {
	return func(c *BrowseClient) {
		c.client = hc
	}
}

// WithRateLimiter injects a rate limiter that controls per-second and daily
// API call limits. Every HTTP attempt goes through Wait() first.
func WithRateLimiter(r *RateLimiter) BrowseOption {
	return func(c *BrowseClient) {
		c.rateLimiter = r
	}
}

// WithRetry sets the total attempt bound for 429 and transient failures and
// the first backoff interval.
func WithRetry(maxAttempts int, initial time.Duration) BrowseOption {
	return func(c *BrowseClient) {
		if maxAttempts > 0 {
			c.maxAttempts = maxAttempts
		}
		if initial > 0 {
			c.retryInitial = initial
		}
	}
}

// WithBrowseLogger sets the logger.
func WithBrowseLogger(l *slog.Logger) BrowseOption {
	return func(c *BrowseClient) {
		c.logger = l
	}
}

// NewBrowseClient creates a new eBay Browse API client.
func NewBrowseClient(tokens TokenProvider, opts ...BrowseOption) *BrowseClient {
	c := &BrowseClient{
		tokens:       tokens,
		browseURL:    defaultBrowseURL,
		marketplace:  defaultMarketplace,
		client:       &http.Client{Timeout: 30 * time.Second},
		maxAttempts:  defaultMaxAttempts,
		retryInitial: defaultRetryInitial,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type browseAPIResponse struct {
	ItemSummaries []ItemSummary `json:"itemSummaries"`
	Total         *int          `json:"total"`
	Offset        int           `json:"offset"`
	Limit         int           `json:"limit"`
	Next          string        `json:"next"`
}

// Search implements EbayClient.Search by querying the Browse API.
func (c *BrowseClient) Search(
	ctx context.Context,
	req SearchRequest,
) (*SearchResponse, error) {
	resp, err := c.searchWithBackoff(ctx, req)
	if !errors.Is(err, errUnauthorized) {
		return resp, err
	}

	c.logger.Info("browse request unauthorized, retrying with fresh token",
		"query", req.Query, "offset", req.Offset)

	resp, err = c.searchWithBackoff(ctx, req)
	if errors.Is(err, errUnauthorized) {
		return nil, fmt.Errorf("%w: rejected after token refresh", ErrUpstreamAuth)
	}
	return resp, err
}

func (c *BrowseClient) searchWithBackoff(
	ctx context.Context,
	req SearchRequest,
) (*SearchResponse, error) {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.retryInitial
	eb.MaxElapsedTime = 0

	policy := backoff.WithContext(
		backoff.WithMaxRetries(eb, uint64(c.maxAttempts-1)), //nolint:gosec // maxAttempts >= 1
		ctx,
	)

	return backoff.RetryNotifyWithData(
		func() (*SearchResponse, error) { return c.searchOnce(ctx, req) },
		policy,
		func(err error, wait time.Duration) {
			c.logger.Warn("browse request failed, backing off",
				"error", err, "wait", wait, "offset", req.Offset)
		},
	)
}

// searchOnce performs a single HTTP attempt. Errors that must not be
// retried are wrapped with backoff.Permanent.
func (c *BrowseClient) searchOnce(
	ctx context.Context,
	req SearchRequest,
) (*SearchResponse, error) {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			if errors.Is(err, ErrDailyLimitReached) {
				metrics.EbayDailyLimitHits.Inc()
			}
			return nil, backoff.Permanent(fmt.Errorf("rate limit: %w", err))
		}
		metrics.EbayDailyUsage.Set(float64(c.rateLimiter.DailyCount()))
	}
	metrics.EbayAPICallsTotal.Inc()

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("getting auth token: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildSearchURL(req), http.NoBody)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("creating HTTP request: %w", err))
	}

	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("X-EBAY-C-MARKETPLACE-ID", c.marketplace)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		metrics.EbayResponsesTotal.WithLabelValues("error").Inc()
		if ctx.Err() != nil {
			return nil, backoff.Permanent(fmt.Errorf("%w: %w", ErrUpstreamUnavailable, ctx.Err()))
		}
		return nil, fmt.Errorf("%w: executing search request: %w", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	metrics.EbayResponsesTotal.WithLabelValues(statusClass(resp.StatusCode)).Inc()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response body: %w", ErrUpstreamUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return parseSearchResponse(body)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.tokens.Invalidate(token)
		return nil, backoff.Permanent(fmt.Errorf("%w (status %d)", errUnauthorized, resp.StatusCode))
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w (status %d)", ErrUpstreamRateLimit, resp.StatusCode)
	case resp.StatusCode >= http.StatusInternalServerError:
		c.logBody(resp.StatusCode, body)
		return nil, fmt.Errorf("%w: eBay API error (status %d)", ErrUpstreamUnavailable, resp.StatusCode)
	default:
		c.logBody(resp.StatusCode, body)
		return nil, backoff.Permanent(
			fmt.Errorf("%w: eBay API error (status %d)", ErrUpstreamUnavailable, resp.StatusCode),
		)
	}
}

// parseSearchResponse rejects bodies that are not a Browse search payload.
// A decodable object without "total" is treated as a contract violation.
func parseSearchResponse(body []byte) (*SearchResponse, error) {
	var apiResp browseAPIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("%w: parsing search response: %w", ErrUpstreamSchema, err))
	}
	if apiResp.Total == nil {
		return nil, backoff.Permanent(fmt.Errorf("%w: parsing search response: missing total", ErrUpstreamSchema))
	}

	return &SearchResponse{
		Items:   apiResp.ItemSummaries,
		Total:   *apiResp.Total,
		Offset:  apiResp.Offset,
		Limit:   apiResp.Limit,
		HasMore: apiResp.Next != "",
	}, nil
}

func (c *BrowseClient) logBody(status int, body []byte) {
	c.logger.Warn("eBay API error", "status", status, "body", truncateBody(body))
}

func truncateBody(body []byte) string {
	if len(body) > maxErrorBodyLog {
		body = body[:maxErrorBodyLog]
	}
	return string(body)
}

func (c *BrowseClient) buildSearchURL(req SearchRequest) string {
	params := url.Values{}
	params.Set("q", req.Query)

	if req.CategoryID != "" {
		params.Set("category_ids", req.CategoryID)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	params.Set("limit", strconv.Itoa(limit))

	if req.Offset > 0 {
		params.Set("offset", strconv.Itoa(req.Offset))
	}

	if req.Sort != "" {
		params.Set("sort", req.Sort)
	}

	for k, v := range req.Filters {
		params.Set(k, v)
	}

	return c.browseURL + "?" + params.Encode()
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code == http.StatusTooManyRequests:
		return "429"
	case code >= 400:
		return "4xx"
	default:
		return "2xx"
	}
}
