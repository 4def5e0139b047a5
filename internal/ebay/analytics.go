package ebay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/donaldgifford/product-aggregator/internal/metrics"
)

const (
	defaultAnalyticsURL = "https://api.ebay.com/developer/analytics/v1_beta/rate_limit/"

	// searchResource is the Analytics resource counting item_summary/search
	// calls.
	searchResource = "buy.browse"
)

type rateLimitResponse struct {
	RateLimits []struct {
		APIContext string `json:"apiContext"`
		APIName    string `json:"apiName"`
		Resources  []struct {
			Name  string `json:"name"`
			Rates []struct {
				Count      int64  `json:"count"`
				Limit      int64  `json:"limit"`
				Remaining  int64  `json:"remaining"`
				Reset      string `json:"reset"`
				TimeWindow int64  `json:"timeWindow"`
			} `json:"rates"`
		} `json:"resources"`
	} `json:"rateLimits"`
}

// QuotaState is eBay's own accounting of one API resource.
type QuotaState struct {
	Count      int64
	Limit      int64
	Remaining  int64
	ResetAt    time.Time
	TimeWindow time.Duration
}

// AnalyticsClient reads call quotas from the eBay Developer Analytics API.
type AnalyticsClient struct {
	tokens       TokenProvider
	analyticsURL string
	client       *http.Client
}

// AnalyticsOption configures the AnalyticsClient.
type AnalyticsOption func(*AnalyticsClient)

// WithAnalyticsURL overrides the default Analytics API endpoint.
func WithAnalyticsURL(u string) AnalyticsOption {
	return func(c *AnalyticsClient) {
		if u != "" {
			c.analyticsURL = u
		}
	}
}

// WithAnalyticsHTTPClient overrides the default HTTP client.
func WithAnalyticsHTTPClient(hc *http.Client) AnalyticsOption {
	return func(c *AnalyticsClient) {
		c.client = hc
	}
}

// NewAnalyticsClient creates an Analytics API client that authenticates
// with tokens.
func NewAnalyticsClient(tokens TokenProvider, opts ...AnalyticsOption) *AnalyticsClient {
	c := &AnalyticsClient{
		tokens:       tokens,
		analyticsURL: defaultAnalyticsURL,
		client:       &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchQuota returns eBay's count for the Browse search resource.
func (c *AnalyticsClient) SearchQuota(ctx context.Context) (*QuotaState, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting auth token: %w", err)
	}

	u, err := url.Parse(c.analyticsURL)
	if err != nil {
		return nil, fmt.Errorf("parsing analytics URL: %w", err)
	}
	u.RawQuery = url.Values{"api_context": {"buy"}, "api_name": {"browse"}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating analytics request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: analytics request: %w", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading analytics response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.tokens.Invalidate(token)
		return nil, fmt.Errorf("%w: analytics status %d", ErrUpstreamAuth, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: analytics status %d: %s",
			ErrUpstreamUnavailable, resp.StatusCode, truncateBody(body))
	}

	var parsed rateLimitResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: parsing analytics response: %w", ErrUpstreamSchema, err)
	}
	return findQuota(&parsed, searchResource)
}

func findQuota(resp *rateLimitResponse, name string) (*QuotaState, error) {
	for _, ctxEntry := range resp.RateLimits {
		for _, res := range ctxEntry.Resources {
			if res.Name != name {
				continue
			}
			if len(res.Rates) == 0 {
				return nil, fmt.Errorf("%w: no rates for resource %q", ErrUpstreamSchema, name)
			}

			r := res.Rates[0]
			resetAt, err := time.Parse(time.RFC3339, r.Reset)
			if err != nil {
				return nil, fmt.Errorf("%w: reset time %q: %w", ErrUpstreamSchema, r.Reset, err)
			}
			return &QuotaState{
				Count:      r.Count,
				Limit:      r.Limit,
				Remaining:  r.Remaining,
				ResetAt:    resetAt,
				TimeWindow: time.Duration(r.TimeWindow) * time.Second,
			}, nil
		}
	}
	return nil, fmt.Errorf("%w: resource %q not found", ErrUpstreamSchema, name)
}

// QuotaSync reconciles a RateLimiter's daily budget with eBay's count, so
// calls made by other processes sharing the credentials are accounted for.
type QuotaSync struct {
	analytics *AnalyticsClient
	limiter   *RateLimiter
}

// NewQuotaSync binds an Analytics client to the limiter it updates.
func NewQuotaSync(analytics *AnalyticsClient, limiter *RateLimiter) *QuotaSync {
	return &QuotaSync{analytics: analytics, limiter: limiter}
}

// SyncQuota fetches eBay's count once and applies it to the limiter.
func (q *QuotaSync) SyncQuota(ctx context.Context) error {
	st, err := q.analytics.SearchQuota(ctx)
	if err != nil {
		return err
	}
	q.limiter.Sync(st.Count, st.ResetAt)
	metrics.EbayDailyUsage.Set(float64(q.limiter.DailyCount()))
	return nil
}
