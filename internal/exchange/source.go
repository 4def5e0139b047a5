package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	domain "github.com/donaldgifford/product-aggregator/pkg/types"
)

const defaultRatesURL = "https://v6.exchangerate-api.com/v6"

// RateSource fetches a complete snapshot of rates relative to base.
type RateSource interface {
	Latest(ctx context.Context, base string) (*domain.ExchangeRateSnapshot, error)
}

// HTTPSource reads rates from an exchangerate-api.com compatible endpoint.
// Both the v6 shape ({"result","base_code","conversion_rates"}) and the
// plain {"base","rates"} shape are accepted. The API key travels in the
// Authorization header so it never appears in URLs, errors or logs.
type HTTPSource struct {
	baseURL string
	apiKey  string
	client  *http.Client
	nowFunc func() time.Time
}

// SourceOption configures the HTTPSource.
type SourceOption func(*HTTPSource)

// WithSourceURL overrides the default rate API root.
func WithSourceURL(u string) SourceOption {
	return func(s *HTTPSource) {
		s.baseURL = strings.TrimRight(u, "/")
	}
}

// WithSourceHTTPClient overrides the default HTTP client.
func WithSourceHTTPClient(c *http.Client) SourceOption {
	return func(s *HTTPSource) {
		s.client = c
	}
}

// WithSourceNowFunc overrides the snapshot timestamp source for testing.
func WithSourceNowFunc(f func() time.Time) SourceOption {
	return func(s *HTTPSource) {
		s.nowFunc = f
	}
}

// NewHTTPSource creates a rate source using apiKey.
func NewHTTPSource(apiKey string, opts ...SourceOption) *HTTPSource {
	s := &HTTPSource{
		baseURL: defaultRatesURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type ratesResponse struct {
	Result          string             `json:"result"`
	ErrorType       string             `json:"error-type"`
	BaseCode        string             `json:"base_code"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
	Base            string             `json:"base"`
	Rates           map[string]float64 `json:"rates"`
}

// Latest implements RateSource.
func (s *HTTPSource) Latest(ctx context.Context, base string) (*domain.ExchangeRateSnapshot, error) {
	u := s.baseURL + "/latest/" + url.PathEscape(base)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating rates request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: executing rates request: %w", ErrRateUnavailable, transportError(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading rates response: %w", ErrRateUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: rates request failed (status %d)", ErrRateUnavailable, resp.StatusCode)
	}

	var rr ratesResponse
	if err := json.Unmarshal(body, &rr); err != nil {
		return nil, fmt.Errorf("%w: parsing rates response: %w", ErrRateUnavailable, err)
	}

	if rr.Result != "" && rr.Result != "success" {
		return nil, fmt.Errorf("%w: rate source returned %q (%s)", ErrRateUnavailable, rr.Result, rr.ErrorType)
	}

	rates, gotBase := rr.ConversionRates, rr.BaseCode
	if len(rates) == 0 {
		rates, gotBase = rr.Rates, rr.Base
	}
	if len(rates) == 0 {
		return nil, fmt.Errorf("%w: rates response has no rates", ErrRateUnavailable)
	}
	if gotBase != "" && !strings.EqualFold(gotBase, base) {
		return nil, fmt.Errorf("%w: asked for base %s, got %s", ErrRateUnavailable, base, gotBase)
	}

	upper := make(map[string]float64, len(rates))
	for code, r := range rates {
		upper[strings.ToUpper(code)] = r
	}

	return &domain.ExchangeRateSnapshot{
		Base:      strings.ToUpper(base),
		Rates:     upper,
		FetchedAt: s.nowFunc(),
	}, nil
}

// transportError drops the request URL from a client error, keeping the
// operation and cause.
func transportError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%s %s: %w", ue.Op, redactURL(ue.URL), ue.Err)
	}
	return err
}

// redactURL keeps scheme and host only.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "rate source"
	}
	return u.Scheme + "://" + u.Host
}
