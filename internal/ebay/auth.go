package ebay

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/donaldgifford/product-aggregator/internal/metrics"
	domain "github.com/donaldgifford/product-aggregator/pkg/types"
)

const (
	defaultTokenURL = "https://api.ebay.com/identity/v1/oauth2/token" //nolint:gosec // not a credential
	defaultScope    = "https://api.ebay.com/oauth/api_scope"
	refreshBuffer   = 60 * time.Second
	refreshKey      = "token"
)

// OAuthTokenProvider implements TokenProvider using the eBay OAuth2
// client credentials flow. The credential is cached until 60 seconds before
// the upstream expiry. Concurrent callers that find it stale share a single
// refresh request.
type OAuthTokenProvider struct {
	appID      string
	certID     string
	tokenURL   string
	scope      string
	client     *http.Client
	timeout    time.Duration
	retryDelay time.Duration
	logger     *slog.Logger

	mu      sync.RWMutex
	cred    domain.Credential
	group   singleflight.Group
	nowFunc func() time.Time // for testing
}

// OAuthOption configures the OAuthTokenProvider.
type OAuthOption func(*OAuthTokenProvider)

// WithTokenURL overrides the default eBay token endpoint.
func WithTokenURL(u string) OAuthOption {
	return func(p *OAuthTokenProvider) {
		p.tokenURL = u
	}
}

// WithScope overrides the requested OAuth scope.
func WithScope(s string) OAuthOption {
	return func(p *OAuthTokenProvider) {
		p.scope = s
	}
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(c *http.Client) OAuthOption {
	return func(p *OAuthTokenProvider) {
		p.client = c
	}
}

// WithTokenTimeout bounds a single refresh, including its retry.
func WithTokenTimeout(d time.Duration) OAuthOption {
	return func(p *OAuthTokenProvider) {
		p.timeout = d
	}
}

// WithTokenRetryDelay sets the pause before the single refresh retry.
func WithTokenRetryDelay(d time.Duration) OAuthOption {
	return func(p *OAuthTokenProvider) {
		p.retryDelay = d
	}
}

// WithTokenLogger sets the logger.
func WithTokenLogger(l *slog.Logger) OAuthOption {
	return func(p *OAuthTokenProvider) {
		p.logger = l
	}
}

// WithNowFunc overrides the time function for testing.
func WithNowFunc(f func() time.Time) OAuthOption {
	return func(p *OAuthTokenProvider) {
		p.nowFunc = f
	}
}

// NewOAuthTokenProvider creates a new eBay OAuth2 token provider.
func NewOAuthTokenProvider(
	appID, certID string,
	opts ...OAuthOption,
) *OAuthTokenProvider {
	p := &OAuthTokenProvider{
		appID:      appID,
		certID:     certID,
		tokenURL:   defaultTokenURL,
		scope:      defaultScope,
		client:     &http.Client{Timeout: 10 * time.Second},
		timeout:    20 * time.Second,
		retryDelay: 500 * time.Millisecond,
		logger:     slog.Default(),
		nowFunc:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

type tokenErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// errRetryable marks refresh failures worth one more attempt.
var errRetryable = errors.New("retryable")

// Token returns a valid OAuth2 access token, refreshing if necessary.
func (p *OAuthTokenProvider) Token(ctx context.Context) (string, error) {
	cred, err := p.Credential(ctx)
	if err != nil {
		return "", err
	}
	return cred.AccessToken, nil
}

// Credential returns the cached credential, refreshing it first when it is
// absent or expired. A failed refresh leaves the previous credential in
// place.
func (p *OAuthTokenProvider) Credential(ctx context.Context) (domain.Credential, error) {
	if cred, ok := p.cached(); ok {
		return cred, nil
	}

	ch := p.group.DoChan(refreshKey, func() (any, error) {
		// A refresh may have landed between the cache check and DoChan.
		if cred, ok := p.cached(); ok {
			return cred, nil
		}

		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
		defer cancel()

		cred, err := p.refresh(rctx)
		if err != nil {
			metrics.TokenRefreshesTotal.WithLabelValues("failure").Inc()
			return nil, err
		}
		metrics.TokenRefreshesTotal.WithLabelValues("success").Inc()

		p.mu.Lock()
		p.cred = cred
		p.mu.Unlock()
		return cred, nil
	})

	select {
	case <-ctx.Done():
		return domain.Credential{}, fmt.Errorf("waiting for token refresh: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return domain.Credential{}, res.Err
		}
		cred, _ := res.Val.(domain.Credential) //nolint:errcheck // only credentials are stored
		return cred, nil
	}
}

// Invalidate drops the cached credential if its token is still token.
func (p *OAuthTokenProvider) Invalidate(token string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cred.AccessToken == token {
		p.cred = domain.Credential{}
	}
}

func (p *OAuthTokenProvider) cached() (domain.Credential, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.cred.ValidAt(p.nowFunc()) {
		return p.cred, true
	}
	return domain.Credential{}, false
}

// refresh performs the client-credentials exchange, retrying once on
// transport errors and 5xx responses. 4xx responses fail immediately.
func (p *OAuthTokenProvider) refresh(ctx context.Context) (domain.Credential, error) {
	if p.appID == "" || p.certID == "" {
		return domain.Credential{}, fmt.Errorf("%w: missing client credentials", ErrAuth)
	}

	cred, err := p.requestToken(ctx)
	if err == nil || !errors.Is(err, errRetryable) {
		return cred, err
	}

	p.logger.Warn("token request failed, retrying", "error", err)

	select {
	case <-ctx.Done():
		return domain.Credential{}, fmt.Errorf("%w: %w", ErrAuth, ctx.Err())
	case <-time.After(p.retryDelay):
	}

	return p.requestToken(ctx)
}

func (p *OAuthTokenProvider) requestToken(ctx context.Context) (domain.Credential, error) {
	form := url.Values{
		"grant_type": {"client_credentials"},
		"scope":      {p.scope},
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		p.tokenURL,
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("%w: creating token request: %w", ErrAuth, err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	creds := base64.StdEncoding.EncodeToString(
		[]byte(p.appID + ":" + p.certID),
	)
	req.Header.Set("Authorization", "Basic "+creds)

	resp, err := p.client.Do(req)
	if err != nil {
		return domain.Credential{}, fmt.Errorf(
			"%w: executing token request: %w: %w", ErrAuth, errRetryable, err,
		)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Credential{}, fmt.Errorf(
			"%w: reading token response: %w: %w", ErrAuth, errRetryable, err,
		)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp tokenErrorResponse
		_ = json.Unmarshal(body, &errResp) //nolint:errcheck // best-effort error parsing
		failure := fmt.Errorf(
			"%w: token request failed (status %d): %s - %s",
			ErrAuth,
			resp.StatusCode,
			errResp.Error,
			errResp.ErrorDescription,
		)
		if resp.StatusCode >= http.StatusInternalServerError {
			return domain.Credential{}, fmt.Errorf("%w: %w", failure, errRetryable)
		}
		return domain.Credential{}, failure
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return domain.Credential{}, fmt.Errorf("%w: parsing token response: %w", ErrAuth, err)
	}
	if tokenResp.AccessToken == "" || tokenResp.ExpiresIn <= 0 {
		return domain.Credential{}, fmt.Errorf("%w: token response missing access_token or expires_in", ErrAuth)
	}

	lifetime := time.Duration(tokenResp.ExpiresIn) * time.Second
	buffer := refreshBuffer
	if lifetime <= buffer {
		buffer = lifetime / 2
	}

	return domain.Credential{
		AccessToken: tokenResp.AccessToken,
		ExpiresAt:   p.nowFunc().Add(lifetime - buffer),
	}, nil
}
