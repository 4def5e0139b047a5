// Package client provides a thin HTTP client for the product-aggregator API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
)

// DefaultSessionCookie is the session cookie name the server issues unless
// configured otherwise.
const DefaultSessionCookie = "pa_session"

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (HTTP %d): %s", e.StatusCode, e.Detail)
}

// Client is a thin HTTP client for the product-aggregator API. It keeps
// the server's session cookie so a search and a following export see the
// same result set.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	cookieName string
	session    string
}

// New creates a new API client targeting the given base URL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing server URL: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Jar: jar},
		cookieName: DefaultSessionCookie,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient.Jar == nil {
		c.httpClient.Jar = jar
	}
	if c.session != "" {
		c.httpClient.Jar.SetCookies(c.baseURL, []*http.Cookie{{Name: c.cookieName, Value: c.session}})
	}
	return c, nil
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client. A cookie jar is added if it has
// none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithSession resumes an existing server session.
func WithSession(id string) Option {
	return func(c *Client) {
		c.session = id
	}
}

// WithSessionCookie overrides the session cookie name.
func WithSessionCookie(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.cookieName = name
		}
	}
}

// Session returns the session ID issued by the server, or "" before the
// first request.
func (c *Client) Session() string {
	for _, ck := range c.httpClient.Jar.Cookies(c.baseURL) {
		if ck.Name == c.cookieName {
			return ck.Value
		}
	}
	return ""
}

// get performs a GET request and decodes the JSON response into dst.
func (c *Client) get(ctx context.Context, path string, dst any) error {
	body, _, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return decode(body, dst)
}

// post performs a POST request with a JSON body and decodes the response into dst.
func (c *Client) post(ctx context.Context, path string, payload, dst any) error {
	body, _, err := c.do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return err
	}
	return decode(body, dst)
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, http.Header, error) {
	target := c.baseURL.String() + path

	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isConnectionRefused(err) {
			return nil, nil, fmt.Errorf("API server not running at %s", c.baseURL)
		}
		return nil, nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, nil, &APIError{StatusCode: resp.StatusCode, Detail: errorDetail(respBody)}
	}

	return respBody, resp.Header, nil
}

func decode(body []byte, dst any) error {
	if dst == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// errorDetail extracts the message from a huma error model or the plain
// {"error": ...} envelope, falling back to the raw body.
func errorDetail(body []byte) string {
	var model struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(body, &model); err == nil {
		if model.Detail != "" {
			return model.Detail
		}
		if model.Error != "" {
			return model.Error
		}
	}
	return strings.TrimSpace(string(body))
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

func isConnectionRefused(err error) bool {
	return strings.Contains(err.Error(), "connection refused")
}
