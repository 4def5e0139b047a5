package ebay

import "errors"

// Failure classes surfaced by the eBay clients. Callers check them with
// errors.Is; the wrapped message carries status and context for logs.
var (
	// ErrAuth means the OAuth endpoint rejected the client identity or could
	// not be reached after a retry.
	ErrAuth = errors.New("ebay authentication failed")

	// ErrUpstreamAuth means the Browse API rejected a freshly refreshed token.
	ErrUpstreamAuth = errors.New("ebay rejected credential")

	// ErrUpstreamRateLimit means the Browse API kept answering 429 after
	// every retry.
	ErrUpstreamRateLimit = errors.New("ebay rate limit exceeded")

	// ErrUpstreamSchema means a response body did not have the expected shape.
	ErrUpstreamSchema = errors.New("unexpected ebay response")

	// ErrUpstreamUnavailable covers transport failures and 5xx responses.
	ErrUpstreamUnavailable = errors.New("ebay unavailable")

	// ErrSequenceConsumed is yielded when a listing sequence is ranged over
	// a second time.
	ErrSequenceConsumed = errors.New("listing sequence already consumed")
)
