package engine

import (
	"context"
	"errors"

	"github.com/donaldgifford/product-aggregator/internal/ebay"
	"github.com/donaldgifford/product-aggregator/internal/exchange"
)

// ErrValidation marks a search request the caller must correct.
var ErrValidation = errors.New("invalid search request")

// ErrorKind is the user-facing category of a failed search or export.
type ErrorKind string

// Error kinds.
const (
	KindValidation          ErrorKind = "validation"
	KindServiceUnavailable  ErrorKind = "service_unavailable"
	KindRateLimited         ErrorKind = "rate_limited"
	KindCurrencyUnavailable ErrorKind = "currency_unavailable"
	KindNoData              ErrorKind = "no_data"
	KindInternal            ErrorKind = "internal"
)

// Messages shown to users per kind. Upstream detail is never included.
const (
	msgServiceUnavailable  = "The product search service is currently unavailable. Please try again later."
	msgRateLimited         = "Too many requests to the product search service. Please try again later."
	msgCurrencyUnavailable = "Currency conversion is currently unavailable. Please try again later."
	msgNoData              = "No search results to export. Run a search first."
	msgInternal            = "An unexpected error occurred."
)

// InternalMessage is shown for failures outside every other kind, including
// recovered panics.
const InternalMessage = msgInternal

// SearchError is the structured failure returned by Engine. Message is safe
// to show to end users; Err keeps the underlying cause for logs and
// errors.Is.
type SearchError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *SearchError) Error() string {
	return e.Message
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

func validationError(msg string) *SearchError {
	return &SearchError{Kind: KindValidation, Message: msg, Err: ErrValidation}
}

// classify maps a component failure to its user-facing category.
func classify(err error) *SearchError {
	var se *SearchError
	if errors.As(err, &se) {
		return se
	}

	switch {
	case errors.Is(err, ErrValidation):
		return &SearchError{Kind: KindValidation, Message: "Invalid search request.", Err: err}
	case errors.Is(err, ebay.ErrUpstreamRateLimit), errors.Is(err, ebay.ErrDailyLimitReached):
		return &SearchError{Kind: KindRateLimited, Message: msgRateLimited, Err: err}
	case errors.Is(err, exchange.ErrRateUnavailable):
		return &SearchError{Kind: KindCurrencyUnavailable, Message: msgCurrencyUnavailable, Err: err}
	case errors.Is(err, ebay.ErrAuth),
		errors.Is(err, ebay.ErrUpstreamAuth),
		errors.Is(err, ebay.ErrUpstreamSchema),
		errors.Is(err, ebay.ErrUpstreamUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return &SearchError{Kind: KindServiceUnavailable, Message: msgServiceUnavailable, Err: err}
	default:
		return &SearchError{Kind: KindInternal, Message: msgInternal, Err: err}
	}
}
