package handlers

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/product-aggregator/internal/engine"
)

// searchError maps an engine failure to its HTTP status. Only the
// user-facing message of the SearchError reaches the response.
func searchError(err error) error {
	var se *engine.SearchError
	if !errors.As(err, &se) {
		return huma.Error500InternalServerError(engine.InternalMessage)
	}

	switch se.Kind {
	case engine.KindValidation:
		return huma.Error400BadRequest(se.Message)
	case engine.KindNoData:
		return huma.Error404NotFound(se.Message)
	case engine.KindRateLimited:
		return huma.Error429TooManyRequests(se.Message)
	case engine.KindServiceUnavailable, engine.KindCurrencyUnavailable:
		return huma.Error503ServiceUnavailable(se.Message)
	default:
		return huma.Error500InternalServerError(se.Message)
	}
}
