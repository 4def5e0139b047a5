package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/donaldgifford/product-aggregator/internal/metrics"
)

const (
	limiterIdleExpiry = 3 * time.Minute
	searchPath        = "/api/v1/search"
)

// SearchRateLimit returns Echo middleware that allows perMinute search
// requests per client IP, with the same value as burst. Other paths pass
// through. Rejected requests receive 429 with the error envelope the API
// uses elsewhere. A non-positive perMinute disables the limit.
func SearchRateLimit(perMinute int) echo.MiddlewareFunc {
	if perMinute <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	store := echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(perMinute) / time.Minute.Seconds()),
		Burst:     perMinute,
		ExpiresIn: limiterIdleExpiry,
	})

	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path != searchPath
		},
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, _ error) error {
			return c.JSON(http.StatusForbidden, map[string]string{
				"error": "could not identify client",
			})
		},
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			metrics.HTTPRateLimitedTotal.Inc()
			return c.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "Too many requests. Please slow down.",
			})
		},
	})
}
