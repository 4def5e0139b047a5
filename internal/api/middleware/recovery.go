package middleware

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/danielgtaylor/huma/v2"
	"github.com/labstack/echo/v4"

	"github.com/donaldgifford/product-aggregator/internal/engine"
	"github.com/donaldgifford/product-aggregator/internal/metrics"
)

const stackSize = 4096

// Recovery returns Echo middleware that turns a handler panic into the same
// problem+json 500 the API returns for internal search failures. The panic
// value and stack are logged with the request and session IDs; neither
// reaches the client.
func Recovery(log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}

				buf := make([]byte, stackSize)
				n := runtime.Stack(buf, false)

				route := c.Path()
				if route == "" {
					route = unmatchedRoute
				}
				metrics.HTTPPanicsTotal.WithLabelValues(route).Inc()

				attrs := []any{
					"error", fmt.Sprint(r),
					"method", c.Request().Method,
					"path", c.Request().URL.Path,
					"stack", string(buf[:n]),
				}
				if id, ok := c.Get("request_id").(string); ok {
					attrs = append(attrs, "request_id", id)
				}
				if sess := SessionID(c); sess != "" {
					attrs = append(attrs, "session", sess)
				}
				log.Error("panic recovered", attrs...)

				if c.Response().Committed {
					return
				}
				err = writeProblem(c, huma.Error500InternalServerError(engine.InternalMessage))
			}()
			return next(c)
		}
	}
}

func writeProblem(c echo.Context, se huma.StatusError) error {
	body, err := json.Marshal(se)
	if err != nil {
		return fmt.Errorf("encoding problem: %w", err)
	}
	return c.Blob(se.GetStatus(), "application/problem+json", body)
}
