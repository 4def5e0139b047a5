package middleware

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const requestIDHeader = "X-Request-ID"

// healthPaths are logged on their first success and on every failure.
var healthPaths = map[string]struct{}{
	"/healthz": {},
	"/readyz":  {},
}

// RequestLog returns Echo middleware that logs requests with structured fields.
// It generates a request ID if none is provided and propagates it through
// the response header and echo context. Repeated successful health checks
// are not logged.
func RequestLog(log *slog.Logger) echo.MiddlewareFunc {
	var seen sync.Map

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			reqID := c.Request().Header.Get(requestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}

			c.Set("request_id", reqID)
			c.Response().Header().Set(requestIDHeader, reqID)

			err := next(c)

			path := c.Request().URL.Path
			status := c.Response().Status
			level := slog.LevelInfo

			if _, health := healthPaths[path]; health {
				if status >= http.StatusBadRequest {
					level = slog.LevelWarn
					seen.Delete(path)
				} else if _, loaded := seen.LoadOrStore(path, struct{}{}); loaded {
					return err
				}
			} else if status >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}

			attrs := []any{
				"method", c.Request().Method,
				"path", path,
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", reqID,
			}
			if sess := SessionID(c); sess != "" {
				attrs = append(attrs, "session", sess)
			}

			log.Log(c.Request().Context(), level, "request", attrs...)

			return err
		}
	}
}
