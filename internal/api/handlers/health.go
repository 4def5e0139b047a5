package handlers

import (
	"context"
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"
)

// Pinger is a dependency that can report whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler provides health and readiness endpoints.
type HealthHandler struct {
	deps map[string]Pinger
}

// NewHealthHandler creates a new HealthHandler. deps names the optional
// backends (database, redis) that must answer for the service to be ready;
// nil entries are ignored.
func NewHealthHandler(deps map[string]Pinger) *HealthHandler {
	h := &HealthHandler{deps: make(map[string]Pinger, len(deps))}
	for name, p := range deps {
		if p != nil {
			h.deps[name] = p
		}
	}
	return h
}

// Healthz returns 200 if the process is running.
//
// @Summary Liveness check
// @Description Returns 200 if the process is running.
// @Tags health
// @Produce json
// @Success 200 {object} StatusResponse
// @Router /healthz [get]
func (*HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz returns 200 if every configured backend is reachable, 503
// otherwise. The body names the failing backends.
//
// @Summary Readiness check
// @Description Returns 200 if every configured backend is reachable, 503 otherwise.
// @Tags health
// @Produce json
// @Success 200 {object} StatusResponse
// @Failure 503 {object} StatusResponse
// @Router /readyz [get]
func (h *HealthHandler) Readyz(c echo.Context) error {
	ctx := c.Request().Context()

	var failed []string
	for name, p := range h.deps {
		if err := p.Ping(ctx); err != nil {
			failed = append(failed, name)
		}
	}

	if len(failed) > 0 {
		slices.Sort(failed)
		return c.JSON(http.StatusServiceUnavailable, map[string]any{
			"status":   "unavailable",
			"failures": failed,
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
}
