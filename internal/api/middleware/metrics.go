// Package middleware provides Echo middleware for product-aggregator.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/donaldgifford/product-aggregator/internal/metrics"
)

// unmatchedRoute labels requests that no route matched, so arbitrary
// request paths never become label values.
const unmatchedRoute = "unmatched"

// healthGauges maps the health endpoints to their up/down gauge. They are
// not counted in the request histogram.
var healthGauges = map[string]prometheus.Gauge{
	"/healthz": metrics.HealthzUp,
	"/readyz":  metrics.ReadyzUp,
}

// untracked reports whether a request path is excluded from request
// metrics: the scrape endpoint and the API documentation.
func untracked(path string) bool {
	return path == "/metrics" ||
		path == "/docs" ||
		path == "/swagger" ||
		strings.HasPrefix(path, "/openapi") ||
		strings.HasPrefix(path, "/swagger/")
}

// Metrics returns Echo middleware that records request duration and
// status per route pattern. Health paths only update their gauge.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			urlPath := c.Request().URL.Path
			if untracked(urlPath) {
				return next(c)
			}
			if gauge, health := healthGauges[urlPath]; health {
				err := next(c)
				setHealth(gauge, c.Response().Status)
				return err
			}

			start := time.Now()
			err := next(c)
			duration := time.Since(start).Seconds()

			route := c.Path()
			if route == "" {
				route = unmatchedRoute
			}
			status := strconv.Itoa(c.Response().Status)
			method := c.Request().Method

			metrics.HTTPRequestDuration.WithLabelValues(method, route, status).Observe(duration)
			metrics.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()

			return err
		}
	}
}

func setHealth(gauge prometheus.Gauge, status int) {
	if status >= http.StatusOK && status < http.StatusMultipleChoices {
		gauge.Set(1)
		return
	}
	gauge.Set(0)
}
