package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/medibook/medibook/pkg/metrics"
)

// Metrics records Prometheus request counters and latency histograms. The
// route template (e.g. /api/v1/appointments/:id) is used as the path label
// to keep cardinality bounded.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}

			metrics.HTTPRequestsTotal.WithLabelValues(
				c.Request().Method, path, strconv.Itoa(status)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(
				c.Request().Method, path).Observe(time.Since(start).Seconds())

			return err
		}
	}
}
