package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"eventcraft/internal/infrastructure/metrics"
)

// Metrics records request counts and latency. The route pattern is used as
// the path label so ids never become label values.
func Metrics(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		err := next(c)
		if err != nil {
			c.Error(err)
		}

		path := c.Path()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request().Method

		metrics.HTTPRequestsTotal.WithLabelValues(
			method, path, strconv.Itoa(c.Response().Status),
		).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())

		return nil
	}
}
