package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"eventcraft/internal/infrastructure/metrics"
	"eventcraft/internal/infrastructure/ratelimit"
	"eventcraft/pkg/errors"
	"eventcraft/pkg/logger"
	"eventcraft/pkg/response"
)

// RateLimit throttles writes per client address. Reads pass through: clients
// poll messages every 2s and the chat list with its unread counts every 5s,
// and sends carry their own per-sender limit.
func RateLimit(limiter *ratelimit.RateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if isRead(c.Request().Method) {
				return next(c)
			}

			ip := c.RealIP()
			allowed, wait := limiter.Allow(ip, ratelimit.ActionRequest)
			if !allowed {
				logger.Warn("RATE LIMIT: blocked request from %s (retry in %v)", ip, wait)
				metrics.RateLimitHits.WithLabelValues(ratelimit.ActionRequest).Inc()

				c.Response().Header().Set("Retry-After", strconv.Itoa(int(wait.Seconds())+1))
				return response.Error(c, errors.TooManyRequests("Rate limit exceeded"))
			}

			return next(c)
		}
	}
}

func isRead(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
