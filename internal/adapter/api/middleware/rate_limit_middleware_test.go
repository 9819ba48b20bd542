package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"eventcraft/internal/infrastructure/ratelimit"
)

func newLimitedServer() *echo.Echo {
	e := echo.New()
	e.Use(RateLimit(ratelimit.NewRateLimiter(10)))
	ok := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	e.GET("/messages", ok)
	e.POST("/message", ok)
	return e
}

func serve(e *echo.Echo, method, target, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set(echo.HeaderXRealIP, ip)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitNeverThrottlesReads(t *testing.T) {
	e := newLimitedServer()

	// far more than an hour of 2s polling would burst at once
	for i := 0; i < 500; i++ {
		rec := serve(e, http.MethodGet, "/messages?chatId=c1", "10.0.0.1")
		if !assert.Equal(t, http.StatusOK, rec.Code, "poll %d", i+1) {
			return
		}
	}
}

func TestRateLimitThrottlesWritesPerAddress(t *testing.T) {
	e := newLimitedServer()

	for i := 0; i < 60; i++ {
		rec := serve(e, http.MethodPost, "/message", "10.0.0.1")
		if !assert.Equal(t, http.StatusOK, rec.Code, "write %d", i+1) {
			return
		}
	}

	rec := serve(e, http.MethodPost, "/message", "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "TOO_MANY_REQUESTS")

	// reads from the throttled address still go through
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/messages", "10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodPost, "/message", "10.0.0.2").Code)
}
