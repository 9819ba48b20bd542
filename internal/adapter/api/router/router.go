package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"eventcraft/internal/adapter/api/handler"
	"eventcraft/internal/adapter/api/middleware"
)

// Options selects the optional middleware wrapped around the /v1 routes.
type Options struct {
	Auth           *middleware.AuthMiddleware
	Admin          *middleware.AdminMiddleware
	MetricsEnabled bool
}

func Setup(e *echo.Echo, h *handler.Handlers, opts Options) {
	if opts.MetricsEnabled {
		e.Use(middleware.Metrics)
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	authenticate := echo.MiddlewareFunc(middleware.Passthrough)
	adminOnly := echo.MiddlewareFunc(middleware.Passthrough)
	if opts.Auth != nil {
		authenticate = opts.Auth.Authenticate
		if opts.Admin != nil {
			adminOnly = opts.Admin.AdminOnly
		}
	}

	v1 := e.Group("/v1", authenticate)
	SetupChatRouter(v1, h.Chat)
	SetupUserRouter(v1, h.User, h.Vendor, adminOnly)
	SetupHealthRouter(e, h.Health)
}
