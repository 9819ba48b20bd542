package router

import (
	"github.com/labstack/echo/v4"

	"eventcraft/internal/adapter/api/handler"
)

func SetupUserRouter(v1 *echo.Group, userHandler *handler.UserHandler, vendorHandler *handler.VendorHandler, adminOnly echo.MiddlewareFunc) {
	v1.GET("/user/:id", userHandler.GetUser)
	v1.POST("/user", userHandler.Register, adminOnly)

	v1.GET("/vendor", vendorHandler.GetByUserID) // ?byUserId=
	v1.POST("/vendor", vendorHandler.Register, adminOnly)
}
