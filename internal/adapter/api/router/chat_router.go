package router

import (
	"github.com/labstack/echo/v4"

	"eventcraft/internal/adapter/api/handler"
)

func SetupChatRouter(v1 *echo.Group, chatHandler *handler.ChatHandler) {
	v1.GET("/chats", chatHandler.ListChats) // ?byUser= or ?byVendor=
	v1.GET("/chat/:id", chatHandler.GetChat)
	v1.POST("/chat", chatHandler.FindOrCreateChat) // customer and vendor
	v1.POST("/chat/vendor", chatHandler.FindOrCreateVendorChat)
	v1.POST("/chat/support", chatHandler.EnsureSupportChat)

	v1.GET("/messages", chatHandler.ListMessages) // ?chatId=
	v1.POST("/message", chatHandler.SendMessage)
	v1.POST("/message/seen", chatHandler.MarkSeen)
	v1.GET("/message/unreadCount", chatHandler.UnreadCount)
}
