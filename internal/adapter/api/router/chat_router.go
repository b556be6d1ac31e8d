package router

import (
	"github.com/labstack/echo/v4"

	"pasarbuku/internal/adapter/api/handler"
	"pasarbuku/internal/adapter/api/middleware"
)

// SetupChatRouter sets up all chat-related routes (excluding WebSocket)
func SetupChatRouter(e *echo.Echo, chatHandler *handler.ChatHandler, authMiddleware *middleware.AuthMiddleware) {
	chatGroup := e.Group("/v1/chat")
	chatGroup.Use(authMiddleware.Authenticate) // All chat endpoints require authentication

	chatGroup.GET("", chatHandler.GetChatList)                          // GET /v1/chat - Chat room list with previews
	chatGroup.GET("/unread-messages", chatHandler.GetUnreadCounts)      // GET /v1/chat/unread-messages - Per-room unread counts
	chatGroup.GET("/:chatRoomId/messages", chatHandler.GetChatMessages) // GET /v1/chat/:chatRoomId/messages - Message history
	chatGroup.PATCH("/:chatRoomId/read", chatHandler.MarkChatAsRead)    // PATCH /v1/chat/:chatRoomId/read - Advance read watermark
}
