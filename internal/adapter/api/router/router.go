package router

import (
	"github.com/labstack/echo/v4"

	"pasarbuku/internal/adapter/api/handler"
	"pasarbuku/internal/adapter/api/middleware"
)

type Handlers struct {
	Chat      *handler.ChatHandler
	Order     *handler.OrderHandler
	WebSocket *handler.WebSocketHandler
	DevToken  *handler.DevTokenHandler
}

func Setup(e *echo.Echo, h Handlers, authMiddleware *middleware.AuthMiddleware, environment string) {
	SetupHealthRouter(e)
	SetupChatRouter(e, h.Chat, authMiddleware)
	SetupOrderRouter(e, h.Order, authMiddleware)
	SetupWebSocketRouter(e, h.WebSocket)

	if h.DevToken != nil {
		SetupDevRouter(e, h.DevToken, environment)
	}
}
