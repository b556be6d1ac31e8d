package router

import (
	"github.com/labstack/echo/v4"

	"pasarbuku/internal/adapter/api/handler"
)

// SetupWebSocketRouter sets up WebSocket routes
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler) {
	// No auth middleware here; credentials arrive via the token query
	// parameter or the first auth frame after upgrade.
	e.GET("/ws", wsHandler.HandleWebSocket)
}
