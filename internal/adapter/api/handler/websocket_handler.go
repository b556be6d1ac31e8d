package handler

import (
	"net/http"

	"github.com/google/uuid"
	gorilla "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	ws "pasarbuku/internal/infrastructure/websocket"
	"pasarbuku/pkg/logger"
)

var upgrader = gorilla.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checks are enforced by the reverse proxy in production.
		return true
	},
}

type WebSocketHandler struct {
	manager *ws.Manager
}

func NewWebSocketHandler(manager *ws.Manager) *WebSocketHandler {
	return &WebSocketHandler{manager: manager}
}

// HandleWebSocket upgrades the connection and hands it to the manager. The
// client may authenticate either with a token query parameter at upgrade
// time or with an auth event as its first frame.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket Upgrade Error: %v", err)
		return err
	}

	client := ws.NewClient(uuid.New().String(), conn)
	h.manager.Register <- client

	go client.WritePump()
	go client.ReadPump(h.manager)

	if token := c.QueryParam("token"); token != "" {
		h.manager.Authenticate(client, token)
	}

	return nil
}
