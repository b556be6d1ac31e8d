package websocket

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// Client represents a single WebSocket connection. A user may hold several
// concurrent connections (multiple tabs), so clients are keyed by connection
// id, not user id. The user id is empty until authentication succeeds.
type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte

	mu     sync.RWMutex
	userID string

	sendMu sync.Mutex
	closed bool
}

func NewClient(id string, conn *websocket.Conn) *Client {
	return &Client{
		ID:   id,
		Conn: conn,
		Send: make(chan []byte, 256),
	}
}

// UserID returns the authenticated user id, or "" while unauthenticated.
func (c *Client) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

func (c *Client) setUserID(userID string) {
	c.mu.Lock()
	c.userID = userID
	c.mu.Unlock()
}

// trySend enqueues a payload unless the connection is being torn down or its
// buffer is full, and reports whether the payload was queued. The teardown
// check and the enqueue happen under one lock, so a send can never race the
// channel close.
func (c *Client) trySend(payload []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.Send <- payload:
		return true
	default:
		return false
	}
}

// closeSend closes the Send channel exactly once. Frames still arriving from
// the read side after teardown see closed=true and are dropped.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// ReadPump reads events from the WebSocket connection and hands them to the
// manager. It runs on its own goroutine per connection; persistence and
// broadcast happen inside the handlers without blocking other connections.
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.Unregister <- c
		c.Conn.Close()
	}()

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Printf("WebSocket: read error on connection %s: %v", c.ID, err)
			}
			break
		}

		m.HandleClientEvent(c, raw)
	}
}

// WritePump sends queued events to the WebSocket connection. Closing the Send
// channel flushes buffered events, writes a close frame, and tears the
// connection down.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		message, ok := <-c.Send
		if !ok {
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("WebSocket: write error on connection %s: %v", c.ID, err)
			return
		}
	}
}
