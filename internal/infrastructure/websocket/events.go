package websocket

import (
	"encoding/json"
	"time"
)

// Client → server event types
const (
	EventAuth      = "auth"
	EventJoinRoom  = "joinRoom"
	EventLeaveRoom = "leaveRoom"
	EventMessage   = "message"
	EventPing      = "ping"
)

// Server → client event types
const (
	EventAuthenticated = "authenticated"
	EventError         = "error"
	EventNewMessage    = "newMessage"
	EventPong          = "pong"
)

// Event is the wire envelope for both directions. Data is decoded into the
// typed payload for the event's type at the boundary before dispatch.
type Event struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

type AuthData struct {
	Token string `json:"token"`
}

type JoinRoomData struct {
	ChatRoomID string `json:"chatRoomId"`
}

type LeaveRoomData struct {
	ChatRoomID string `json:"chatRoomId"`
}

type MessageData struct {
	ChatRoomID string `json:"chatRoomId"`
	Content    string `json:"content"`
}

type AuthenticatedData struct {
	UserID string `json:"userId"`
}

type ErrorData struct {
	Message string `json:"message"`
}

// NewEvent marshals a typed payload into the wire envelope.
func NewEvent(eventType string, data interface{}) ([]byte, error) {
	var raw json.RawMessage
	if data != nil {
		encoded, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		raw = encoded
	}

	return json.Marshal(Event{
		Type:      eventType,
		Data:      raw,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
