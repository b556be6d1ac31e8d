package usecase

// Broadcaster is the real-time delivery substrate the chat usecase fans
// persisted messages out through. The WebSocket manager implements it.
type Broadcaster interface {
	BroadcastToRoom(roomID string, payload []byte)
}
