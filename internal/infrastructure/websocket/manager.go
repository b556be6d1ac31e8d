package websocket

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log"
	"sync"

	"pasarbuku/internal/domain/entity"
	"pasarbuku/pkg/errors"
)

// TokenVerifier validates a connection credential and resolves the user id.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// ChatService is the slice of the chat usecase the gateway needs: persisting
// outbound messages and checking room membership before a join.
type ChatService interface {
	SendMessage(ctx context.Context, senderID, roomID, content string) (*entity.Message, error)
	IsRoomMember(ctx context.Context, userID, roomID string) (bool, error)
}

// Manager owns all live connections: who is authenticated and which rooms
// each connection is subscribed to. It is the single fan-out point for
// newMessage broadcasts.
type Manager struct {
	clients    map[string]*Client            // connection id → client
	rooms      map[string]map[string]*Client // room id → connection id → client
	Register   chan *Client
	Unregister chan *Client
	mutex      sync.RWMutex

	verifier TokenVerifier
	chat     ChatService
}

func NewManager(verifier TokenVerifier) *Manager {
	return &Manager{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		verifier:   verifier,
	}
}

// SetChatService wires the chat usecase in after construction; the usecase
// itself broadcasts through the manager, so the two are built in sequence.
func (m *Manager) SetChatService(chat ChatService) {
	m.chat = chat
}

// Start runs the manager's registration loop in a goroutine.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				m.clients[client.ID] = client
				m.mutex.Unlock()
				log.Printf("WebSocket: connection %s registered", client.ID)

			case client := <-m.Unregister:
				m.mutex.Lock()
				if _, ok := m.clients[client.ID]; ok {
					delete(m.clients, client.ID)
					for roomID, members := range m.rooms {
						delete(members, client.ID)
						if len(members) == 0 {
							delete(m.rooms, roomID)
						}
					}
					client.closeSend()
				}
				m.mutex.Unlock()
				log.Printf("WebSocket: connection %s unregistered", client.ID)

			case <-ctx.Done():
				return
			}
		}
	}()
}

// HandleClientEvent decodes and dispatches a single inbound event. Any event
// other than auth or ping on an unauthenticated connection is a terminal
// rejection: the connection is told why and closed.
func (m *Manager) HandleClientEvent(client *Client, raw []byte) {
	var event Event
	if err := json.Unmarshal(raw, &event); err != nil {
		log.Printf("WebSocket: malformed event from connection %s: %v", client.ID, err)
		m.sendError(client, "Invalid event format")
		return
	}

	switch event.Type {
	case EventAuth:
		var data AuthData
		if err := json.Unmarshal(event.Data, &data); err != nil {
			m.reject(client, "Invalid auth payload")
			return
		}
		m.Authenticate(client, data.Token)

	case EventPing:
		payload, _ := NewEvent(EventPong, map[string]string{"status": "alive"})
		m.sendToClient(client, payload)

	case EventJoinRoom:
		if !m.requireAuth(client) {
			return
		}
		var data JoinRoomData
		if err := json.Unmarshal(event.Data, &data); err != nil || data.ChatRoomID == "" {
			m.sendError(client, "Invalid joinRoom payload")
			return
		}
		m.handleJoinRoom(client, data.ChatRoomID)

	case EventLeaveRoom:
		if !m.requireAuth(client) {
			return
		}
		var data LeaveRoomData
		if err := json.Unmarshal(event.Data, &data); err != nil || data.ChatRoomID == "" {
			m.sendError(client, "Invalid leaveRoom payload")
			return
		}
		m.removeFromRoom(client, data.ChatRoomID)
		log.Printf("WebSocket: connection %s left room %s", client.ID, data.ChatRoomID)

	case EventMessage:
		if !m.requireAuth(client) {
			return
		}
		var data MessageData
		if err := json.Unmarshal(event.Data, &data); err != nil || data.ChatRoomID == "" {
			m.sendError(client, "Invalid message payload")
			return
		}
		m.handleMessage(client, data)

	default:
		log.Printf("WebSocket: unknown event type %q from connection %s", event.Type, client.ID)
		m.sendError(client, "Unknown event type")
	}
}

// Authenticate verifies the connection credential. The credential arrives
// out-of-band: either as a token query parameter on the upgrade request or as
// the first auth event on the socket. Failure is terminal for the connection,
// never downgraded to anonymous.
func (m *Manager) Authenticate(client *Client, token string) {
	if token == "" {
		m.reject(client, "Authentication token is required")
		return
	}
	if m.verifier == nil {
		log.Printf("WebSocket: no token verifier configured, rejecting connection %s", client.ID)
		m.reject(client, "Server authentication is not configured")
		return
	}

	userID, err := m.verifier.Verify(context.Background(), token)
	if err != nil {
		log.Printf("WebSocket: authentication failed for connection %s: %v", client.ID, err)
		m.reject(client, "Invalid or expired token")
		return
	}

	client.setUserID(userID)
	log.Printf("WebSocket: connection %s authenticated as user %s", client.ID, userID)

	payload, _ := NewEvent(EventAuthenticated, AuthenticatedData{UserID: userID})
	m.sendToClient(client, payload)
}

func (m *Manager) handleJoinRoom(client *Client, roomID string) {
	member, err := m.chat.IsRoomMember(context.Background(), client.UserID(), roomID)
	if err != nil {
		log.Printf("WebSocket: membership check failed for user %s in room %s: %v", client.UserID(), roomID, err)
		m.sendError(client, "Failed to verify room membership")
		return
	}
	if !member {
		m.sendError(client, "You are not a member of this chat room")
		return
	}

	m.mutex.Lock()
	if m.rooms[roomID] == nil {
		m.rooms[roomID] = make(map[string]*Client)
	}
	m.rooms[roomID][client.ID] = client
	m.mutex.Unlock()

	log.Printf("WebSocket: connection %s (user %s) joined room %s", client.ID, client.UserID(), roomID)
}

func (m *Manager) handleMessage(client *Client, data MessageData) {
	// The sender id is always the connection's authenticated identity; a
	// client-supplied sender never reaches the store.
	_, err := m.chat.SendMessage(context.Background(), client.UserID(), data.ChatRoomID, data.Content)
	if err != nil {
		// Persistence failures go back to the sender only; the client may
		// resubmit. The connection stays open.
		log.Printf("WebSocket: send failed for user %s in room %s: %v", client.UserID(), data.ChatRoomID, err)
		m.sendError(client, errorMessage(err))
		return
	}
	// Broadcast happens inside the chat service after the message is
	// persisted, in persistence order.
}

// BroadcastToRoom fans a payload out to every connection subscribed to the
// room, including the sender's own connections so multiple tabs stay in sync.
func (m *Manager) BroadcastToRoom(roomID string, payload []byte) {
	m.mutex.RLock()
	members := make([]*Client, 0, len(m.rooms[roomID]))
	for _, client := range m.rooms[roomID] {
		members = append(members, client)
	}
	m.mutex.RUnlock()

	for _, client := range members {
		if !client.trySend(payload) {
			log.Printf("WebSocket: dropping broadcast for connection %s", client.ID)
		}
	}
}

func (m *Manager) requireAuth(client *Client) bool {
	if client.UserID() == "" {
		m.reject(client, "Authentication required")
		return false
	}
	return true
}

// reject sends an error event and force-closes the connection. Buffered
// events, the error included, are flushed before the close frame.
func (m *Manager) reject(client *Client, message string) {
	m.sendError(client, message)
	m.Unregister <- client
}

func (m *Manager) removeFromRoom(client *Client, roomID string) {
	m.mutex.Lock()
	if members, ok := m.rooms[roomID]; ok {
		delete(members, client.ID)
		if len(members) == 0 {
			delete(m.rooms, roomID)
		}
	}
	m.mutex.Unlock()
}

func (m *Manager) sendError(client *Client, message string) {
	payload, _ := NewEvent(EventError, ErrorData{Message: message})
	m.sendToClient(client, payload)
}

func (m *Manager) sendToClient(client *Client, payload []byte) {
	if !client.trySend(payload) {
		log.Printf("WebSocket: dropping event for connection %s", client.ID)
	}
}

// errorMessage surfaces application error messages to the client without
// leaking internal detail for unexpected failures.
func errorMessage(err error) string {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr.Message
	}
	return "Failed to send message"
}
