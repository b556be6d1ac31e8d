package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pasarbuku/internal/domain/entity"
	"pasarbuku/pkg/errors"
)

type stubVerifier struct {
	users map[string]string // token → user id
}

func (v stubVerifier) Verify(ctx context.Context, token string) (string, error) {
	if uid, ok := v.users[token]; ok {
		return uid, nil
	}
	return "", fmt.Errorf("unknown token")
}

type fakeChatService struct {
	manager *Manager

	mu       sync.Mutex
	members  map[string]map[string]bool // room id → user id → member
	sent     []*entity.Message
	failSend bool
}

func (f *fakeChatService) SendMessage(ctx context.Context, senderID, roomID, content string) (*entity.Message, error) {
	f.mu.Lock()
	if f.failSend {
		f.mu.Unlock()
		return nil, errors.Internal("Failed to send message", fmt.Errorf("store down"))
	}

	msg := &entity.Message{
		ID:         fmt.Sprintf("msg-%d", len(f.sent)+1),
		ChatRoomID: roomID,
		SenderID:   senderID,
		Content:    content,
		CreatedAt:  time.Now(),
	}
	f.sent = append(f.sent, msg)
	f.mu.Unlock()

	payload, err := NewEvent(EventNewMessage, msg)
	if err != nil {
		return nil, err
	}
	f.manager.BroadcastToRoom(roomID, payload)
	return msg, nil
}

func (f *fakeChatService) IsRoomMember(ctx context.Context, userID, roomID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.members[roomID][userID], nil
}

func (f *fakeChatService) sentMessages() []*entity.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*entity.Message, len(f.sent))
	copy(out, f.sent)
	return out
}

var connSeq int64

func newGatewayServer(t *testing.T, m *Manager) *httptest.Server {
	t.Helper()

	upgrader := gorilla.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		client := NewClient(fmt.Sprintf("conn-%d", atomic.AddInt64(&connSeq, 1)), conn)
		m.Register <- client

		go client.WritePump()
		go client.ReadPump(m)

		if token := r.URL.Query().Get("token"); token != "" {
			m.Authenticate(client, token)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, token string) *gorilla.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	if token != "" {
		url += "?token=" + token
	}

	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *gorilla.Conn) Event {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var event Event
	require.NoError(t, json.Unmarshal(raw, &event))
	return event
}

func writeEvent(t *testing.T, conn *gorilla.Conn, eventType string, data interface{}) {
	t.Helper()

	payload, err := NewEvent(eventType, data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(gorilla.TextMessage, payload))
}

func newTestManager(t *testing.T) (*Manager, *fakeChatService) {
	t.Helper()

	verifier := stubVerifier{users: map[string]string{
		"token-alice": "alice",
		"token-bob":   "bob",
		"token-carol": "carol",
	}}

	m := NewManager(verifier)
	chat := &fakeChatService{
		manager: m,
		members: map[string]map[string]bool{
			"room-1": {"alice": true, "bob": true},
			"room-2": {"carol": true},
		},
	}
	m.SetChatService(chat)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	m.Start(ctx)

	return m, chat
}

func TestAuthenticateWithQueryToken(t *testing.T) {
	m, _ := newTestManager(t)
	srv := newGatewayServer(t, m)

	conn := dial(t, srv, "token-alice")

	event := readEvent(t, conn)
	assert.Equal(t, EventAuthenticated, event.Type)

	var data AuthenticatedData
	require.NoError(t, json.Unmarshal(event.Data, &data))
	assert.Equal(t, "alice", data.UserID)
}

func TestAuthenticateWithFirstFrame(t *testing.T) {
	m, _ := newTestManager(t)
	srv := newGatewayServer(t, m)

	conn := dial(t, srv, "")
	writeEvent(t, conn, EventAuth, AuthData{Token: "token-bob"})

	event := readEvent(t, conn)
	assert.Equal(t, EventAuthenticated, event.Type)

	var data AuthenticatedData
	require.NoError(t, json.Unmarshal(event.Data, &data))
	assert.Equal(t, "bob", data.UserID)
}

func TestInvalidTokenIsTerminal(t *testing.T) {
	m, _ := newTestManager(t)
	srv := newGatewayServer(t, m)

	conn := dial(t, srv, "token-forged")

	event := readEvent(t, conn)
	assert.Equal(t, EventError, event.Type)

	var data ErrorData
	require.NoError(t, json.Unmarshal(event.Data, &data))
	assert.Equal(t, "Invalid or expired token", data.Message)

	// The server closes after the error; the next read must fail.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestUnauthenticatedEventsAreRejected(t *testing.T) {
	m, chat := newTestManager(t)
	srv := newGatewayServer(t, m)

	conn := dial(t, srv, "")
	writeEvent(t, conn, EventMessage, MessageData{ChatRoomID: "room-1", Content: "hi"})

	event := readEvent(t, conn)
	assert.Equal(t, EventError, event.Type)

	var data ErrorData
	require.NoError(t, json.Unmarshal(event.Data, &data))
	assert.Equal(t, "Authentication required", data.Message)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)

	assert.Empty(t, chat.sentMessages())
}

func TestPingWithoutAuth(t *testing.T) {
	m, _ := newTestManager(t)
	srv := newGatewayServer(t, m)

	conn := dial(t, srv, "")
	writeEvent(t, conn, EventPing, nil)

	event := readEvent(t, conn)
	assert.Equal(t, EventPong, event.Type)
}

func TestJoinRoomRequiresMembership(t *testing.T) {
	m, _ := newTestManager(t)
	srv := newGatewayServer(t, m)

	conn := dial(t, srv, "token-carol")
	require.Equal(t, EventAuthenticated, readEvent(t, conn).Type)

	writeEvent(t, conn, EventJoinRoom, JoinRoomData{ChatRoomID: "room-1"})

	event := readEvent(t, conn)
	assert.Equal(t, EventError, event.Type)

	var data ErrorData
	require.NoError(t, json.Unmarshal(event.Data, &data))
	assert.Equal(t, "You are not a member of this chat room", data.Message)

	// A failed join is not terminal; the connection still answers pings.
	writeEvent(t, conn, EventPing, nil)
	assert.Equal(t, EventPong, readEvent(t, conn).Type)
}

func joinRoom(t *testing.T, conn *gorilla.Conn, roomID string) {
	t.Helper()

	writeEvent(t, conn, EventJoinRoom, JoinRoomData{ChatRoomID: roomID})
	// joinRoom has no ack; a pong confirms the join was processed.
	writeEvent(t, conn, EventPing, nil)
	require.Equal(t, EventPong, readEvent(t, conn).Type)
}

func TestMessageFanOutToRoomMembers(t *testing.T) {
	m, chat := newTestManager(t)
	srv := newGatewayServer(t, m)

	alice := dial(t, srv, "token-alice")
	bob := dial(t, srv, "token-bob")
	carol := dial(t, srv, "token-carol")

	require.Equal(t, EventAuthenticated, readEvent(t, alice).Type)
	require.Equal(t, EventAuthenticated, readEvent(t, bob).Type)
	require.Equal(t, EventAuthenticated, readEvent(t, carol).Type)

	joinRoom(t, alice, "room-1")
	joinRoom(t, bob, "room-1")
	joinRoom(t, carol, "room-2")

	writeEvent(t, alice, EventMessage, MessageData{ChatRoomID: "room-1", Content: "안녕하세요"})

	for _, conn := range []*gorilla.Conn{alice, bob} {
		event := readEvent(t, conn)
		require.Equal(t, EventNewMessage, event.Type)

		var msg entity.Message
		require.NoError(t, json.Unmarshal(event.Data, &msg))
		assert.Equal(t, "alice", msg.SenderID)
		assert.Equal(t, "안녕하세요", msg.Content)
		assert.Equal(t, "room-1", msg.ChatRoomID)
	}

	// Carol is subscribed to a different room; only the pong she asks for
	// may arrive.
	writeEvent(t, carol, EventPing, nil)
	assert.Equal(t, EventPong, readEvent(t, carol).Type)

	sent := chat.sentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "alice", sent[0].SenderID)
}

func TestSenderIdentityComesFromConnection(t *testing.T) {
	m, chat := newTestManager(t)
	srv := newGatewayServer(t, m)

	conn := dial(t, srv, "token-bob")
	require.Equal(t, EventAuthenticated, readEvent(t, conn).Type)
	joinRoom(t, conn, "room-1")

	// A spoofed senderId field in the payload is ignored by the decoder.
	raw := []byte(`{"type":"message","data":{"chatRoomId":"room-1","content":"mine","senderId":"alice"}}`)
	require.NoError(t, conn.WriteMessage(gorilla.TextMessage, raw))

	event := readEvent(t, conn)
	require.Equal(t, EventNewMessage, event.Type)

	sent := chat.sentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "bob", sent[0].SenderID)
}

func TestPersistenceFailureReachesSenderOnly(t *testing.T) {
	m, chat := newTestManager(t)
	srv := newGatewayServer(t, m)

	alice := dial(t, srv, "token-alice")
	bob := dial(t, srv, "token-bob")
	require.Equal(t, EventAuthenticated, readEvent(t, alice).Type)
	require.Equal(t, EventAuthenticated, readEvent(t, bob).Type)

	joinRoom(t, alice, "room-1")
	joinRoom(t, bob, "room-1")

	chat.mu.Lock()
	chat.failSend = true
	chat.mu.Unlock()

	writeEvent(t, alice, EventMessage, MessageData{ChatRoomID: "room-1", Content: "lost"})

	event := readEvent(t, alice)
	assert.Equal(t, EventError, event.Type)

	var data ErrorData
	require.NoError(t, json.Unmarshal(event.Data, &data))
	assert.Equal(t, "Failed to send message", data.Message)

	// The failure is not terminal for the sender.
	writeEvent(t, alice, EventPing, nil)
	assert.Equal(t, EventPong, readEvent(t, alice).Type)

	// Bob never sees the failed message.
	writeEvent(t, bob, EventPing, nil)
	assert.Equal(t, EventPong, readEvent(t, bob).Type)
}

func TestLeaveRoomStopsDelivery(t *testing.T) {
	m, _ := newTestManager(t)
	srv := newGatewayServer(t, m)

	alice := dial(t, srv, "token-alice")
	bob := dial(t, srv, "token-bob")
	require.Equal(t, EventAuthenticated, readEvent(t, alice).Type)
	require.Equal(t, EventAuthenticated, readEvent(t, bob).Type)

	joinRoom(t, alice, "room-1")
	joinRoom(t, bob, "room-1")

	writeEvent(t, bob, EventLeaveRoom, LeaveRoomData{ChatRoomID: "room-1"})
	writeEvent(t, bob, EventPing, nil)
	require.Equal(t, EventPong, readEvent(t, bob).Type)

	writeEvent(t, alice, EventMessage, MessageData{ChatRoomID: "room-1", Content: "still here?"})
	require.Equal(t, EventNewMessage, readEvent(t, alice).Type)

	// Bob left; only his pong may arrive.
	writeEvent(t, bob, EventPing, nil)
	assert.Equal(t, EventPong, readEvent(t, bob).Type)
}

func TestQueuedFrameAfterRejectIsDropped(t *testing.T) {
	m, _ := newTestManager(t)

	// No pumps: this drives the dispatch path directly, the way ReadPump
	// does when a frame was already queued before the close frame landed.
	client := NewClient("conn-direct", nil)
	m.Register <- client

	frame, err := NewEvent(EventMessage, MessageData{ChatRoomID: "room-1", Content: "hi"})
	require.NoError(t, err)

	// Unauthenticated message: error event queued, connection unregistered,
	// Send closed by the manager loop.
	m.HandleClientEvent(client, frame)

	timeout := time.After(2 * time.Second)
	for open := true; open; {
		select {
		case _, ok := <-client.Send:
			open = ok
		case <-timeout:
			t.Fatal("teardown did not close the send queue")
		}
	}

	// A frame the read side had already queued arrives after teardown. It
	// must be dropped, not panic on the closed channel.
	m.HandleClientEvent(client, frame)
	assert.False(t, client.trySend([]byte("late")))

	// Broadcasts racing the disconnect take the same guarded path.
	m.BroadcastToRoom("room-1", []byte("payload"))
}

func TestMalformedEventIsNotTerminal(t *testing.T) {
	m, _ := newTestManager(t)
	srv := newGatewayServer(t, m)

	conn := dial(t, srv, "token-alice")
	require.Equal(t, EventAuthenticated, readEvent(t, conn).Type)

	require.NoError(t, conn.WriteMessage(gorilla.TextMessage, []byte("{not json")))

	event := readEvent(t, conn)
	assert.Equal(t, EventError, event.Type)

	writeEvent(t, conn, EventPing, nil)
	assert.Equal(t, EventPong, readEvent(t, conn).Type)
}
