package usecase

import (
	"context"
	"log"
	"strings"
	"time"

	"pasarbuku/internal/domain/entity"
	"pasarbuku/internal/domain/repository"
	"pasarbuku/internal/infrastructure/ratelimit"
	ws "pasarbuku/internal/infrastructure/websocket"
	"pasarbuku/pkg/errors"
)

type ChatUseCase struct {
	chatRepo    repository.ChatRepository
	userRepo    repository.UserRepository
	bookRepo    repository.BookRepository
	broadcaster Broadcaster
	rateLimiter *ratelimit.RateLimiter
}

func NewChatUseCase(
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
	bookRepo repository.BookRepository,
	broadcaster Broadcaster,
) *ChatUseCase {
	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	return &ChatUseCase{
		chatRepo:    chatRepo,
		userRepo:    userRepo,
		bookRepo:    bookRepo,
		broadcaster: broadcaster,
		rateLimiter: rateLimiter,
	}
}

// ChatListItem is the per-room inbox summary: last message, counterpart
// snapshot, linked book, and the unread count derived from the watermark.
type ChatListItem struct {
	ChatRoomID    string       `json:"chat_room_id"`
	OrderID       string       `json:"order_id"`
	LastMessage   string       `json:"last_message,omitempty"`
	LastMessageAt *time.Time   `json:"last_message_at,omitempty"`
	Opponent      *entity.User `json:"opponent,omitempty"`
	Book          *entity.Book `json:"book,omitempty"`
	UnreadCount   int          `json:"unread_count"`
}

type RoomUnread struct {
	ChatRoomID  string `json:"chat_room_id"`
	UnreadCount int    `json:"unread_count"`
}

// CreateRoomForOrder creates the negotiation room for an order, with both
// memberships, exactly once. Called when an order is created.
func (uc *ChatUseCase) CreateRoomForOrder(ctx context.Context, order *entity.Order) (*entity.ChatRoom, error) {
	room := &entity.ChatRoom{
		OrderID:  order.ID,
		BookID:   order.BookID,
		BuyerID:  order.BuyerID,
		SellerID: order.SellerID,
	}

	if err := uc.chatRepo.CreateRoomWithMembers(ctx, room); err != nil {
		log.Printf("CreateRoomForOrder Error: Failed to create room for order %s: %v", order.ID, err)
		return nil, err
	}

	log.Printf("CreateRoomForOrder: Created room %s for order %s (buyer %s, seller %s)",
		room.ID, order.ID, order.BuyerID, order.SellerID)
	return room, nil
}

// IsRoomMember reports whether the user holds a membership in the room.
func (uc *ChatUseCase) IsRoomMember(ctx context.Context, userID, roomID string) (bool, error) {
	_, err := uc.chatRepo.GetMembership(ctx, userID, roomID)
	if err != nil {
		if errors.Is(err, "NOT_FOUND") {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// SendMessage persists a message with the given sender and then broadcasts
// it to the room's live connections. The broadcast only happens after the
// store accepts the message, so observers see messages in persistence order.
func (uc *ChatUseCase) SendMessage(ctx context.Context, senderID, roomID, content string) (*entity.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, errors.BadRequest("Message content must not be empty", nil)
	}

	allowed, waitTime := uc.rateLimiter.Allow(senderID, "send_message")
	if !allowed {
		log.Printf("SendMessage Rate Limited: User %s must wait %v", senderID, waitTime)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before sending another message", waitTime)
	}

	room, err := uc.chatRepo.GetRoomByID(ctx, roomID)
	if err != nil {
		log.Printf("SendMessage Error: Room %s not found: %v", roomID, err)
		return nil, err
	}

	if _, err := uc.chatRepo.GetMembership(ctx, senderID, roomID); err != nil {
		if errors.Is(err, "NOT_FOUND") {
			log.Printf("SendMessage Error: User %s is not a member of room %s", senderID, roomID)
			return nil, errors.Forbidden("You are not a member of this chat room", nil)
		}
		return nil, err
	}

	message := &entity.Message{
		ChatRoomID: room.ID,
		SenderID:   senderID,
		Content:    content,
	}

	if err := uc.chatRepo.CreateMessage(ctx, message); err != nil {
		log.Printf("SendMessage Error: Failed to persist message in room %s: %v", roomID, err)
		return nil, err
	}

	payload, err := ws.NewEvent(ws.EventNewMessage, message)
	if err != nil {
		log.Printf("SendMessage Warning: Failed to marshal broadcast for room %s: %v", roomID, err)
		return message, nil
	}
	uc.broadcaster.BroadcastToRoom(room.ID, payload)

	return message, nil
}

// GetRoomMessages returns a newest-first history page for a room the user
// belongs to, restartable by passing the oldest returned timestamp back as
// the next `before` cursor.
func (uc *ChatUseCase) GetRoomMessages(ctx context.Context, userID, roomID string, take int, before time.Time) ([]*entity.Message, error) {
	if _, err := uc.chatRepo.GetRoomByID(ctx, roomID); err != nil {
		log.Printf("GetRoomMessages Error: Room %s not found: %v", roomID, err)
		return nil, err
	}

	if _, err := uc.chatRepo.GetMembership(ctx, userID, roomID); err != nil {
		if errors.Is(err, "NOT_FOUND") {
			return nil, errors.Forbidden("You are not a member of this chat room", nil)
		}
		return nil, err
	}

	return uc.chatRepo.ListMessagesByRoom(ctx, roomID, take, before)
}

// MarkChatAsRead advances the user's read watermark for the room to now and
// returns the updated value. The watermark never regresses.
func (uc *ChatUseCase) MarkChatAsRead(ctx context.Context, userID, roomID string) (time.Time, error) {
	readAt, err := uc.chatRepo.MarkChatRead(ctx, userID, roomID)
	if err != nil {
		log.Printf("MarkChatAsRead Error: Failed to mark room %s read for user %s: %v", roomID, userID, err)
		return time.Time{}, err
	}

	return readAt, nil
}

// GetUnreadCounts computes the per-room unread counts for every room the
// user belongs to. Counts are derived fresh from the watermark and the
// message log; no stored counter exists to drift.
func (uc *ChatUseCase) GetUnreadCounts(ctx context.Context, userID string) ([]*RoomUnread, error) {
	rooms, err := uc.chatRepo.ListRoomsByUser(ctx, userID)
	if err != nil {
		log.Printf("GetUnreadCounts Error: Failed to list rooms for user %s: %v", userID, err)
		return nil, err
	}

	counts := make([]*RoomUnread, 0, len(rooms))
	for _, room := range rooms {
		count, err := uc.countUnread(ctx, userID, room.ID)
		if err != nil {
			log.Printf("GetUnreadCounts Warning: Failed to count unread for room %s: %v", room.ID, err)
			continue
		}
		counts = append(counts, &RoomUnread{ChatRoomID: room.ID, UnreadCount: count})
	}

	return counts, nil
}

// GetChatList assembles the user's inbox: every room membership joined with
// its latest message, counterpart snapshot, linked book, and unread count.
// Optionally filtered by the linked book id.
func (uc *ChatUseCase) GetChatList(ctx context.Context, userID, bookID string) ([]*ChatListItem, error) {
	rooms, err := uc.chatRepo.ListRoomsByUser(ctx, userID)
	if err != nil {
		log.Printf("GetChatList Error: Failed to list rooms for user %s: %v", userID, err)
		return nil, err
	}

	items := make([]*ChatListItem, 0, len(rooms))
	for _, room := range rooms {
		if bookID != "" && room.BookID != bookID {
			continue
		}

		item := &ChatListItem{
			ChatRoomID: room.ID,
			OrderID:    room.OrderID,
		}

		if latest, err := uc.chatRepo.LatestMessage(ctx, room.ID); err != nil {
			log.Printf("GetChatList Warning: Failed to get latest message for room %s: %v", room.ID, err)
		} else if latest != nil {
			item.LastMessage = latest.Content
			item.LastMessageAt = &latest.CreatedAt
		}

		opponentID := room.BuyerID
		if userID == room.BuyerID {
			opponentID = room.SellerID
		}
		if opponent, err := uc.userRepo.GetByID(ctx, opponentID); err != nil {
			log.Printf("GetChatList Warning: Opponent %s not found for room %s: %v", opponentID, room.ID, err)
		} else {
			item.Opponent = opponent
		}

		if book, err := uc.bookRepo.GetByID(ctx, room.BookID); err != nil {
			log.Printf("GetChatList Warning: Book %s not found for room %s: %v", room.BookID, room.ID, err)
		} else {
			item.Book = book
		}

		count, err := uc.countUnread(ctx, userID, room.ID)
		if err != nil {
			log.Printf("GetChatList Warning: Failed to count unread for room %s: %v", room.ID, err)
		} else {
			item.UnreadCount = count
		}

		items = append(items, item)
	}

	return items, nil
}

func (uc *ChatUseCase) countUnread(ctx context.Context, userID, roomID string) (int, error) {
	membership, err := uc.chatRepo.GetMembership(ctx, userID, roomID)
	if err != nil {
		return 0, err
	}

	return uc.chatRepo.CountUnread(ctx, roomID, userID, membership.LastReadAt)
}
