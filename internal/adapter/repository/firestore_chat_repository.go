package repository

import (
	"context"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"pasarbuku/internal/domain/entity"
	"pasarbuku/internal/domain/repository"
	"pasarbuku/pkg/errors"
)

type firestoreChatRepository struct {
	client *firestore.Client
}

func NewFirestoreChatRepository(client *firestore.Client) repository.ChatRepository {
	return &firestoreChatRepository{
		client: client,
	}
}

// CreateRoomWithMembers creates the room document and both membership
// documents in a single transaction. The order-to-room mapping is 1:1, so a
// second room for the same order is a conflict.
func (r *firestoreChatRepository) CreateRoomWithMembers(ctx context.Context, room *entity.ChatRoom) error {
	if room.ID == "" {
		room.ID = uuid.New().String()
	}

	now := time.Now()
	room.CreatedAt = now
	room.Participants = []string{room.BuyerID, room.SellerID}

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		existing := r.client.Collection("chatRooms").Where("orderId", "==", room.OrderID).Limit(1)
		docs, err := tx.Documents(existing).GetAll()
		if err != nil {
			return err
		}
		if len(docs) > 0 {
			return errors.Conflict("Chat room already exists for this order")
		}

		roomRef := r.client.Collection("chatRooms").Doc(room.ID)
		if err := tx.Create(roomRef, room); err != nil {
			return err
		}

		for _, userID := range room.Participants {
			membership := &entity.RoomMembership{
				UserID:     userID,
				ChatRoomID: room.ID,
				LastReadAt: now,
			}
			if err := tx.Create(roomRef.Collection("members").Doc(userID), membership); err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		if errors.Is(err, "CONFLICT") {
			return err
		}
		log.Printf("Firestore error while creating chat room for order %s: %v", room.OrderID, err)
		return errors.Internal("Failed to create chat room", err)
	}

	return nil
}

func (r *firestoreChatRepository) GetRoomByID(ctx context.Context, id string) (*entity.ChatRoom, error) {
	doc, err := r.client.Collection("chatRooms").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Chat room", nil)
		}
		return nil, errors.Internal("Failed to get chat room", err)
	}

	var room entity.ChatRoom
	if err := doc.DataTo(&room); err != nil {
		return nil, errors.Internal("Failed to parse chat room data", err)
	}

	return &room, nil
}

func (r *firestoreChatRepository) GetRoomByOrderID(ctx context.Context, orderID string) (*entity.ChatRoom, error) {
	query := r.client.Collection("chatRooms").Where("orderId", "==", orderID).Limit(1)
	doc, err := query.Documents(ctx).Next()
	if err != nil {
		if err == iterator.Done {
			return nil, errors.NotFound("Chat room for order", nil)
		}
		return nil, errors.Internal("Failed to query chat room by order ID", err)
	}

	var room entity.ChatRoom
	if err := doc.DataTo(&room); err != nil {
		return nil, errors.Internal("Failed to parse chat room data", err)
	}

	return &room, nil
}

func (r *firestoreChatRepository) ListRoomsByUser(ctx context.Context, userID string) ([]*entity.ChatRoom, error) {
	query := r.client.Collection("chatRooms").
		Where("participants", "array-contains", userID).
		OrderBy("createdAt", firestore.Desc)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		log.Printf("Firestore error while fetching chat rooms for user %s: %v", userID, err)
		return nil, errors.Internal("Failed to fetch chat rooms", err)
	}

	var rooms []*entity.ChatRoom
	for _, doc := range docs {
		var room entity.ChatRoom
		if err := doc.DataTo(&room); err != nil {
			log.Printf("Error parsing chat room data for user %s: %v", userID, err)
			continue // Skip bad data instead of failing
		}
		rooms = append(rooms, &room)
	}

	return rooms, nil
}

func (r *firestoreChatRepository) GetMembership(ctx context.Context, userID, roomID string) (*entity.RoomMembership, error) {
	doc, err := r.client.Collection("chatRooms").Doc(roomID).Collection("members").Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Chat room membership", nil)
		}
		return nil, errors.Internal("Failed to get membership", err)
	}

	var membership entity.RoomMembership
	if err := doc.DataTo(&membership); err != nil {
		return nil, errors.Internal("Failed to parse membership data", err)
	}

	return &membership, nil
}

// MarkChatRead advances the membership watermark to the current server time.
// The watermark never moves backward, even across racing calls.
func (r *firestoreChatRepository) MarkChatRead(ctx context.Context, userID, roomID string) (time.Time, error) {
	memberRef := r.client.Collection("chatRooms").Doc(roomID).Collection("members").Doc(userID)

	var readAt time.Time
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(memberRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Chat room membership", nil)
			}
			return err
		}

		var membership entity.RoomMembership
		if err := doc.DataTo(&membership); err != nil {
			return err
		}

		now := time.Now()
		if now.After(membership.LastReadAt) {
			membership.LastReadAt = now
			if err := tx.Set(memberRef, &membership); err != nil {
				return err
			}
		}
		readAt = membership.LastReadAt

		return nil
	})

	if err != nil {
		if errors.Is(err, "NOT_FOUND") {
			return time.Time{}, err
		}
		log.Printf("Firestore error while marking chat %s read for user %s: %v", roomID, userID, err)
		return time.Time{}, errors.Internal("Failed to mark chat as read", err)
	}

	return readAt, nil
}

func (r *firestoreChatRepository) CreateMessage(ctx context.Context, message *entity.Message) error {
	// Explicit referential check: appending to an absent room is NotFound,
	// not a silent orphan document.
	roomRef := r.client.Collection("chatRooms").Doc(message.ChatRoomID)
	if _, err := roomRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Chat room", nil)
		}
		return errors.Internal("Failed to get chat room", err)
	}

	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	message.CreatedAt = time.Now()

	_, err := roomRef.Collection("messages").Doc(message.ID).Create(ctx, message)
	if err != nil {
		log.Printf("Firestore error while creating message in room %s: %v", message.ChatRoomID, err)
		return errors.Internal("Failed to create message", err)
	}

	return nil
}

// ListMessagesByRoom returns the newest `take` messages strictly before
// `before` (or the newest overall when `before` is zero), newest first.
// Document ID breaks createdAt ties so pagination order is deterministic.
func (r *firestoreChatRepository) ListMessagesByRoom(ctx context.Context, roomID string, take int, before time.Time) ([]*entity.Message, error) {
	query := r.client.Collection("chatRooms").Doc(roomID).Collection("messages").
		OrderBy("createdAt", firestore.Desc).
		OrderBy(firestore.DocumentID, firestore.Desc)

	if !before.IsZero() {
		query = query.Where("createdAt", "<", before)
	}
	if take > 0 {
		query = query.Limit(take)
	}

	iter := query.Documents(ctx)
	var messages []*entity.Message

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			log.Printf("Firestore error while iterating messages for room %s: %v", roomID, err)
			return nil, errors.Internal("Failed to iterate messages", err)
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			log.Printf("Error parsing message data for room %s: %v", roomID, err)
			return nil, errors.Internal("Failed to parse message data", err)
		}

		messages = append(messages, &message)
	}

	return messages, nil
}

func (r *firestoreChatRepository) LatestMessage(ctx context.Context, roomID string) (*entity.Message, error) {
	query := r.client.Collection("chatRooms").Doc(roomID).Collection("messages").
		OrderBy("createdAt", firestore.Desc).
		OrderBy(firestore.DocumentID, firestore.Desc).
		Limit(1)

	doc, err := query.Documents(ctx).Next()
	if err != nil {
		if err == iterator.Done {
			return nil, nil // no messages yet
		}
		return nil, errors.Internal("Failed to get latest message", err)
	}

	var message entity.Message
	if err := doc.DataTo(&message); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}

	return &message, nil
}

// CountUnread counts messages newer than the read watermark that were sent
// by the counterpart. Firestore allows only one range filter per query, so
// the sender check happens in memory; rooms have exactly two members, which
// keeps the scan small.
func (r *firestoreChatRepository) CountUnread(ctx context.Context, roomID, userID string, since time.Time) (int, error) {
	query := r.client.Collection("chatRooms").Doc(roomID).Collection("messages").
		Where("createdAt", ">", since)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		log.Printf("Firestore error while counting unread messages for room %s: %v", roomID, err)
		return 0, errors.Internal("Failed to count unread messages", err)
	}

	count := 0
	for _, doc := range docs {
		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			continue // Skip malformed documents
		}
		if message.SenderID != userID {
			count++
		}
	}

	return count, nil
}
