package repository

import (
	"context"
	"time"

	"pasarbuku/internal/domain/entity"
)

type ChatRepository interface {
	// Room and membership methods
	CreateRoomWithMembers(ctx context.Context, room *entity.ChatRoom) error
	GetRoomByID(ctx context.Context, id string) (*entity.ChatRoom, error)
	GetRoomByOrderID(ctx context.Context, orderID string) (*entity.ChatRoom, error)
	ListRoomsByUser(ctx context.Context, userID string) ([]*entity.ChatRoom, error)
	GetMembership(ctx context.Context, userID, roomID string) (*entity.RoomMembership, error)
	MarkChatRead(ctx context.Context, userID, roomID string) (time.Time, error)

	// Message methods
	CreateMessage(ctx context.Context, message *entity.Message) error
	ListMessagesByRoom(ctx context.Context, roomID string, take int, before time.Time) ([]*entity.Message, error)
	LatestMessage(ctx context.Context, roomID string) (*entity.Message, error)
	CountUnread(ctx context.Context, roomID, userID string, since time.Time) (int, error)
}
