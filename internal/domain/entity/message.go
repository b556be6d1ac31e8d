package entity

import "time"

type Message struct {
	ID         string    `json:"id" firestore:"id"`
	ChatRoomID string    `json:"chat_room_id" firestore:"chatRoomId"`
	SenderID   string    `json:"sender_id" firestore:"senderId"`
	Content    string    `json:"content" firestore:"content"`
	CreatedAt  time.Time `json:"created_at" firestore:"createdAt"`
}
