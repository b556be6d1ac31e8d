package entity

import "time"

// ChatRoom is a two-party negotiation channel created exactly once per order.
// Rooms are immutable after creation; membership never changes.
type ChatRoom struct {
	ID           string    `json:"id" firestore:"id"`
	OrderID      string    `json:"order_id" firestore:"orderId"`
	BookID       string    `json:"book_id" firestore:"bookId"`
	BuyerID      string    `json:"buyer_id" firestore:"buyerId"`
	SellerID     string    `json:"seller_id" firestore:"sellerId"`
	Participants []string  `json:"participants" firestore:"participants"`
	CreatedAt    time.Time `json:"created_at" firestore:"createdAt"`
}

// RoomMembership carries a user's read watermark for a room. LastReadAt
// starts at room creation time and only ever moves forward.
type RoomMembership struct {
	UserID     string    `json:"user_id" firestore:"userId"`
	ChatRoomID string    `json:"chat_room_id" firestore:"chatRoomId"`
	LastReadAt time.Time `json:"last_read_at" firestore:"lastReadAt"`
}
