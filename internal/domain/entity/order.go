package entity

import "time"

// Order statuses
const (
	OrderPending   = "PENDING"
	OrderApproved  = "APPROVED"
	OrderCancelled = "CANCELLED"
)

type Order struct {
	ID        string    `json:"id" firestore:"id"`
	BookID    string    `json:"book_id" firestore:"bookId"`
	BuyerID   string    `json:"buyer_id" firestore:"buyerId"`
	SellerID  string    `json:"seller_id" firestore:"sellerId"`
	Status    string    `json:"status" firestore:"status"` // "PENDING", "APPROVED", "CANCELLED"
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}
