package entity

import "time"

// Book sale statuses
const (
	BookForSale  = "FOR_SALE"
	BookReserved = "RESERVED"
	BookSold     = "SOLD"
)

type Book struct {
	ID         string    `json:"id" firestore:"id"`
	Title      string    `json:"title" firestore:"title"`
	Author     string    `json:"author,omitempty" firestore:"author,omitempty"`
	Price      int64     `json:"price" firestore:"price"`
	SaleStatus string    `json:"sale_status" firestore:"saleStatus"` // "FOR_SALE", "RESERVED", "SOLD"
	Thumbnail  string    `json:"thumbnail,omitempty" firestore:"thumbnail,omitempty"`
	SellerID   string    `json:"seller_id" firestore:"sellerId"`
	CreatedAt  time.Time `json:"created_at" firestore:"createdAt"`
}
