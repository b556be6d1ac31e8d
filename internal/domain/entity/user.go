package entity

import "time"

type User struct {
	ID        string    `json:"id" firestore:"id"`
	Name      string    `json:"name" firestore:"name"`
	Email     string    `json:"email,omitempty" firestore:"email,omitempty"`
	ImageURL  string    `json:"image_url,omitempty" firestore:"imageUrl,omitempty"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}
