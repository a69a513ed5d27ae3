package domain

import "time"

const (
	FeedbackPending   = "pending"
	FeedbackProcessed = "processed"
)

// Feedback is a user-submitted note about the product.
type Feedback struct {
	ID        string    `json:"id" bson:"_id"`
	UserID    string    `json:"user_id" bson:"user_id"`
	Email     string    `json:"email" bson:"email"`
	Category  string    `json:"category" bson:"category"`
	Content   string    `json:"content" bson:"content"`
	Status    string    `json:"status" bson:"status"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
