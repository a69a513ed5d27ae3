package ports

import (
	"context"
	"time"

	"github.com/aistone/edge-backend/internal/core/domain"
)

// FeedbackRepository defines persistence operations for feedback.
type FeedbackRepository interface {
	Create(ctx context.Context, f *domain.Feedback) error
	// ListByUser returns at most limit entries, newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]*domain.Feedback, error)
	// ListRecent returns at most limit entries across all users, newest first.
	ListRecent(ctx context.Context, limit int) ([]*domain.Feedback, error)
}

// RateLimiter grants one action per key per window.
type RateLimiter interface {
	// Acquire reports whether the action is allowed; when it is not, retryAfter
	// is the time left in the current window.
	Acquire(ctx context.Context, key string, window time.Duration) (allowed bool, retryAfter time.Duration, err error)
	// Release gives the slot back, for an action that did not happen after all.
	Release(ctx context.Context, key string) error
}

// FeedbackInput is the DTO passed from the transport layer to FeedbackService.
type FeedbackInput struct {
	UserID   string
	Email    string
	Category string
	Content  string
}

type FeedbackService interface {
	Submit(ctx context.Context, in FeedbackInput) (*domain.Feedback, error)
	List(ctx context.Context, userID string) ([]*domain.Feedback, error)
	ListAll(ctx context.Context) ([]*domain.Feedback, error)
}
