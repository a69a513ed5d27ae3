package ports

import (
	"context"
	"time"

	"github.com/aistone/edge-backend/internal/core/domain"
)

// UserStore is the key-value user store. Keys are normalized emails, except
// when the service probes a raw-case key left by an older writer.
type UserStore interface {
	// Get returns domain.ErrUserNotFound when the key is absent.
	Get(ctx context.Context, email string) (*domain.User, error)
	// Put writes the record unconditionally.
	Put(ctx context.Context, email string, user *domain.User) error
	// PutIfAbsent writes only when the key does not exist yet and returns
	// domain.ErrUserExists otherwise.
	PutIfAbsent(ctx context.Context, email string, user *domain.User) error
}

// ResetTokenStore keeps password reset tickets until they expire.
type ResetTokenStore interface {
	Save(ctx context.Context, ticket *domain.ResetTicket, ttl time.Duration) error
	// Find returns domain.ErrResetTokenInvalid for unknown or expired tokens.
	Find(ctx context.Context, token string) (*domain.ResetTicket, error)
	// MarkUsed atomically claims the ticket without extending its lifetime.
	// It returns domain.ErrResetTokenUsed when the ticket was already claimed.
	MarkUsed(ctx context.Context, token string, at time.Time) error
}
