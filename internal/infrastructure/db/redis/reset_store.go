package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aistone/edge-backend/internal/core/domain"
)

// ResetStore keeps password reset tickets under reset:<token>; Redis expiry
// enforces the ticket lifetime.
type ResetStore struct {
	client *redis.Client
}

func NewResetStore(client *redis.Client) *ResetStore {
	return &ResetStore{client: client}
}

func (s *ResetStore) Save(ctx context.Context, ticket *domain.ResetTicket, ttl time.Duration) error {
	raw, err := json.Marshal(ticket)
	if err != nil {
		return fmt.Errorf("encode reset ticket: %w", err)
	}
	if err := s.client.Set(ctx, resetPrefix+ticket.Token, raw, ttl).Err(); err != nil {
		return fmt.Errorf("save reset ticket: %w", err)
	}
	return nil
}

func (s *ResetStore) Find(ctx context.Context, token string) (*domain.ResetTicket, error) {
	raw, err := s.client.Get(ctx, resetPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrResetTokenInvalid
		}
		return nil, fmt.Errorf("find reset ticket: %w", err)
	}
	return decodeTicket(raw, token)
}

// MarkUsed claims the ticket, keeping its remaining TTL. The read and the
// write run under WATCH, so of several concurrent callers exactly one wins;
// the others get domain.ErrResetTokenUsed.
func (s *ResetStore) MarkUsed(ctx context.Context, token string, at time.Time) error {
	key := resetPrefix + token
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return domain.ErrResetTokenInvalid
			}
			return err
		}
		t, err := decodeTicket(raw, token)
		if err != nil {
			return err
		}
		if t.Used {
			return domain.ErrResetTokenUsed
		}
		t.Used = true
		t.UsedAt = &at

		updated, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("encode reset ticket: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, redis.KeepTTL)
			return nil
		})
		return err
	}, key)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.TxFailedErr):
		// Someone else wrote the ticket between our read and EXEC.
		return domain.ErrResetTokenUsed
	case errors.Is(err, domain.ErrResetTokenInvalid), errors.Is(err, domain.ErrResetTokenUsed):
		return err
	default:
		return fmt.Errorf("mark reset ticket used: %w", err)
	}
}

func decodeTicket(raw []byte, token string) (*domain.ResetTicket, error) {
	var t domain.ResetTicket
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("decode reset ticket: %w", err)
	}
	if t.Token == "" {
		t.Token = token
	}
	return &t, nil
}
