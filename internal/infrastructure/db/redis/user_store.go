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

// UserStore keeps each user as a JSON document under user:<email>. The field
// names match the records written by the previous backend.
type UserStore struct {
	client *redis.Client
}

func NewUserStore(client *redis.Client) *UserStore {
	return &UserStore{client: client}
}

type kvGoogle struct {
	ID          string    `json:"id,omitempty"`
	Name        string    `json:"name,omitempty"`
	Picture     string    `json:"picture,omitempty"`
	Locale      string    `json:"locale,omitempty"`
	LastUpdated time.Time `json:"lastUpdated"`
}

type kvUser struct {
	ID                 string     `json:"id"`
	Username           string     `json:"username"`
	Email              string     `json:"email"`
	PasswordHash       *string    `json:"passwordHash"`
	Salt               *string    `json:"salt"`
	PasswordAlgorithm  string     `json:"passwordAlgorithm,omitempty"`
	PasswordIterations int        `json:"passwordIterations,omitempty"`
	PasswordKeyLength  int        `json:"passwordKeyLength,omitempty"`
	PasswordDigest     string     `json:"passwordDigest,omitempty"`
	PasswordUpdatedAt  *time.Time `json:"passwordUpdatedAt,omitempty"`
	AuthProvider       string     `json:"authProvider,omitempty"`
	GoogleInfo         *kvGoogle  `json:"googleInfo,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	LastLoginAt        *time.Time `json:"lastLoginAt"`
	// Absent on some old records; absent means active.
	IsActive *bool `json:"isActive,omitempty"`
}

func toKV(u *domain.User) kvUser {
	active := u.IsActive
	doc := kvUser{
		ID:                 u.ID,
		Username:           u.Username,
		Email:              u.Email,
		PasswordHash:       nullable(u.PasswordHash),
		Salt:               nullable(u.Salt),
		PasswordAlgorithm:  string(u.PasswordAlgorithm),
		PasswordIterations: u.PasswordIterations,
		PasswordKeyLength:  u.PasswordKeyLength,
		PasswordDigest:     u.PasswordDigest,
		PasswordUpdatedAt:  u.PasswordUpdatedAt,
		AuthProvider:       u.AuthProvider,
		CreatedAt:          u.CreatedAt,
		LastLoginAt:        u.LastLoginAt,
		IsActive:           &active,
	}
	if g := u.Google; g != nil {
		doc.GoogleInfo = &kvGoogle{ID: g.ID, Name: g.Name, Picture: g.Picture, Locale: g.Locale, LastUpdated: g.LastUpdated}
	}
	return doc
}

func (k kvUser) toDomain() *domain.User {
	u := &domain.User{
		ID:                 k.ID,
		Username:           k.Username,
		Email:              k.Email,
		PasswordAlgorithm:  domain.PasswordAlgorithm(k.PasswordAlgorithm),
		PasswordIterations: k.PasswordIterations,
		PasswordKeyLength:  k.PasswordKeyLength,
		PasswordDigest:     k.PasswordDigest,
		PasswordUpdatedAt:  k.PasswordUpdatedAt,
		AuthProvider:       k.AuthProvider,
		CreatedAt:          k.CreatedAt,
		LastLoginAt:        k.LastLoginAt,
		IsActive:           k.IsActive == nil || *k.IsActive,
	}
	if k.PasswordHash != nil {
		u.PasswordHash = *k.PasswordHash
	}
	if k.Salt != nil {
		u.Salt = *k.Salt
	}
	if g := k.GoogleInfo; g != nil {
		u.Google = &domain.GoogleProfile{ID: g.ID, Name: g.Name, Picture: g.Picture, Locale: g.Locale, LastUpdated: g.LastUpdated}
	}
	return u
}

func (s *UserStore) Get(ctx context.Context, email string) (*domain.User, error) {
	raw, err := s.client.Get(ctx, userPrefix+email).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	var doc kvUser
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return doc.toDomain(), nil
}

func (s *UserStore) Put(ctx context.Context, email string, user *domain.User) error {
	raw, err := json.Marshal(toKV(user))
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.client.Set(ctx, userPrefix+email, raw, 0).Err(); err != nil {
		return fmt.Errorf("put user: %w", err)
	}
	return nil
}

// PutIfAbsent uses SET NX, so concurrent registrations of one email resolve
// to a single winner.
func (s *UserStore) PutIfAbsent(ctx context.Context, email string, user *domain.User) error {
	raw, err := json.Marshal(toKV(user))
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	ok, err := s.client.SetNX(ctx, userPrefix+email, raw, 0).Result()
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	if !ok {
		return domain.ErrUserExists
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
