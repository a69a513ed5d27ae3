package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aistone/edge-backend/internal/core/domain"
)

const collectionUsers = "users"

// UserRepository stores user records keyed by email. PutIfAbsent relies on
// the unique index created by EnsureIndexes.
type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers)}
}

type mongoGoogle struct {
	ID          string    `bson:"id,omitempty"`
	Name        string    `bson:"name,omitempty"`
	Picture     string    `bson:"picture,omitempty"`
	Locale      string    `bson:"locale,omitempty"`
	LastUpdated time.Time `bson:"last_updated"`
}

type mongoUser struct {
	Key                string       `bson:"_id"`
	UserID             string       `bson:"user_id"`
	Username           string       `bson:"username"`
	Email              string       `bson:"email"`
	PasswordHash       string       `bson:"password_hash,omitempty"`
	Salt               string       `bson:"salt,omitempty"`
	PasswordAlgorithm  string       `bson:"password_algorithm,omitempty"`
	PasswordIterations int          `bson:"password_iterations,omitempty"`
	PasswordKeyLength  int          `bson:"password_keylen,omitempty"`
	PasswordDigest     string       `bson:"password_digest,omitempty"`
	PasswordUpdatedAt  *time.Time   `bson:"password_updated_at,omitempty"`
	AuthProvider       string       `bson:"auth_provider,omitempty"`
	Google             *mongoGoogle `bson:"google,omitempty"`
	CreatedAt          time.Time    `bson:"created_at"`
	LastLoginAt        *time.Time   `bson:"last_login_at,omitempty"`
	IsActive           bool         `bson:"is_active"`
}

func toMongoUser(key string, u *domain.User) mongoUser {
	doc := mongoUser{
		Key:                key,
		UserID:             u.ID,
		Username:           u.Username,
		Email:              u.Email,
		PasswordHash:       u.PasswordHash,
		Salt:               u.Salt,
		PasswordAlgorithm:  string(u.PasswordAlgorithm),
		PasswordIterations: u.PasswordIterations,
		PasswordKeyLength:  u.PasswordKeyLength,
		PasswordDigest:     u.PasswordDigest,
		PasswordUpdatedAt:  u.PasswordUpdatedAt,
		AuthProvider:       u.AuthProvider,
		CreatedAt:          u.CreatedAt,
		LastLoginAt:        u.LastLoginAt,
		IsActive:           u.IsActive,
	}
	if g := u.Google; g != nil {
		doc.Google = &mongoGoogle{ID: g.ID, Name: g.Name, Picture: g.Picture, Locale: g.Locale, LastUpdated: g.LastUpdated}
	}
	return doc
}

func (m mongoUser) toDomain() *domain.User {
	u := &domain.User{
		ID:                 m.UserID,
		Username:           m.Username,
		Email:              m.Email,
		PasswordHash:       m.PasswordHash,
		Salt:               m.Salt,
		PasswordAlgorithm:  domain.PasswordAlgorithm(m.PasswordAlgorithm),
		PasswordIterations: m.PasswordIterations,
		PasswordKeyLength:  m.PasswordKeyLength,
		PasswordDigest:     m.PasswordDigest,
		PasswordUpdatedAt:  utcPtr(m.PasswordUpdatedAt),
		AuthProvider:       m.AuthProvider,
		CreatedAt:          m.CreatedAt.UTC(),
		LastLoginAt:        utcPtr(m.LastLoginAt),
		IsActive:           m.IsActive,
	}
	if g := m.Google; g != nil {
		u.Google = &domain.GoogleProfile{ID: g.ID, Name: g.Name, Picture: g.Picture, Locale: g.Locale, LastUpdated: g.LastUpdated.UTC()}
	}
	return u
}

// Get returns the user stored under email.
func (r *UserRepository) Get(ctx context.Context, email string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoUser
	if err := r.col.FindOne(ctx, bson.M{"_id": email}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

// Put replaces the user stored under email, creating it when absent.
func (r *UserRepository) Put(ctx context.Context, email string, user *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": email}, toMongoUser(email, user), options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("put user: %w", err)
	}
	return nil
}

// PutIfAbsent inserts the user and reports domain.ErrUserExists when the key is taken.
func (r *UserRepository) PutIfAbsent(ctx context.Context, email string, user *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, toMongoUser(email, user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// EnsureIndexes creates the secondary indexes on the users collection. The
// email key itself is the primary key.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
