package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aistone/edge-backend/internal/core/domain"
)

const collectionFeedback = "feedback"

type FeedbackRepository struct {
	col *mongo.Collection
}

func NewFeedbackRepository(db *mongo.Database) *FeedbackRepository {
	return &FeedbackRepository{col: db.Collection(collectionFeedback)}
}

// Create inserts a new feedback document.
func (r *FeedbackRepository) Create(ctx context.Context, f *domain.Feedback) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, f); err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

// ListByUser returns the user's feedback, newest first.
func (r *FeedbackRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.Feedback, error) {
	return r.find(ctx, bson.M{"user_id": userID}, limit)
}

// ListRecent returns the newest feedback across all users.
func (r *FeedbackRepository) ListRecent(ctx context.Context, limit int) ([]*domain.Feedback, error) {
	return r.find(ctx, bson.M{}, limit)
}

func (r *FeedbackRepository) find(ctx context.Context, filter bson.M, limit int) ([]*domain.Feedback, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find feedback: %w", err)
	}
	defer cur.Close(ctx)

	items := make([]*domain.Feedback, 0)
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode feedback: %w", err)
	}
	return items, nil
}

// EnsureIndexes creates the indexes backing the list queries.
func (r *FeedbackRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	return err
}
