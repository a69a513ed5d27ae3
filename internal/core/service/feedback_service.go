package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aistone/edge-backend/internal/core/domain"
	"github.com/aistone/edge-backend/internal/core/ports"
	"github.com/aistone/edge-backend/internal/pkg/metrics"
)

const (
	maxFeedbackLength = 1000
	feedbackWindow    = 10 * time.Minute
	feedbackListLimit = 20
	adminListLimit    = 100
)

var htmlTag = regexp.MustCompile(`<[^>]*>`)

type FeedbackService struct {
	repo    ports.FeedbackRepository
	limiter ports.RateLimiter
	log     zerolog.Logger
	now     func() time.Time
}

func NewFeedbackService(repo ports.FeedbackRepository, limiter ports.RateLimiter, log zerolog.Logger) *FeedbackService {
	return &FeedbackService{repo: repo, limiter: limiter, log: log, now: time.Now}
}

// Submit stores a feedback entry. Each user may submit once per feedbackWindow;
// a failed write does not count against the window.
func (s *FeedbackService) Submit(ctx context.Context, in ports.FeedbackInput) (f *domain.Feedback, err error) {
	defer func() { metrics.FeedbackSubmissionsTotal.WithLabelValues(outcome(err)).Inc() }()

	if in.Category == "" || in.Content == "" {
		return nil, domain.NewValidationError("category and content are required")
	}
	if utf8.RuneCountInString(in.Content) > maxFeedbackLength {
		return nil, domain.NewValidationError(fmt.Sprintf("content must not exceed %d characters", maxFeedbackLength))
	}
	content := strings.TrimSpace(htmlTag.ReplaceAllString(in.Content, ""))
	if content == "" {
		return nil, domain.NewValidationError("content must not be empty")
	}

	limitKey := "feedback:" + in.UserID
	allowed, retryAfter, err := s.limiter.Acquire(ctx, limitKey, feedbackWindow)
	if err != nil {
		return nil, fmt.Errorf("submit feedback: %w", err)
	}
	if !allowed {
		return nil, &domain.RateLimitError{RemainingMinutes: max(1, int(math.Ceil(retryAfter.Minutes())))}
	}

	f = &domain.Feedback{
		ID:        uuid.NewString(),
		UserID:    in.UserID,
		Email:     in.Email,
		Category:  in.Category,
		Content:   content,
		Status:    domain.FeedbackPending,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, f); err != nil {
		// Nothing was stored, so the user may retry right away.
		if rerr := s.limiter.Release(ctx, limitKey); rerr != nil {
			s.log.Error().Err(rerr).Str("user_id", in.UserID).Msg("feedback rate limit release failed")
		}
		return nil, fmt.Errorf("submit feedback: %w", err)
	}

	s.log.Info().Str("user_id", in.UserID).Str("category", in.Category).Msg("feedback submitted")
	return f, nil
}

// List returns the user's most recent feedback, newest first.
func (s *FeedbackService) List(ctx context.Context, userID string) ([]*domain.Feedback, error) {
	if userID == "" {
		return nil, errors.New("list feedback: empty user id")
	}
	items, err := s.repo.ListByUser(ctx, userID, feedbackListLimit)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	return items, nil
}

// ListAll returns the most recent feedback of every user for the admin view.
func (s *FeedbackService) ListAll(ctx context.Context) ([]*domain.Feedback, error) {
	items, err := s.repo.ListRecent(ctx, adminListLimit)
	if err != nil {
		return nil, fmt.Errorf("list all feedback: %w", err)
	}
	return items, nil
}
