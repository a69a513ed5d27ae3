package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/aistone/edge-backend/internal/core/domain"
	"github.com/aistone/edge-backend/internal/core/ports"
)

type stubFeedbackRepo struct {
	created []*domain.Feedback
	err     error
	limit   int
}

func (r *stubFeedbackRepo) Create(_ context.Context, f *domain.Feedback) error {
	if r.err != nil {
		return r.err
	}
	r.created = append(r.created, f)
	return nil
}

func (r *stubFeedbackRepo) ListByUser(_ context.Context, userID string, limit int) ([]*domain.Feedback, error) {
	r.limit = limit
	var out []*domain.Feedback
	for i := len(r.created) - 1; i >= 0; i-- {
		if r.created[i].UserID == userID {
			out = append(out, r.created[i])
		}
	}
	return out, nil
}

func (r *stubFeedbackRepo) ListRecent(_ context.Context, limit int) ([]*domain.Feedback, error) {
	r.limit = limit
	out := make([]*domain.Feedback, 0, len(r.created))
	for i := len(r.created) - 1; i >= 0; i-- {
		out = append(out, r.created[i])
	}
	return out, nil
}

type stubLimiter struct {
	held     map[string]bool
	left     time.Duration
	keys     []string
	released []string
}

func (l *stubLimiter) Acquire(_ context.Context, key string, _ time.Duration) (bool, time.Duration, error) {
	l.keys = append(l.keys, key)
	if l.held == nil {
		l.held = make(map[string]bool)
	}
	if l.held[key] {
		return false, l.left, nil
	}
	l.held[key] = true
	return true, 0, nil
}

func (l *stubLimiter) Release(_ context.Context, key string) error {
	delete(l.held, key)
	l.released = append(l.released, key)
	return nil
}

func TestFeedbackService_Submit_Success(t *testing.T) {
	repo := &stubFeedbackRepo{}
	svc := NewFeedbackService(repo, &stubLimiter{}, zerolog.Nop())

	f, err := svc.Submit(context.Background(), ports.FeedbackInput{
		UserID:   "u1",
		Email:    "u1@example.com",
		Category: "bug",
		Content:  "  <b>Upload</b> fails <script>x</script> ",
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if f.Content != "Upload fails x" {
		t.Fatalf("expected tags stripped, got %q", f.Content)
	}
	if f.Status != domain.FeedbackPending || f.ID == "" || f.CreatedAt.IsZero() {
		t.Fatalf("unexpected entry: %+v", f)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected one stored entry, got %d", len(repo.created))
	}
}

func TestFeedbackService_Submit_Validation(t *testing.T) {
	svc := NewFeedbackService(&stubFeedbackRepo{}, &stubLimiter{}, zerolog.Nop())

	cases := []ports.FeedbackInput{
		{UserID: "u1", Category: "", Content: "hello"},
		{UserID: "u1", Category: "bug", Content: ""},
		{UserID: "u1", Category: "bug", Content: "<p></p>"},
		{UserID: "u1", Category: "bug", Content: strings.Repeat("a", 1001)},
	}
	for _, in := range cases {
		if _, err := svc.Submit(context.Background(), in); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected ErrValidation for %q, got %v", in.Content, err)
		}
	}

	if _, err := svc.Submit(context.Background(), ports.FeedbackInput{UserID: "u1", Category: "bug", Content: strings.Repeat("é", 1000)}); err != nil {
		t.Fatalf("1000 characters should be accepted: %v", err)
	}
}

func TestFeedbackService_Submit_RateLimited(t *testing.T) {
	limiter := &stubLimiter{left: 9*time.Minute + 10*time.Second}
	svc := NewFeedbackService(&stubFeedbackRepo{}, limiter, zerolog.Nop())
	in := ports.FeedbackInput{UserID: "u1", Category: "idea", Content: "more filters"}

	if _, err := svc.Submit(context.Background(), in); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	_, err := svc.Submit(context.Background(), in)

	var rl *domain.RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if rl.RemainingMinutes != 10 {
		t.Fatalf("expected 10 minutes remaining, got %d", rl.RemainingMinutes)
	}
	if limiter.keys[0] != "feedback:u1" {
		t.Fatalf("unexpected limiter key %q", limiter.keys[0])
	}
}

func TestFeedbackService_Submit_StoreFailureFreesRateLimit(t *testing.T) {
	repo := &stubFeedbackRepo{err: errors.New("mongo down")}
	limiter := &stubLimiter{}
	svc := NewFeedbackService(repo, limiter, zerolog.Nop())
	in := ports.FeedbackInput{UserID: "u1", Category: "bug", Content: "Upload fails"}

	if _, err := svc.Submit(context.Background(), in); err == nil || !strings.Contains(err.Error(), "mongo down") {
		t.Fatalf("expected store error, got %v", err)
	}
	if len(limiter.released) != 1 || limiter.released[0] != "feedback:u1" {
		t.Fatalf("expected the slot to be released, got %v", limiter.released)
	}

	repo.err = nil
	if _, err := svc.Submit(context.Background(), in); err != nil {
		t.Fatalf("retry after a failed write must be allowed, got %v", err)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected 1 stored entry, got %d", len(repo.created))
	}
}

func TestFeedbackService_List(t *testing.T) {
	repo := &stubFeedbackRepo{}
	svc := NewFeedbackService(repo, &stubLimiter{}, zerolog.Nop())
	repo.created = []*domain.Feedback{
		{ID: "1", UserID: "u1"},
		{ID: "2", UserID: "u2"},
		{ID: "3", UserID: "u1"},
	}

	items, err := svc.List(context.Background(), "u1")
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(items) != 2 || items[0].ID != "3" {
		t.Fatalf("unexpected items: %+v", items)
	}
	if repo.limit != 20 {
		t.Fatalf("expected limit 20, got %d", repo.limit)
	}

	if _, err := svc.List(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty user id")
	}

	all, err := svc.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll returned error: %v", err)
	}
	if len(all) != 3 || all[0].ID != "3" || repo.limit != 100 {
		t.Fatalf("unexpected admin listing: %d items, limit %d", len(all), repo.limit)
	}
}
