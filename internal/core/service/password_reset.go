package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aistone/edge-backend/internal/core/credential"
	"github.com/aistone/edge-backend/internal/core/domain"
	"github.com/aistone/edge-backend/internal/core/ports"
)

const resetTokenBytes = 32

// ForgotPassword issues a reset ticket for a known email. Unknown emails get
// an empty ResetRequest and no error, so callers cannot probe for accounts.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (*ports.ResetRequest, error) {
	if strings.TrimSpace(email) == "" {
		return nil, domain.NewValidationError("email is required")
	}
	if !emailPattern.MatchString(domain.NormalizeEmail(email)) {
		return nil, domain.NewValidationError("invalid email format")
	}

	user, err := s.findUser(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return &ports.ResetRequest{}, nil
		}
		return nil, fmt.Errorf("forgot password: %w", err)
	}

	tok, err := randomToken()
	if err != nil {
		return nil, fmt.Errorf("forgot password: %w", err)
	}
	ticket := &domain.ResetTicket{
		Token:     tok,
		Email:     user.Email,
		CreatedAt: s.now().UTC(),
	}
	if err := s.resets.Save(ctx, ticket, s.cfg.ResetTokenTTL); err != nil {
		return nil, fmt.Errorf("forgot password: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("password reset requested")
	return &ports.ResetRequest{URL: s.resetURL(tok)}, nil
}

// ResetPassword consumes a reset ticket and stores the new password under the
// current PBKDF2 policy. The ticket is claimed atomically before the user is
// written, so a failed write needs a new ticket but a ticket never works twice.
func (s *AuthService) ResetPassword(ctx context.Context, tok, newPassword string) error {
	if tok == "" || newPassword == "" {
		return domain.NewValidationError("token and new password are required")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	ticket, err := s.resets.Find(ctx, tok)
	if err != nil {
		if errors.Is(err, domain.ErrResetTokenInvalid) {
			return domain.ErrResetTokenInvalid
		}
		return fmt.Errorf("reset password: %w", err)
	}
	if ticket.Used {
		return domain.ErrResetTokenUsed
	}

	user, err := s.users.Get(ctx, ticket.Email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("reset password: %w", err)
	}

	// Google-only accounts have no salt yet.
	salt := user.Salt
	if salt == "" {
		if salt, err = credential.GenerateSalt(); err != nil {
			return fmt.Errorf("reset password: %w", err)
		}
	}
	hash, err := s.derive(newPassword, salt, s.policy)
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}

	now := s.now().UTC()
	if err := s.resets.MarkUsed(ctx, tok, now); err != nil {
		// A concurrent reset claimed the ticket first.
		if errors.Is(err, domain.ErrResetTokenUsed) || errors.Is(err, domain.ErrResetTokenInvalid) {
			return err
		}
		return fmt.Errorf("reset password: %w", err)
	}

	user.Salt = salt
	user.SetPBKDF2(hash, s.policy, now)
	if err := s.users.Put(ctx, user.Email, user); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("password reset completed")
	return nil
}

func (s *AuthService) resetURL(tok string) string {
	base := strings.TrimSuffix(strings.TrimSpace(s.cfg.FrontendURL), "/")
	return base + "/reset-password?token=" + url.QueryEscape(tok)
}

func randomToken() (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
