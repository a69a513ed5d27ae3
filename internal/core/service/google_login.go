package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/aistone/edge-backend/internal/core/domain"
	"github.com/aistone/edge-backend/internal/core/oauthconfig"
	"github.com/aistone/edge-backend/internal/core/ports"
	"github.com/aistone/edge-backend/internal/pkg/metrics"
)

// GoogleLogin signs a user in with a Google ID token obtained by the frontend.
func (s *AuthService) GoogleLogin(ctx context.Context, idToken string) (res *ports.AuthResult, err error) {
	defer func() { metrics.LoginsTotal.WithLabelValues("google_id_token", outcome(err)).Inc() }()

	if strings.TrimSpace(idToken) == "" {
		return nil, domain.NewValidationError("missing google id token")
	}

	cfg := s.GoogleConfig()
	if cfg.ClientID == "" {
		s.logOAuthDiagnostics(cfg)
		return nil, domain.ErrOAuthMisconfigured
	}

	identity, err := s.idTokens.VerifyIDToken(ctx, idToken, cfg.ClientID)
	if err != nil {
		s.log.Debug().Err(err).Msg("google id token rejected")
		return nil, &domain.OAuthError{Code: "invalid_id_token", Message: "google sign-in verification failed"}
	}
	return s.signInGoogle(ctx, identity)
}

// GoogleOAuth completes the authorization-code flow started by the frontend.
func (s *AuthService) GoogleOAuth(ctx context.Context, code string) (res *ports.AuthResult, err error) {
	defer func() { metrics.LoginsTotal.WithLabelValues("google_oauth", outcome(err)).Inc() }()

	if strings.TrimSpace(code) == "" {
		return nil, domain.NewValidationError("missing authorization code")
	}

	cfg := s.GoogleConfig()
	s.logOAuthDiagnostics(cfg)
	if !cfg.OK() {
		return nil, domain.ErrOAuthMisconfigured
	}

	identity, err := s.oauth.Exchange(ctx, cfg, code)
	if err != nil {
		var oe *domain.OAuthError
		if errors.As(err, &oe) {
			s.log.Warn().Str("google_error", oe.Code).Str("description", oe.Description).Msg("google code exchange rejected")
			return nil, oe
		}
		return nil, fmt.Errorf("google oauth: %w", err)
	}
	return s.signInGoogle(ctx, identity)
}

// signInGoogle finds or creates the account for a verified Google identity.
// Disabled accounts stay disabled.
func (s *AuthService) signInGoogle(ctx context.Context, identity *ports.GoogleIdentity) (*ports.AuthResult, error) {
	if identity == nil || identity.Email == "" || !identity.EmailVerified {
		return nil, domain.ErrEmailNotVerified
	}

	email := domain.NormalizeEmail(identity.Email)
	now := s.now().UTC()
	profile := &domain.GoogleProfile{
		ID:          identity.ID,
		Name:        identity.Name,
		Picture:     identity.Picture,
		Locale:      identity.Locale,
		LastUpdated: now,
	}

	// Two attempts cover a concurrent first sign-in creating the same record.
	for attempt := 0; attempt < 2; attempt++ {
		user, err := s.users.Get(ctx, email)
		switch {
		case err == nil:
			if !user.IsActive {
				return nil, domain.ErrAccountDisabled
			}
			user.LastLoginAt = &now
			user.Google = profile
			if user.AuthProvider == "" {
				user.AuthProvider = domain.ProviderGoogle
			}
			if err := s.users.Put(ctx, email, user); err != nil {
				return nil, fmt.Errorf("google sign-in: %w", err)
			}
			return s.googleResult(user)

		case errors.Is(err, domain.ErrUserNotFound):
			user = &domain.User{
				ID:           uuid.NewString(),
				Username:     googleUsername(identity.Name, email),
				Email:        email,
				AuthProvider: domain.ProviderGoogle,
				Google:       profile,
				CreatedAt:    now,
				LastLoginAt:  &now,
				IsActive:     true,
			}
			err := s.users.PutIfAbsent(ctx, email, user)
			if errors.Is(err, domain.ErrUserExists) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("google sign-in: %w", err)
			}
			s.log.Info().Str("user_id", user.ID).Str("email", maskEmail(email)).Msg("user created from google account")
			return s.googleResult(user)

		default:
			return nil, fmt.Errorf("google sign-in: %w", err)
		}
	}
	return nil, fmt.Errorf("google sign-in: %w", domain.ErrUserExists)
}

func (s *AuthService) googleResult(user *domain.User) (*ports.AuthResult, error) {
	tok, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	return &ports.AuthResult{Token: tok, User: user}, nil
}

func (s *AuthService) logOAuthDiagnostics(cfg oauthconfig.Google) {
	for _, w := range cfg.Warnings {
		s.log.Warn().Str("component", "google_oauth").Msg(w)
	}
	for _, e := range cfg.Errors {
		s.log.Error().Str("component", "google_oauth").Msg(e)
	}
}

func googleUsername(name, email string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
