package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aistone/edge-backend/internal/core/credential"
	"github.com/aistone/edge-backend/internal/core/domain"
	"github.com/aistone/edge-backend/internal/core/oauthconfig"
	"github.com/aistone/edge-backend/internal/core/ports"
	"github.com/aistone/edge-backend/internal/core/token"
	"github.com/aistone/edge-backend/internal/pkg/metrics"
)

const minPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// AuthConfig is the configuration the auth service resolves once at construction.
type AuthConfig struct {
	TokenSecret       string
	TokenTTL          time.Duration
	AllowLegacyTokens bool

	// Raw PBKDF2 overrides; unusable values fall back to the defaults.
	PBKDF2Iterations string
	PBKDF2KeyLength  string
	PBKDF2Digest     string

	Google        oauthconfig.Env
	FrontendURL   string
	ResetTokenTTL time.Duration
}

// AuthDeps are the external collaborators of the auth service.
type AuthDeps struct {
	Users    ports.UserStore
	Resets   ports.ResetTokenStore
	IDTokens ports.IDTokenVerifier
	OAuth    ports.OAuthExchanger
}

// dummySalt is only ever used for logins on unknown emails.
const dummySalt = "edge-login-miss"

// AuthService implements registration, login, token validation, password
// reset and Google sign-in.
type AuthService struct {
	users    ports.UserStore
	resets   ports.ResetTokenStore
	idTokens ports.IDTokenVerifier
	oauth    ports.OAuthExchanger

	tokens *token.Manager
	policy domain.PBKDF2Scheme
	cfg    AuthConfig
	log    zerolog.Logger
	now    func() time.Time
}

func NewAuthService(deps AuthDeps, cfg AuthConfig, log zerolog.Logger) *AuthService {
	if cfg.ResetTokenTTL <= 0 {
		cfg.ResetTokenTTL = 24 * time.Hour
	}
	return &AuthService{
		users:    deps.Users,
		resets:   deps.Resets,
		idTokens: deps.IDTokens,
		oauth:    deps.OAuth,
		tokens:   token.NewManager(cfg.TokenSecret, cfg.TokenTTL, cfg.AllowLegacyTokens),
		policy:   credential.ResolveScheme(cfg.PBKDF2Iterations, cfg.PBKDF2KeyLength, cfg.PBKDF2Digest),
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// Register creates an email/password account hashed with the current PBKDF2
// policy. Uniqueness relies on the store's conditional write.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (res *ports.AuthResult, err error) {
	defer func() { metrics.RegistrationsTotal.WithLabelValues(outcome(err)).Inc() }()

	username := strings.TrimSpace(in.Username)
	email := domain.NormalizeEmail(in.Email)
	if username == "" || email == "" || in.Password == "" {
		return nil, domain.NewValidationError("username, email and password are required")
	}
	if !emailPattern.MatchString(email) {
		return nil, domain.NewValidationError("invalid email format")
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}

	salt, err := credential.GenerateSalt()
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	hash, err := s.derive(in.Password, salt, s.policy)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		Salt:         salt,
		AuthProvider: domain.ProviderEmail,
		CreatedAt:    now,
		IsActive:     true,
	}
	user.SetPBKDF2(hash, s.policy, now)

	if err := s.users.PutIfAbsent(ctx, email, user); err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	tok, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Str("email", maskEmail(email)).Msg("user registered")
	return &ports.AuthResult{Token: tok, User: user}, nil
}

// Login verifies credentials, upgrades legacy hashes in place and records the
// login time. Unknown emails and wrong passwords yield the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (res *ports.AuthResult, err error) {
	defer func() { metrics.LoginsTotal.WithLabelValues("password", outcome(err)).Inc() }()

	if strings.TrimSpace(email) == "" || password == "" {
		return nil, domain.NewValidationError("email and password are required")
	}

	user, err := s.findUser(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Pay for a derivation anyway so a miss times like a wrong password.
			_, _ = s.derive(password, dummySalt, s.policy)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	v := s.verify(password, user)
	if !v.Valid {
		return nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, domain.ErrAccountDisabled
	}

	now := s.now().UTC()
	if v.NeedsUpgrade {
		user = s.upgrade(user, password, now)
	}
	if v.MetadataNeedsUpdate {
		s.log.Info().
			Str("user_id", user.ID).
			Int("stored_iterations", user.PasswordIterations).
			Int("policy_iterations", s.policy.Iterations).
			Msg("pbkdf2 parameters differ from current policy")
	}

	user.LastLoginAt = &now
	if err := s.users.Put(ctx, user.Email, user); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	tok, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	return &ports.AuthResult{Token: tok, User: user}, nil
}

// ValidateToken resolves a presented token to an active user. A token accepted
// only by the legacy scheme is replaced: the result then carries a new token.
func (s *AuthService) ValidateToken(ctx context.Context, tok string) (res *ports.AuthResult, err error) {
	defer func() {
		result := outcome(err)
		if err == nil && res != nil && res.Token != "" {
			result = metrics.ResultLegacy
		}
		metrics.TokenValidationsTotal.WithLabelValues(result).Inc()
	}()

	if strings.TrimSpace(tok) == "" {
		return nil, domain.ErrMissingToken
	}

	claims, legacy, err := s.tokens.Verify(tok)
	if err != nil {
		if errors.Is(err, token.ErrMissingSecret) {
			return nil, domain.ErrMissingSecret
		}
		s.log.Debug().Err(err).Msg("token rejected")
		return nil, domain.ErrInvalidToken
	}
	if claims.Email() == "" {
		return nil, domain.ErrInvalidToken
	}
	if legacy {
		s.log.Warn().Str("user_id", claims.UserID()).Msg("legacy token accepted; disable JWT_ALLOW_LEGACY once clients have rotated")
	}

	user, err := s.findUser(ctx, claims.Email())
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("validate token: %w", err)
	}
	if id := claims.UserID(); id != "" && id != user.ID {
		return nil, domain.ErrInvalidToken
	}
	if !user.IsActive {
		return nil, domain.ErrAccountDisabled
	}

	res = &ports.AuthResult{User: user}
	if legacy {
		rotated, err := s.issue(user)
		if err != nil {
			s.log.Warn().Err(err).Str("user_id", user.ID).Msg("token rotation failed")
		} else {
			res.Token = rotated
		}
	}
	return res, nil
}

// GoogleConfig resolves the Google OAuth configuration afresh.
func (s *AuthService) GoogleConfig() oauthconfig.Google {
	return oauthconfig.Resolve(s.cfg.Google)
}

// findUser looks the user up by normalized email. Records written by older
// clients may sit under the raw-case key; those are copied to the normalized key.
func (s *AuthService) findUser(ctx context.Context, rawEmail string) (*domain.User, error) {
	raw := strings.TrimSpace(rawEmail)
	key := domain.NormalizeEmail(raw)

	user, err := s.users.Get(ctx, key)
	if err == nil || !errors.Is(err, domain.ErrUserNotFound) || raw == key {
		return user, err
	}

	user, err = s.users.Get(ctx, raw)
	if err != nil {
		return nil, err
	}
	user.Email = key
	if err := s.users.Put(ctx, key, user); err != nil {
		return nil, fmt.Errorf("migrate user key: %w", err)
	}
	s.log.Info().Str("user_id", user.ID).Msg("user record migrated to normalized email key")
	return user, nil
}

func (s *AuthService) verify(password string, user *domain.User) credential.Verification {
	if _, ok := user.PasswordScheme().(domain.PBKDF2Scheme); ok {
		defer observeSince(time.Now())
	}
	return credential.Verify(password, user, s.policy)
}

func (s *AuthService) derive(password, salt string, scheme domain.PBKDF2Scheme) (string, error) {
	defer observeSince(time.Now())
	return credential.HashPBKDF2(password, salt, scheme.Iterations, scheme.KeyLength, scheme.Digest)
}

// upgrade returns the rehashed user, or the original one if rehashing failed;
// a failed upgrade never blocks a login that already verified.
func (s *AuthService) upgrade(user *domain.User, password string, now time.Time) *domain.User {
	start := time.Now()
	upgraded, err := credential.Upgrade(user, password, s.policy, now)
	observeSince(start)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("password upgrade failed")
		return user
	}
	metrics.PasswordUpgradesTotal.Inc()
	s.log.Info().Str("user_id", user.ID).Int("iterations", s.policy.Iterations).Msg("legacy password hash upgraded to pbkdf2")
	return upgraded
}

func (s *AuthService) issue(user *domain.User) (string, error) {
	tok, err := s.tokens.IssueFor(user.ID, user.Email)
	if err != nil {
		if errors.Is(err, token.ErrMissingSecret) {
			return "", domain.ErrMissingSecret
		}
		return "", fmt.Errorf("issue token: %w", err)
	}
	return tok, nil
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return domain.NewValidationError(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	return nil
}

func observeSince(start time.Time) {
	metrics.PBKDF2Duration.Observe(time.Since(start).Seconds())
}

// outcome maps an operation error to a metrics result label.
func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrAccountDisabled),
		errors.Is(err, domain.ErrUserExists),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrMissingToken),
		errors.Is(err, domain.ErrEmailNotVerified),
		errors.Is(err, domain.ErrOAuthExchange),
		errors.Is(err, domain.ErrResetTokenInvalid),
		errors.Is(err, domain.ErrResetTokenUsed),
		errors.Is(err, domain.ErrRateLimited):
		return metrics.ResultRejected
	default:
		return metrics.ResultError
	}
}

// maskEmail keeps the first character of the local part and the domain.
func maskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
