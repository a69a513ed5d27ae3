package domain

import "errors"

// Validation
var ErrValidation = errors.New("validation failed")

// Authentication
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrEmailNotVerified   = errors.New("google account email is not verified")
)

// Tokens
var (
	ErrMissingToken      = errors.New("missing authentication token")
	ErrInvalidToken      = errors.New("token is invalid or expired")
	ErrResetTokenInvalid = errors.New("reset link is invalid or expired")
	ErrResetTokenUsed    = errors.New("reset link has already been used")
)

// Configuration
var (
	ErrMissingSecret      = errors.New("token signing secret is not configured")
	ErrOAuthMisconfigured = errors.New("google oauth is not configured")
)

// Store and upstream
var (
	ErrUserExists    = errors.New("email is already registered")
	ErrUserNotFound  = errors.New("user not found")
	ErrOAuthExchange = errors.New("google authorization failed")
	ErrRateLimited   = errors.New("too many requests")
)

// ValidationError describes a rejected input before any hashing takes place.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Unwrap lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError builds a ValidationError with a user-facing message.
func NewValidationError(msg string) error {
	return &ValidationError{Message: msg}
}

// OAuthError carries the provider's error code alongside a friendly message.
type OAuthError struct {
	Code        string
	Description string
	Message     string
}

func (e *OAuthError) Error() string { return e.Message }

func (e *OAuthError) Unwrap() error { return ErrOAuthExchange }

// RateLimitError reports how many minutes remain until the next allowed attempt.
type RateLimitError struct {
	RemainingMinutes int
}

func (e *RateLimitError) Error() string { return ErrRateLimited.Error() }

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }
