package ports

import (
	"context"

	"github.com/aistone/edge-backend/internal/core/domain"
	"github.com/aistone/edge-backend/internal/core/oauthconfig"
)

// RegisterInput is the payload of a new email/password account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// AuthResult is returned by every successful sign-in style operation.
// Token is empty when ValidateToken did not rotate the presented token.
type AuthResult struct {
	Token string
	User  *domain.User
}

// ResetRequest is the outcome of a forgot-password call. URL is empty when
// the email is unknown, which the caller must not reveal.
type ResetRequest struct {
	URL string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	ValidateToken(ctx context.Context, token string) (*AuthResult, error)
	ForgotPassword(ctx context.Context, email string) (*ResetRequest, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
	GoogleLogin(ctx context.Context, idToken string) (*AuthResult, error)
	GoogleOAuth(ctx context.Context, code string) (*AuthResult, error)
	GoogleConfig() oauthconfig.Google
}
