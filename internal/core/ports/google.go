package ports

import (
	"context"

	"github.com/aistone/edge-backend/internal/core/oauthconfig"
)

// GoogleIdentity is what Google asserts about the signed-in account.
type GoogleIdentity struct {
	ID            string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
	Locale        string
}

// IDTokenVerifier validates a Google ID token issued for audience.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken, audience string) (*GoogleIdentity, error)
}

// OAuthExchanger trades an authorization code for the account's identity.
// Provider rejections are returned as *domain.OAuthError.
type OAuthExchanger interface {
	Exchange(ctx context.Context, cfg oauthconfig.Google, code string) (*GoogleIdentity, error)
}
