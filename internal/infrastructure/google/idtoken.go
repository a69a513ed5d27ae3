// Package google talks to Google's identity endpoints: ID token validation for
// the one-tap flow and the authorization-code exchange for the redirect flow.
package google

import (
	"context"
	"fmt"

	"google.golang.org/api/idtoken"

	"github.com/aistone/edge-backend/internal/core/ports"
)

type validateFunc func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// IDTokenVerifier checks Google-signed ID tokens against Google's published keys.
type IDTokenVerifier struct {
	validate validateFunc
}

func NewIDTokenVerifier() *IDTokenVerifier {
	return &IDTokenVerifier{validate: idtoken.Validate}
}

func (v *IDTokenVerifier) VerifyIDToken(ctx context.Context, token, audience string) (*ports.GoogleIdentity, error) {
	payload, err := v.validate(ctx, token, audience)
	if err != nil {
		return nil, fmt.Errorf("validate id token: %w", err)
	}
	if payload.Issuer != "accounts.google.com" && payload.Issuer != "https://accounts.google.com" {
		return nil, fmt.Errorf("validate id token: unexpected issuer %q", payload.Issuer)
	}
	return identityFromClaims(payload.Subject, payload.Claims), nil
}

func identityFromClaims(subject string, claims map[string]interface{}) *ports.GoogleIdentity {
	str := func(k string) string {
		s, _ := claims[k].(string)
		return s
	}
	id := &ports.GoogleIdentity{
		ID:      subject,
		Email:   str("email"),
		Name:    str("name"),
		Picture: str("picture"),
		Locale:  str("locale"),
	}
	// email_verified arrives as a bool, or as a string from some older issuers.
	switch v := claims["email_verified"].(type) {
	case bool:
		id.EmailVerified = v
	case string:
		id.EmailVerified = v == "true"
	}
	return id
}
