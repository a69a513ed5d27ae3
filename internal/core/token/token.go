// Package token issues and verifies the compact signed credentials handed to
// clients after login.
//
// New tokens are HS256 JWTs. Tokens minted by the previous backend used a
// plain SHA-256 over header.claims.secret; VerifyLegacy still accepts those so
// they can be rotated on first use.
package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidFormat    = errors.New("token: invalid format")
	ErrInvalidSignature = errors.New("token: signature mismatch")
	ErrExpired          = errors.New("token: expired")
	ErrMissingSecret    = errors.New("token: signing secret is empty")
)

// Claim names shared with clients.
const (
	ClaimUserID    = "userId"
	ClaimEmail     = "email"
	ClaimIssuedAt  = "iat"
	ClaimExpiresAt = "exp"
)

// Claims is the decoded payload of a verified token.
type Claims map[string]any

// UserID returns the userId claim or "".
func (c Claims) UserID() string {
	s, _ := c[ClaimUserID].(string)
	return s
}

// Email returns the email claim or "".
func (c Claims) Email() string {
	s, _ := c[ClaimEmail].(string)
	return s
}

// ExpiresAt returns the exp claim in unix seconds.
func (c Claims) ExpiresAt() (int64, bool) {
	return numeric(c[ClaimExpiresAt])
}

// IssuedAt returns the iat claim in unix seconds.
func (c Claims) IssuedAt() (int64, bool) {
	return numeric(c[ClaimIssuedAt])
}

// now is the clock behind iat/exp; tests pin it.
var now = time.Now

// expiryLeeway keeps a token valid through the second named by exp: claims
// carry whole seconds and a token is rejected only once exp < now.
const expiryLeeway = time.Second

// Issue signs payload merged with iat/exp. iat and exp in payload are overwritten.
func Issue(payload map[string]any, secret string, expiresIn time.Duration) (string, error) {
	if secret == "" {
		return "", ErrMissingSecret
	}

	issuedAt := now().Unix()
	claims := make(jwt.MapClaims, len(payload)+2)
	for k, v := range payload {
		claims[k] = v
	}
	claims[ClaimIssuedAt] = issuedAt
	claims[ClaimExpiresAt] = issuedAt + int64(expiresIn/time.Second)

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// Verify checks structure, HS256 signature and expiry, in that order.
func Verify(tokenString, secret string) (Claims, error) {
	if strings.Count(tokenString, ".") != 2 {
		return nil, ErrInvalidFormat
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(expiryLeeway),
		jwt.WithTimeFunc(now),
	)
	if err != nil {
		return nil, classify(err)
	}
	return Claims(claims), nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrInvalidSignature
	default:
		return ErrInvalidFormat
	}
}

func numeric(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}
