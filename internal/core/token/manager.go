package token

import (
	"errors"
	"time"
)

// Manager binds the signing secret, lifetime and legacy policy used by the
// auth service.
type Manager struct {
	secret      string
	ttl         time.Duration
	allowLegacy bool
}

// NewManager returns a Manager. A non-positive ttl defaults to seven days.
func NewManager(secret string, ttl time.Duration, allowLegacy bool) *Manager {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Manager{secret: secret, ttl: ttl, allowLegacy: allowLegacy}
}

// IssueFor mints a token carrying the user's identity.
func (m *Manager) IssueFor(userID, email string) (string, error) {
	return Issue(map[string]any{ClaimUserID: userID, ClaimEmail: email}, m.secret, m.ttl)
}

// Verify tries the standard scheme and, when allowed, the legacy one.
// legacy reports that the token should be replaced.
func (m *Manager) Verify(tokenString string) (claims Claims, legacy bool, err error) {
	if m.secret == "" {
		return nil, false, ErrMissingSecret
	}

	claims, err = Verify(tokenString, m.secret)
	if err == nil {
		return claims, false, nil
	}
	// An expired standard token must not be rescued by the legacy path.
	if !m.allowLegacy || errors.Is(err, ErrExpired) {
		return nil, false, err
	}

	claims, legacyErr := VerifyLegacy(tokenString, m.secret)
	if legacyErr != nil {
		return nil, false, err
	}
	return claims, true, nil
}
