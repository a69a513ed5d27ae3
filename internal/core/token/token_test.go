package token

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueVerify_RoundTrip(t *testing.T) {
	payload := map[string]any{
		"userId": "u-1",
		"email":  "a@b.com",
		"roles":  []any{"reader"},
		"nested": map[string]any{"k": "v"},
	}

	tok, err := Issue(payload, "secret", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(tok, "."))

	claims, err := Verify(tok, "secret")
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID())
	assert.Equal(t, "a@b.com", claims.Email())
	assert.Equal(t, []any{"reader"}, claims["roles"])
	assert.Equal(t, map[string]any{"k": "v"}, claims["nested"])

	iat, ok := claims.IssuedAt()
	require.True(t, ok)
	exp, ok := claims.ExpiresAt()
	require.True(t, ok)
	assert.Equal(t, int64(3600), exp-iat)
}

func TestIssue_RequiresSecret(t *testing.T) {
	_, err := Issue(map[string]any{"userId": "x"}, "", time.Hour)
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestVerify_Rejections(t *testing.T) {
	tok, err := Issue(map[string]any{"userId": "u"}, "secret", time.Hour)
	require.NoError(t, err)
	expired, err := Issue(map[string]any{"userId": "u"}, "secret", -2*time.Second)
	require.NoError(t, err)

	cases := []struct {
		name  string
		token string
		want  error
	}{
		{"two parts", "a.b", ErrInvalidFormat},
		{"four parts", tok + ".x", ErrInvalidFormat},
		{"empty", "", ErrInvalidFormat},
		{"garbage", "not.a.token", ErrInvalidFormat},
		{"tampered claims", tamper(t, tok), ErrInvalidSignature},
		{"expired", expired, ErrExpired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			claims, err := Verify(tc.token, "secret")
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	_, err = Verify(tok, "other-secret")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func tamper(t *testing.T, tok string) string {
	t.Helper()
	parts := strings.Split(tok, ".")
	body, err := json.Marshal(map[string]any{"userId": "admin", "exp": time.Now().Add(time.Hour).Unix()})
	require.NoError(t, err)
	parts[1] = base64.RawURLEncoding.EncodeToString(body)
	return strings.Join(parts, ".")
}

func pinClock(t *testing.T, at time.Time) {
	t.Helper()
	prev := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = prev })
}

func TestVerify_ExpiryBoundary(t *testing.T) {
	issued := time.Unix(1_700_000_000, 0)
	pinClock(t, issued)
	tok, err := Issue(map[string]any{"userId": "u"}, "secret", 0)
	require.NoError(t, err)

	// exp == now, late in the same second.
	pinClock(t, issued.Add(900*time.Millisecond))
	_, err = Verify(tok, "secret")
	assert.NoError(t, err)

	pinClock(t, issued.Add(time.Second))
	_, err = Verify(tok, "secret")
	assert.ErrorIs(t, err, ErrExpired)

	legacy := legacyToken(t, map[string]any{"userId": "old", "exp": issued.Unix()}, "secret")
	pinClock(t, issued)
	_, err = VerifyLegacy(legacy, "secret")
	assert.NoError(t, err)
	pinClock(t, issued.Add(time.Second))
	_, err = VerifyLegacy(legacy, "secret")
	assert.ErrorIs(t, err, ErrExpired)
}

func legacyToken(t *testing.T, claims map[string]any, secret string) string {
	t.Helper()
	header, err := json.Marshal(map[string]string{"alg": "HS256", "typ": "JWT"})
	require.NoError(t, err)
	body, err := json.Marshal(claims)
	require.NoError(t, err)
	h := base64.StdEncoding.EncodeToString(header)
	c := base64.StdEncoding.EncodeToString(body)
	return h + "." + c + "." + LegacySignature(h, c, secret)
}

func TestVerifyLegacy(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	tok := legacyToken(t, map[string]any{"userId": "old", "email": "o@b.com", "exp": exp}, "secret")

	claims, err := VerifyLegacy(tok, "secret")
	require.NoError(t, err)
	assert.Equal(t, "old", claims.UserID())

	_, err = VerifyLegacy(tok, "wrong")
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = VerifyLegacy("a.b", "secret")
	assert.ErrorIs(t, err, ErrInvalidFormat)

	stale := legacyToken(t, map[string]any{"userId": "old", "exp": time.Now().Add(-time.Minute).Unix()}, "secret")
	_, err = VerifyLegacy(stale, "secret")
	assert.ErrorIs(t, err, ErrExpired)

	noExp := legacyToken(t, map[string]any{"userId": "old"}, "secret")
	_, err = VerifyLegacy(noExp, "secret")
	assert.NoError(t, err)
}

func TestManager_Verify(t *testing.T) {
	legacy := legacyToken(t, map[string]any{"userId": "old", "email": "o@b.com"}, "secret")

	m := NewManager("secret", time.Hour, true)
	tok, err := m.IssueFor("u-1", "a@b.com")
	require.NoError(t, err)

	claims, isLegacy, err := m.Verify(tok)
	require.NoError(t, err)
	assert.False(t, isLegacy)
	assert.Equal(t, "a@b.com", claims.Email())

	claims, isLegacy, err = m.Verify(legacy)
	require.NoError(t, err)
	assert.True(t, isLegacy)
	assert.Equal(t, "old", claims.UserID())

	strict := NewManager("secret", time.Hour, false)
	_, _, err = strict.Verify(legacy)
	assert.Error(t, err)

	_, _, err = NewManager("", time.Hour, true).Verify(tok)
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestManager_ExpiredIsNotRescued(t *testing.T) {
	expired, err := Issue(map[string]any{"userId": "u"}, "secret", -2*time.Second)
	require.NoError(t, err)

	_, _, err = NewManager("secret", time.Hour, true).Verify(expired)
	assert.ErrorIs(t, err, ErrExpired)
}
