package token

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// LegacySignature computes the old signature part: the base64 encoding of the
// hex SHA-256 over header.claims.secret.
func LegacySignature(encodedHeader, encodedClaims, secret string) string {
	return base64.StdEncoding.EncodeToString([]byte(legacyDigest(encodedHeader, encodedClaims, secret)))
}

// VerifyLegacy accepts tokens signed with LegacySignature.
func VerifyLegacy(tokenString, secret string) (Claims, error) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return nil, ErrInvalidFormat
	}

	sig, ok := decodeBase64(parts[2])
	if !ok {
		return nil, ErrInvalidFormat
	}
	expected := legacyDigest(parts[0], parts[1], secret)
	if subtle.ConstantTimeCompare(sig, []byte(expected)) != 1 {
		return nil, ErrInvalidSignature
	}

	raw, ok := decodeBase64(parts[1])
	if !ok {
		return nil, ErrInvalidFormat
	}
	var claims Claims
	if err := json.Unmarshal(raw, &claims); err != nil || claims == nil {
		return nil, ErrInvalidFormat
	}

	if exp, ok := claims.ExpiresAt(); ok && exp < now().Unix() {
		return nil, ErrExpired
	}
	return claims, nil
}

func legacyDigest(encodedHeader, encodedClaims, secret string) string {
	sum := sha256.Sum256([]byte(encodedHeader + "." + encodedClaims + "." + secret))
	return hex.EncodeToString(sum[:])
}

// decodeBase64 accepts padded or unpadded, standard or URL alphabets; the old
// issuer was not consistent about either.
func decodeBase64(s string) ([]byte, bool) {
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		if b, err := enc.DecodeString(s); err == nil {
			return b, true
		}
	}
	return nil, false
}
