// Package credential hashes and verifies user passwords.
//
// Two schemes exist: the legacy single SHA-256 round over password+salt, kept
// only to verify records created before PBKDF2, and PBKDF2 with parameters that
// are stored next to every hash. The functions here are pure; parameter
// resolution from configuration happens once at the service boundary.
package credential

import (
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// SaltBytes is the entropy of a freshly generated salt.
const SaltBytes = 16

var digests = map[string]func() hash.Hash{
	"sha1":   sha1.New,
	"sha256": sha256.New,
	"sha384": sha512.New384,
	"sha512": sha512.New,
}

// SupportedDigest reports whether name is a digest HashPBKDF2 accepts.
func SupportedDigest(name string) bool {
	_, ok := digests[strings.ToLower(name)]
	return ok
}

// HashLegacy returns the lowercase hex SHA-256 of password followed by salt.
func HashLegacy(password, salt string) string {
	sum := sha256.Sum256([]byte(password + salt))
	return hex.EncodeToString(sum[:])
}

// HashPBKDF2 derives keyLength bytes from password and returns them as lowercase
// hex. The salt is used as its UTF-8 string form, not decoded from hex, which
// keeps hashes interchangeable with records written by the previous backend.
func HashPBKDF2(password, salt string, iterations, keyLength int, digest string) (string, error) {
	newHash, ok := digests[strings.ToLower(digest)]
	if !ok {
		return "", fmt.Errorf("pbkdf2: unsupported digest %q", digest)
	}
	if iterations <= 0 || keyLength <= 0 {
		return "", fmt.Errorf("pbkdf2: invalid parameters iterations=%d keylen=%d", iterations, keyLength)
	}
	key := pbkdf2.Key([]byte(password), []byte(salt), iterations, keyLength, newHash)
	return hex.EncodeToString(key), nil
}

// GenerateSalt returns SaltBytes random bytes hex encoded.
func GenerateSalt() (string, error) {
	b := make([]byte, SaltBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Equal compares two hex digests in constant time. Case is ignored so stored
// uppercase hex still matches.
func Equal(computed, stored string) bool {
	return subtle.ConstantTimeCompare([]byte(computed), []byte(strings.ToLower(stored))) == 1
}
