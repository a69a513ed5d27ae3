package credential

import (
	"strconv"
	"strings"

	"github.com/aistone/edge-backend/internal/core/domain"
)

// Defaults used when configuration is absent or unusable.
//
// 120000 rounds of SHA-512 cost roughly 60-120ms per derivation on a current
// x86-64 core. Raising the iteration count buys brute-force resistance at the
// price of login latency.
const (
	DefaultIterations = 120000
	DefaultKeyLength  = 64
	DefaultDigest     = "sha512"
)

// ResolveIterations parses a configured iteration count, falling back to the default.
func ResolveIterations(raw string) int {
	return positiveOr(raw, DefaultIterations)
}

// ResolveKeyLength parses a configured key length in bytes, falling back to the default.
func ResolveKeyLength(raw string) int {
	return positiveOr(raw, DefaultKeyLength)
}

// ResolveDigest normalizes a configured digest name, falling back to the default.
func ResolveDigest(raw string) string {
	d := strings.ToLower(strings.TrimSpace(raw))
	if !SupportedDigest(d) {
		return DefaultDigest
	}
	return d
}

// ResolveScheme builds the PBKDF2 parameters new hashes should use.
func ResolveScheme(iterations, keyLength, digest string) domain.PBKDF2Scheme {
	return domain.PBKDF2Scheme{
		Iterations: ResolveIterations(iterations),
		KeyLength:  ResolveKeyLength(keyLength),
		Digest:     ResolveDigest(digest),
	}
}

func positiveOr(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
