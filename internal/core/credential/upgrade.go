package credential

import (
	"strings"
	"time"

	"github.com/aistone/edge-backend/internal/core/domain"
)

// Verification is the outcome of checking a password against a stored record.
type Verification struct {
	Valid bool
	// NeedsUpgrade is set for legacy hashes that matched.
	NeedsUpgrade bool
	// MetadataNeedsUpdate is advisory: the record's PBKDF2 parameters differ
	// from the current policy. Nothing is rehashed because of it.
	MetadataNeedsUpdate bool
}

// Verify checks password against user using the parameters stored on the
// record, never the current policy. Malformed records verify as invalid.
func Verify(password string, user *domain.User, current domain.PBKDF2Scheme) Verification {
	if user == nil || user.Salt == "" || user.PasswordHash == "" {
		return Verification{}
	}

	switch scheme := user.PasswordScheme().(type) {
	case domain.PBKDF2Scheme:
		computed, err := HashPBKDF2(password, user.Salt, scheme.Iterations, scheme.KeyLength, scheme.Digest)
		if err != nil || !Equal(computed, user.PasswordHash) {
			return Verification{}
		}
		return Verification{
			Valid:               true,
			MetadataNeedsUpdate: !sameScheme(scheme, current),
		}
	case domain.LegacyScheme:
		if !Equal(HashLegacy(password, user.Salt), user.PasswordHash) {
			return Verification{}
		}
		return Verification{Valid: true, NeedsUpgrade: true}
	default:
		return Verification{}
	}
}

// Upgrade returns a copy of user whose password is rehashed with the current
// PBKDF2 parameters. The salt is kept. Persisting the copy is the caller's job.
func Upgrade(user *domain.User, password string, current domain.PBKDF2Scheme, now time.Time) (*domain.User, error) {
	hash, err := HashPBKDF2(password, user.Salt, current.Iterations, current.KeyLength, current.Digest)
	if err != nil {
		return nil, err
	}
	upgraded := *user
	upgraded.SetPBKDF2(hash, current, now.UTC())
	return &upgraded, nil
}

func sameScheme(a, b domain.PBKDF2Scheme) bool {
	return a.Iterations == b.Iterations &&
		a.KeyLength == b.KeyLength &&
		strings.EqualFold(a.Digest, b.Digest)
}
