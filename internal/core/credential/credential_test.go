package credential

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aistone/edge-backend/internal/core/domain"
)

var testPolicy = ResolveScheme("120000", "64", "sha512")

func TestHashPBKDF2_Deterministic(t *testing.T) {
	const salt = "a1b2c3d4e5f60718293a4b5c6d7e8f90"

	a, err := HashPBKDF2("S3cure!", salt, 120000, 64, "sha512")
	require.NoError(t, err)
	b, err := HashPBKDF2("S3cure!", salt, 120000, 64, "sha512")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 128)
}

func TestHashPBKDF2_EveryParameterMatters(t *testing.T) {
	base, err := HashPBKDF2("pw", "salt", 1000, 32, "sha256")
	require.NoError(t, err)

	variants := map[string]func() (string, error){
		"password":   func() (string, error) { return HashPBKDF2("pw2", "salt", 1000, 32, "sha256") },
		"salt":       func() (string, error) { return HashPBKDF2("pw", "salt2", 1000, 32, "sha256") },
		"iterations": func() (string, error) { return HashPBKDF2("pw", "salt", 1001, 32, "sha256") },
		"keylength":  func() (string, error) { return HashPBKDF2("pw", "salt", 1000, 33, "sha256") },
		"digest":     func() (string, error) { return HashPBKDF2("pw", "salt", 1000, 32, "sha512") },
	}
	for name, fn := range variants {
		t.Run(name, func(t *testing.T) {
			got, err := fn()
			require.NoError(t, err)
			assert.NotEqual(t, base, got)
		})
	}
}

func TestHashPBKDF2_RejectsBadParameters(t *testing.T) {
	_, err := HashPBKDF2("pw", "salt", 1000, 32, "md5")
	assert.Error(t, err)
	_, err = HashPBKDF2("pw", "salt", 0, 32, "sha256")
	assert.Error(t, err)
	_, err = HashPBKDF2("pw", "salt", 1000, 0, "sha256")
	assert.Error(t, err)
}

func TestHashLegacy_KnownVector(t *testing.T) {
	// sha256("abc")
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", HashLegacy("a", "bc"))
}

func TestResolve_FallsBackSilently(t *testing.T) {
	assert.Equal(t, DefaultIterations, ResolveIterations(""))
	assert.Equal(t, DefaultIterations, ResolveIterations("lots"))
	assert.Equal(t, DefaultIterations, ResolveIterations("-5"))
	assert.Equal(t, 150000, ResolveIterations(" 150000 "))
	assert.Equal(t, DefaultKeyLength, ResolveKeyLength("abc"))
	assert.Equal(t, 32, ResolveKeyLength("32"))
	assert.Equal(t, DefaultDigest, ResolveDigest("md5"))
	assert.Equal(t, "sha256", ResolveDigest("SHA256"))
}

func TestGenerateSalt(t *testing.T) {
	a, err := GenerateSalt()
	require.NoError(t, err)
	b, err := GenerateSalt()
	require.NoError(t, err)

	assert.Len(t, a, SaltBytes*2)
	assert.NotEqual(t, a, b)
}

func pbkdf2User(t *testing.T, password, salt string, scheme domain.PBKDF2Scheme) *domain.User {
	t.Helper()
	hash, err := HashPBKDF2(password, salt, scheme.Iterations, scheme.KeyLength, scheme.Digest)
	require.NoError(t, err)
	u := &domain.User{Salt: salt}
	u.SetPBKDF2(hash, scheme, time.Now())
	return u
}

func TestVerify_PBKDF2UserWithoutUpgrade(t *testing.T) {
	user := pbkdf2User(t, "pbkdf2-pass", "11112222333344445555666677778888", testPolicy)

	got := Verify("pbkdf2-pass", user, testPolicy)
	assert.Equal(t, Verification{Valid: true}, got)

	assert.Equal(t, Verification{}, Verify("wrong", user, testPolicy))
}

func TestVerify_UsesStoredParameters(t *testing.T) {
	old := domain.PBKDF2Scheme{Iterations: 1000, KeyLength: 32, Digest: "sha256"}
	user := pbkdf2User(t, "pw", "salt", old)

	got := Verify("pw", user, testPolicy)
	assert.True(t, got.Valid)
	assert.False(t, got.NeedsUpgrade)
	assert.True(t, got.MetadataNeedsUpdate)
}

func TestVerify_LegacyFlagsUpgrade(t *testing.T) {
	const salt = "0f0e0d0c0b0a09080706050403020100"
	user := &domain.User{Salt: salt, PasswordHash: HashLegacy("legacy-pass", salt)}

	assert.Equal(t, Verification{Valid: true, NeedsUpgrade: true}, Verify("legacy-pass", user, testPolicy))
	assert.Equal(t, Verification{}, Verify("nope", user, testPolicy))

	user.PasswordAlgorithm = domain.AlgorithmLegacy
	assert.Equal(t, Verification{Valid: true, NeedsUpgrade: true}, Verify("legacy-pass", user, testPolicy))
}

func TestVerify_MalformedRecords(t *testing.T) {
	hash := HashLegacy("pw", "salt")

	assert.False(t, Verify("pw", nil, testPolicy).Valid)
	assert.False(t, Verify("pw", &domain.User{PasswordHash: hash}, testPolicy).Valid, "missing salt")
	assert.False(t, Verify("pw", &domain.User{Salt: "salt"}, testPolicy).Valid, "missing hash")
	assert.False(t, Verify("pw", &domain.User{Salt: "salt", PasswordHash: hash, PasswordAlgorithm: "scrypt"}, testPolicy).Valid)

	broken := &domain.User{Salt: "salt", PasswordHash: hash, PasswordAlgorithm: domain.AlgorithmPBKDF2}
	assert.False(t, Verify("pw", broken, testPolicy).Valid, "pbkdf2 without parameters")
}

func TestUpgrade_MigratesLegacyUser(t *testing.T) {
	const salt = "abcdefabcdefabcdefabcdefabcdefab"
	legacy := &domain.User{ID: "u1", Salt: salt, PasswordHash: HashLegacy("UpgradeMe!", salt)}
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	upgraded, err := Upgrade(legacy, "UpgradeMe!", testPolicy, now)
	require.NoError(t, err)

	assert.Equal(t, domain.AlgorithmPBKDF2, upgraded.PasswordAlgorithm)
	assert.Equal(t, salt, upgraded.Salt)
	assert.Equal(t, testPolicy.Iterations, upgraded.PasswordIterations)
	assert.Equal(t, testPolicy.KeyLength, upgraded.PasswordKeyLength)
	assert.Equal(t, testPolicy.Digest, upgraded.PasswordDigest)
	require.NotNil(t, upgraded.PasswordUpdatedAt)
	assert.Equal(t, now, *upgraded.PasswordUpdatedAt)
	assert.Equal(t, domain.PasswordAlgorithm(""), legacy.PasswordAlgorithm, "original record untouched")

	again := Verify("UpgradeMe!", upgraded, testPolicy)
	assert.Equal(t, Verification{Valid: true}, again)
}
