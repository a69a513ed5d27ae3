package domain

import (
	"strings"
	"time"
)

// AuthProvider records how an account was first created.
const (
	ProviderEmail  = "email"
	ProviderGoogle = "google"
)

// PasswordAlgorithm is the persisted tag of the scheme a password hash was produced with.
type PasswordAlgorithm string

const (
	AlgorithmLegacy PasswordAlgorithm = "legacy"
	AlgorithmPBKDF2 PasswordAlgorithm = "pbkdf2"
)

// PasswordScheme is the closed set of hashing schemes a stored credential can use.
// The only implementations are LegacyScheme and PBKDF2Scheme.
type PasswordScheme interface {
	Algorithm() PasswordAlgorithm
	isPasswordScheme()
}

// LegacyScheme is a single SHA-256 round over password+salt.
type LegacyScheme struct{}

func (LegacyScheme) Algorithm() PasswordAlgorithm { return AlgorithmLegacy }
func (LegacyScheme) isPasswordScheme()            {}

// PBKDF2Scheme carries the exact parameters a hash was derived with.
type PBKDF2Scheme struct {
	Iterations int
	KeyLength  int
	Digest     string
}

func (PBKDF2Scheme) Algorithm() PasswordAlgorithm { return AlgorithmPBKDF2 }
func (PBKDF2Scheme) isPasswordScheme()            {}

// GoogleProfile is the subset of the Google account kept on the user record.
type GoogleProfile struct {
	ID          string    `json:"id,omitempty"`
	Name        string    `json:"name,omitempty"`
	Picture     string    `json:"picture,omitempty"`
	Locale      string    `json:"locale,omitempty"`
	LastUpdated time.Time `json:"last_updated"`
}

// User is the persisted account record, keyed by normalized email.
type User struct {
	ID                 string            `json:"id"`
	Username           string            `json:"username"`
	Email              string            `json:"email"`
	PasswordHash       string            `json:"-"`
	Salt               string            `json:"-"`
	PasswordAlgorithm  PasswordAlgorithm `json:"-"`
	PasswordIterations int               `json:"-"`
	PasswordKeyLength  int               `json:"-"`
	PasswordDigest     string            `json:"-"`
	PasswordUpdatedAt  *time.Time        `json:"-"`
	AuthProvider       string            `json:"auth_provider,omitempty"`
	Google             *GoogleProfile    `json:"-"`
	CreatedAt          time.Time         `json:"created_at"`
	LastLoginAt        *time.Time        `json:"last_login_at"`
	IsActive           bool              `json:"is_active"`
}

// PasswordScheme returns the scheme the stored hash must be verified with.
// A missing algorithm means the record predates PBKDF2 and is treated as legacy.
// An unrecognised algorithm returns nil.
func (u *User) PasswordScheme() PasswordScheme {
	switch u.PasswordAlgorithm {
	case "", AlgorithmLegacy:
		return LegacyScheme{}
	case AlgorithmPBKDF2:
		return PBKDF2Scheme{
			Iterations: u.PasswordIterations,
			KeyLength:  u.PasswordKeyLength,
			Digest:     u.PasswordDigest,
		}
	default:
		return nil
	}
}

// SetPBKDF2 records a freshly derived hash together with its parameters.
func (u *User) SetPBKDF2(hash string, scheme PBKDF2Scheme, at time.Time) {
	u.PasswordHash = hash
	u.PasswordAlgorithm = AlgorithmPBKDF2
	u.PasswordIterations = scheme.Iterations
	u.PasswordKeyLength = scheme.KeyLength
	u.PasswordDigest = scheme.Digest
	u.PasswordUpdatedAt = &at
}

// Avatar returns the Google picture when one is known.
func (u *User) Avatar() string {
	if u.Google == nil {
		return ""
	}
	return u.Google.Picture
}

// Provider returns the auth provider, defaulting to email for old records.
func (u *User) Provider() string {
	if u.AuthProvider == "" {
		return ProviderEmail
	}
	return u.AuthProvider
}

// NormalizeEmail lowercases and trims an email so it can be used as a store key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
