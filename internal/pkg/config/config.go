package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Supported USER_STORE values.
const (
	UserStoreMongo = "mongo"
	UserStoreRedis = "redis"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// UserStore selects the backend holding user records: mongo or redis.
	UserStore string `env:"USER_STORE, default=mongo"`
	// AdminKey guards the operator routes. Empty disables them.
	AdminKey string `env:"ADMIN_KEY"`

	Auth   AuthConfig
	Google GoogleConfig
	Mongo  MongoConfig
	Redis  RedisConfig
}

// AuthConfig holds token and password hashing settings.
//
// The PBKDF2 values are kept as raw strings; the credential package falls
// back to its defaults (120000 iterations of SHA-512, 64-byte key) for any
// value it cannot use. At those defaults one derivation costs roughly
// 60-120 ms on a current x86-64 core, paid on every login and registration.
type AuthConfig struct {
	JWTSecret        string        `env:"JWT_SECRET"`
	AllowLegacyToken bool          `env:"JWT_ALLOW_LEGACY, default=true"`
	TokenTTL         time.Duration `env:"TOKEN_TTL,        default=168h"`
	ResetTokenTTL    time.Duration `env:"RESET_TOKEN_TTL,  default=24h"`

	PBKDF2Iterations string `env:"PBKDF2_ITERATIONS"`
	PBKDF2KeyLength  string `env:"PBKDF2_KEYLEN"`
	PBKDF2Digest     string `env:"PBKDF2_DIGEST"`
}

type GoogleConfig struct {
	ClientID        string `env:"GOOGLE_CLIENT_ID"`
	ClientSecret    string `env:"GOOGLE_CLIENT_SECRET"`
	ClientSecretNew string `env:"GOOGLE_CLIENT_SECRET_NEW"`
	RedirectURI     string `env:"GOOGLE_REDIRECT_URI"`
	FrontendURL     string `env:"FRONTEND_URL"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=edge_backend"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// IsProduction reports whether the service runs with ENV=production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "production")
}

// Load reads an optional .env file and then the environment using go-envconfig.
// Values already present in the environment win over the file.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(fmt.Sprintf("config: failed to read .env: %v", err))
	}
	cfg, err := LoadFrom(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadFrom resolves the configuration from lookuper.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}

	cfg.UserStore = strings.ToLower(strings.TrimSpace(cfg.UserStore))
	switch cfg.UserStore {
	case UserStoreMongo, UserStoreRedis:
	default:
		return nil, fmt.Errorf("config: unsupported USER_STORE %q", cfg.UserStore)
	}
	return &cfg, nil
}
