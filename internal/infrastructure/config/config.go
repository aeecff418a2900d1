package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	"golang.org/x/crypto/bcrypt"

	"github.com/cinemabook/authgate/internal/core/domain"
	"github.com/cinemabook/authgate/internal/core/token"
)

type Config struct {
	Port       string `env:"PORT,        default=8080"`
	Env        string `env:"ENV,         default=development"`
	LogLevel   string `env:"LOG_LEVEL,   default=info"`
	PolicyFile string `env:"POLICY_FILE"`

	Auth     AuthConfig
	Admin    AdminConfig
	Store    StoreConfig
	Mongo    MongoConfig
	Postgres PostgresConfig
	Redis    RedisConfig
}

type AuthConfig struct {
	SigningKey     string        `env:"AUTH_SIGNING_KEY"`
	SigningKeyFile string        `env:"AUTH_SIGNING_KEY_FILE"`
	TokenTTL       time.Duration `env:"TOKEN_TTL,   default=24h"`
	BcryptCost     int           `env:"BCRYPT_COST, default=12"`
}

// AdminConfig seeds one ADMIN identity at startup when Email is set.
type AdminConfig struct {
	Email    string `env:"ADMIN_EMAIL"`
	Name     string `env:"ADMIN_NAME,     default=Administrator"`
	Password string `env:"ADMIN_PASSWORD"`
}

type StoreConfig struct {
	Driver string `env:"STORE_DRIVER, default=memory"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=authgate"`
}

type PostgresConfig struct {
	DSN          string `env:"POSTGRES_DSN"`
	MaxOpenConns int    `env:"POSTGRES_MAX_OPEN_CONNS, default=10"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// Load reads a .env file when present, then the process environment.
func Load(ctx context.Context) (*Config, error) {
	_ = godotenv.Load()
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith resolves configuration from l and validates it. Problems with
// required settings are reported as *domain.ConfigurationError.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, &domain.ConfigurationError{Setting: "environment", Reason: err.Error()}
	}

	if cfg.Auth.SigningKey == "" && cfg.Auth.SigningKeyFile != "" {
		raw, err := os.ReadFile(cfg.Auth.SigningKeyFile)
		if err != nil {
			return nil, &domain.ConfigurationError{Setting: "AUTH_SIGNING_KEY_FILE", Reason: err.Error()}
		}
		cfg.Auth.SigningKey = strings.TrimRight(string(raw), "\r\n")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that would otherwise fail at first use.
func (c *Config) Validate() error {
	if c.Auth.SigningKey == "" {
		return &domain.ConfigurationError{Setting: "AUTH_SIGNING_KEY", Reason: "signing key is not set"}
	}
	if len(c.Auth.SigningKey) < token.MinKeyLength {
		return &domain.ConfigurationError{
			Setting: "AUTH_SIGNING_KEY",
			Reason:  fmt.Sprintf("signing key must be at least %d bytes", token.MinKeyLength),
		}
	}
	if c.Auth.TokenTTL <= 0 {
		return &domain.ConfigurationError{Setting: "TOKEN_TTL", Reason: "must be positive"}
	}
	if c.Auth.BcryptCost < bcrypt.DefaultCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return &domain.ConfigurationError{
			Setting: "BCRYPT_COST",
			Reason:  fmt.Sprintf("must be between %d and %d", bcrypt.DefaultCost, bcrypt.MaxCost),
		}
	}

	switch c.Store.Driver {
	case "memory", "mongo", "redis":
	case "postgres":
		if c.Postgres.DSN == "" {
			return &domain.ConfigurationError{Setting: "POSTGRES_DSN", Reason: "required when STORE_DRIVER=postgres"}
		}
	default:
		return &domain.ConfigurationError{Setting: "STORE_DRIVER", Reason: fmt.Sprintf("unknown driver %q", c.Store.Driver)}
	}

	if c.Admin.Email != "" && c.Admin.Password == "" {
		return &domain.ConfigurationError{Setting: "ADMIN_PASSWORD", Reason: "required when ADMIN_EMAIL is set"}
	}
	return nil
}

// Pretty reports whether logs should be human-readable.
func (c *Config) Pretty() bool {
	return c.Env == "development"
}
