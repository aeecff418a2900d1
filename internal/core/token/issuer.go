package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cinemabook/authgate/internal/core/domain"
)

// DefaultLifetime is how long an issued token stays valid.
const DefaultLifetime = 24 * time.Hour

// Option customizes an Issuer or a Validator.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Issuer mints signed tokens for verified identities.
type Issuer struct {
	key      Key
	lifetime time.Duration
	now      func() time.Time
}

func NewIssuer(key Key, lifetime time.Duration, opts ...Option) (*Issuer, error) {
	if key.empty() {
		return nil, &domain.ConfigurationError{Setting: "AUTH_SIGNING_KEY", Reason: "signing key is not set"}
	}
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}
	o := buildOptions(opts)
	return &Issuer{key: key, lifetime: lifetime, now: o.now}, nil
}

// Issue signs a token for user; expiresAt is always issuedAt + lifetime.
func (i *Issuer) Issue(user *domain.User) (string, error) {
	if user == nil || user.ID == "" {
		return "", errors.New("issue token: identity has no id")
	}
	if !user.Role.Valid() {
		return "", fmt.Errorf("issue token: unknown role %q", user.Role)
	}

	issuedAt := i.now().UTC().Truncate(time.Second)
	claims := &Claims{
		Email: user.Email,
		Name:  user.DisplayName,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(i.lifetime)),
		},
	}

	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(i.key.bytes())
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return signed, nil
}

// Lifetime reports the configured token lifetime.
func (i *Issuer) Lifetime() time.Duration { return i.lifetime }
