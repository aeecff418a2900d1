package token

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cinemabook/authgate/internal/core/domain"
)

// Validator turns a token string back into verified claims. It performs no
// I/O and is safe for concurrent use.
type Validator struct {
	key    Key
	parser *jwt.Parser
}

func NewValidator(key Key, opts ...Option) (*Validator, error) {
	if key.empty() {
		return nil, &domain.ConfigurationError{Setting: "AUTH_SIGNING_KEY", Reason: "signing key is not set"}
	}
	o := buildOptions(opts)
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(o.now),
	)
	return &Validator{key: key, parser: parser}, nil
}

// Validate checks the signature first and the expiry second; both must pass.
// Failures wrap ErrMalformed, ErrBadSignature or ErrExpired.
func (v *Validator) Validate(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMalformed
	}

	claims := &Claims{}
	parsed, err := v.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return v.key.bytes(), nil
	})
	if err != nil {
		return nil, classify(err)
	}
	if !parsed.Valid {
		return nil, ErrBadSignature
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %w", ErrBadSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", ErrExpired, err)
	default:
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
}
