package token

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cinemabook/authgate/internal/core/domain"
)

var (
	ErrMalformed    = fmt.Errorf("%w: malformed token", domain.ErrInvalidToken)
	ErrBadSignature = fmt.Errorf("%w: bad signature", domain.ErrInvalidToken)
	ErrExpired      = fmt.Errorf("%w: token expired", domain.ErrInvalidToken)
)

// Claims is the payload carried by every token.
type Claims struct {
	Email string      `json:"email"`
	Name  string      `json:"name"`
	Role  domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Validate runs after the signature and the registered time claims have been
// checked by the parser.
func (c *Claims) Validate() error {
	if c.Subject == "" {
		return errors.New("subject is required")
	}
	if !c.Role.Valid() {
		return fmt.Errorf("unknown role %q", c.Role)
	}
	if c.IssuedAt == nil {
		return errors.New("iat is required")
	}
	return nil
}
