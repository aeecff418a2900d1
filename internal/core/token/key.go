// Package token issues and validates the signed bearer tokens handed out at
// login. Tokens are HS384 JWTs; the signing key is loaded once at startup and
// shared read-only by the Issuer and the Validator.
package token

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cinemabook/authgate/internal/core/domain"
)

// MinKeyLength is the smallest HS384 secret accepted, in bytes.
const MinKeyLength = 48

var signingMethod = jwt.SigningMethodHS384

// Key holds the symmetric signing secret. The bytes are unexported so that
// only this package can produce or check a signature.
type Key struct {
	secret []byte
}

// NewKey copies secret into a Key. Short or empty secrets are a
// *domain.ConfigurationError.
func NewKey(secret []byte) (Key, error) {
	if len(secret) == 0 {
		return Key{}, &domain.ConfigurationError{Setting: "AUTH_SIGNING_KEY", Reason: "signing key is not set"}
	}
	if len(secret) < MinKeyLength {
		return Key{}, &domain.ConfigurationError{
			Setting: "AUTH_SIGNING_KEY",
			Reason:  fmt.Sprintf("signing key must be at least %d bytes, got %d", MinKeyLength, len(secret)),
		}
	}
	buf := make([]byte, len(secret))
	copy(buf, secret)
	return Key{secret: buf}, nil
}

func (k Key) bytes() []byte { return k.secret }

func (k Key) empty() bool { return len(k.secret) == 0 }
