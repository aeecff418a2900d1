package middleware

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/cinemabook/authgate/internal/core/domain"
	"github.com/cinemabook/authgate/internal/core/token"
)

// identityKey is the echo context key for the authenticated caller.
const identityKey = "auth_identity"

type identityCtxKey struct{}

// Identity is the caller established by a validated token.
type Identity struct {
	Subject string
	Email   string
	Name    string
	Role    domain.Role
}

func identityFromClaims(c *token.Claims) *Identity {
	return &Identity{Subject: c.Subject, Email: c.Email, Name: c.Name, Role: c.Role}
}

// WithIdentity stores id in ctx for code that only sees a context.Context.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, id)
}

// IdentityFromContext returns the caller attached by the authorization filter.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityCtxKey{}).(*Identity)
	return id, ok && id != nil
}

// IdentityFrom returns the caller attached to an echo context. Public routes
// have no identity.
func IdentityFrom(c echo.Context) (*Identity, bool) {
	id, ok := c.Get(identityKey).(*Identity)
	return id, ok && id != nil
}

// SetIdentity attaches id to both the echo context and its request context.
func SetIdentity(c echo.Context, id *Identity) {
	c.Set(identityKey, id)
	r := c.Request()
	c.SetRequest(r.WithContext(WithIdentity(r.Context(), id)))
}
