package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/cinemabook/authgate/internal/api/metrics"
	"github.com/cinemabook/authgate/internal/core/domain"
	"github.com/cinemabook/authgate/internal/core/policy"
	"github.com/cinemabook/authgate/internal/core/token"
)

const (
	msgBadHeader    = "missing or invalid authorization header"
	msgInvalidToken = "invalid or expired token"
)

// TokenValidator turns a bearer token into claims.
type TokenValidator interface {
	Validate(tokenString string) (*token.Claims, error)
}

// Decision is the terminal state of one authorization check: either Allow
// (with an Identity unless the route is public) or a deny Status of 401/403.
type Decision struct {
	Allow       bool
	Status      int
	Message     string
	Reason      string
	Requirement policy.Requirement
	Identity    *Identity
}

// Authorizer resolves the route policy, validates the bearer token and checks
// the caller's role. It is built once at startup and shared by all requests.
type Authorizer struct {
	validator TokenValidator
	table     *policy.Table
	log       zerolog.Logger
}

func NewAuthorizer(validator TokenValidator, table *policy.Table, log zerolog.Logger) *Authorizer {
	return &Authorizer{validator: validator, table: table, log: log}
}

// Decide evaluates a single request. Unknown routes require authentication.
func (a *Authorizer) Decide(method, path, authorization string) Decision {
	req := a.table.Resolve(method, path)

	if req.Level == policy.LevelPublic {
		return Decision{Allow: true, Reason: "public", Requirement: req}
	}

	raw, ok := BearerToken(authorization)
	if !ok {
		return deny(http.StatusUnauthorized, msgBadHeader, "missing_header", req)
	}

	claims, err := a.validator.Validate(raw)
	if err != nil {
		metrics.TokenValidationFailuresTotal.WithLabelValues(failureKind(err)).Inc()
		return deny(http.StatusUnauthorized, msgInvalidToken, "invalid_token", req)
	}
	id := identityFromClaims(claims)

	if req.Level == policy.LevelRole && id.Role != req.Role {
		d := deny(http.StatusForbidden, "insufficient role: "+string(req.Role)+" required", "insufficient_role", req)
		d.Identity = id
		return d
	}

	reason := "authenticated"
	if req.Level == policy.LevelRole {
		reason = "role"
	}
	return Decision{Allow: true, Reason: reason, Requirement: req, Identity: id}
}

// Middleware adapts Decide to echo. Denials become *echo.HTTPError values
// rendered by the API error handler; the wrapped handler never runs.
func (a *Authorizer) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()
			path := echo.GetPath(r)
			d := a.Decide(r.Method, path, r.Header.Get(echo.HeaderAuthorization))

			outcome := "allow"
			if !d.Allow {
				outcome = "deny"
			}
			metrics.AuthDecisionsTotal.WithLabelValues(outcome, d.Reason).Inc()

			if !d.Allow {
				ev := a.log.Debug().
					Str("method", r.Method).
					Str("path", path).
					Str("requirement", d.Requirement.String()).
					Str("reason", d.Reason).
					Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID))
				if d.Identity != nil {
					ev = ev.Str("subject", d.Identity.Subject)
				}
				ev.Msg("request denied")
				return echo.NewHTTPError(d.Status, d.Message)
			}

			if d.Identity != nil {
				SetIdentity(c, d.Identity)
			}
			return next(c)
		}
	}
}

// BearerToken extracts the token from "Bearer <token>". The scheme is
// case-insensitive; the token must be non-empty and contain no whitespace.
func BearerToken(header string) (string, bool) {
	scheme, tok, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	if tok == "" || strings.ContainsAny(tok, " \t\r\n") {
		return "", false
	}
	return tok, true
}

func deny(status int, msg, reason string, req policy.Requirement) Decision {
	return Decision{Status: status, Message: msg, Reason: reason, Requirement: req}
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, token.ErrExpired):
		return "expired"
	case errors.Is(err, token.ErrBadSignature):
		return "bad_signature"
	case errors.Is(err, token.ErrMalformed), errors.Is(err, domain.ErrInvalidToken):
		return "malformed"
	}
	return "unknown"
}
