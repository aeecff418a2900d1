package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cinemabook/authgate/internal/api/middleware"
)

// ctxIdentity returns the caller attached by the authorization filter. A
// missing identity on a handler that expects one means the route was wired
// as public by mistake; answer 401 rather than serve anonymously.
func ctxIdentity(c echo.Context) (*middleware.Identity, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok || id.Subject == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return id, nil
}
