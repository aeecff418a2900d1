package ports

import (
	"context"

	"github.com/cinemabook/authgate/internal/core/domain"
)

// AuthService is what the HTTP layer needs for /auth/*.
type AuthService interface {
	Register(ctx context.Context, email, displayName, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	Me(ctx context.Context, id string) (*domain.User, error)
}
