package ports

import (
	"context"

	"github.com/cinemabook/authgate/internal/core/domain"
)

// CredentialStore defines persistence for user identities.
//
// Create must make the email uniqueness check and the insert atomic with
// respect to each other; a lost race is reported as domain.ErrDuplicateEmail.
// Emails passed in are already normalized.
type CredentialStore interface {
	Create(ctx context.Context, user *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Ping(ctx context.Context) error
}
