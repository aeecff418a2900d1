package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/cinemabook/authgate/internal/core/domain"
)

// TokenIssuer mints a token for a verified identity.
type TokenIssuer interface {
	Issue(user *domain.User) (string, error)
}

// AuthService implements registration, login and identity lookup.
type AuthService struct {
	credentials *CredentialService
	issuer      TokenIssuer
	log         zerolog.Logger
}

func NewAuthService(credentials *CredentialService, issuer TokenIssuer, log zerolog.Logger) *AuthService {
	return &AuthService{credentials: credentials, issuer: issuer, log: log}
}

func (s *AuthService) Register(ctx context.Context, email, displayName, password string) (*domain.User, error) {
	return s.credentials.Register(ctx, email, displayName, password)
}

// Login verifies the password and issues a token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := s.credentials.Verify(ctx, email, password)
	if err != nil {
		return "", nil, err
	}

	token, err := s.issuer.Issue(user)
	if err != nil {
		return "", nil, err
	}

	s.log.Debug().Str("user_id", user.ID).Msg("token issued")
	return token, user, nil
}

func (s *AuthService) Me(ctx context.Context, id string) (*domain.User, error) {
	return s.credentials.Get(ctx, id)
}
