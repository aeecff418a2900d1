package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cinemabook/authgate/internal/core/domain"
)

const (
	emailKeyPrefix = "users:email:"
	idKeyPrefix    = "users:id:"
)

// createScript claims the email and writes the record in one atomic step.
var createScript = redis.NewScript(`
if redis.call('SETNX', KEYS[1], ARGV[1]) == 0 then
  return 0
end
redis.call('SET', KEYS[2], ARGV[2])
return 1
`)

type CredentialStore struct {
	client redis.UniversalClient
}

func NewCredentialStore(client redis.UniversalClient) *CredentialStore {
	return &CredentialStore{client: client}
}

type redisUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	DisplayName  string `json:"display_name"`
	PasswordHash string `json:"password_hash"`
	Role         string `json:"role"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at"`
}

func (s *CredentialStore) Create(ctx context.Context, user *domain.User) error {
	data, err := json.Marshal(redisUser{
		ID:           user.ID,
		Email:        user.Email,
		DisplayName:  user.DisplayName,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		CreatedAt:    user.CreatedAt.Unix(),
		UpdatedAt:    user.UpdatedAt.Unix(),
	})
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	created, err := createScript.Run(ctx, s.client,
		[]string{emailKeyPrefix + user.Email, idKeyPrefix + user.ID},
		user.ID, data,
	).Int()
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	if created == 0 {
		return domain.ErrDuplicateEmail
	}
	return nil
}

func (s *CredentialStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	id, err := s.client.Get(ctx, emailKeyPrefix+email).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return s.FindByID(ctx, id)
}

func (s *CredentialStore) FindByID(ctx context.Context, id string) (*domain.User, error) {
	raw, err := s.client.Get(ctx, idKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	var ru redisUser
	if err := json.Unmarshal(raw, &ru); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", id, err)
	}
	role, err := domain.ParseRole(ru.Role)
	if err != nil {
		return nil, fmt.Errorf("decode user %s: %w", id, err)
	}

	return &domain.User{
		ID:           ru.ID,
		Email:        ru.Email,
		DisplayName:  ru.DisplayName,
		PasswordHash: ru.PasswordHash,
		Role:         role,
		CreatedAt:    time.Unix(ru.CreatedAt, 0).UTC(),
		UpdatedAt:    time.Unix(ru.UpdatedAt, 0).UTC(),
	}, nil
}

func (s *CredentialStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
