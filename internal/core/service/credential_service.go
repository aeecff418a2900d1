package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/cinemabook/authgate/internal/core/domain"
	"github.com/cinemabook/authgate/internal/core/ports"
)

const (
	// DefaultBcryptCost lands in the low hundreds of milliseconds per hash on
	// current commodity hardware.
	DefaultBcryptCost = 12

	minPasswordLength = 8
	maxPasswordBytes  = 72 // bcrypt ignores everything past this
	maxDisplayName    = 100
	maxEmailLength    = 254
)

// CredentialService owns identity records and password verification.
type CredentialService struct {
	store     ports.CredentialStore
	cost      int
	dummyHash []byte
	validate  *validator.Validate
	log       zerolog.Logger
	now       func() time.Time
}

// NewCredentialService hashes a throwaway password once so that lookups for
// unknown emails spend the same bcrypt work as real comparisons.
func NewCredentialService(store ports.CredentialStore, cost int, log zerolog.Logger) (*CredentialService, error) {
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, &domain.ConfigurationError{Setting: "BCRYPT_COST", Reason: fmt.Sprintf("cost %d out of range", cost)}
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), cost)
	if err != nil {
		return nil, fmt.Errorf("credential service: dummy hash: %w", err)
	}

	return &CredentialService{
		store:     store,
		cost:      cost,
		dummyHash: dummy,
		validate:  validator.New(),
		log:       log,
		now:       time.Now,
	}, nil
}

// Register validates input, hashes the password and stores a CUSTOMER identity.
func (s *CredentialService) Register(ctx context.Context, email, displayName, password string) (*domain.User, error) {
	return s.create(ctx, email, displayName, password, domain.RoleCustomer)
}

func (s *CredentialService) create(ctx context.Context, email, displayName, password string, role domain.Role) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	if err := s.checkEmail(email); err != nil {
		return nil, err
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, &domain.ValidationError{Field: "name", Reason: "name is required"}
	}
	if utf8.RuneCountInString(displayName) > maxDisplayName {
		return nil, &domain.ValidationError{Field: "name", Reason: fmt.Sprintf("name must be at most %d characters", maxDisplayName)}
	}
	if err := checkPassword(password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, domain.NewValidationError("email", domain.ErrDuplicateEmail)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Str("email", user.Email).Str("role", string(role)).Msg("identity registered")
	return user, nil
}

// Verify returns the identity for a correct email/password pair. Unknown
// email and wrong password both cost one bcrypt comparison and both return
// domain.ErrInvalidCredentials.
func (s *CredentialService) Verify(ctx context.Context, email, password string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}

	hash := s.dummyHash
	if user != nil {
		hash = []byte(user.PasswordHash)
	}
	mismatch := bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil

	if user == nil || mismatch {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

// Get loads an identity by id.
func (s *CredentialService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.store.FindByID(ctx, id)
}

// EnsureAdmin creates an ADMIN identity unless the email is already taken.
// It returns true when a new identity was created.
func (s *CredentialService) EnsureAdmin(ctx context.Context, email, displayName, password string) (bool, error) {
	_, err := s.store.FindByEmail(ctx, domain.NormalizeEmail(email))
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, domain.ErrUserNotFound):
		return false, fmt.Errorf("find admin: %w", err)
	}

	if _, err := s.create(ctx, email, displayName, password, domain.RoleAdmin); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *CredentialService) checkEmail(email string) error {
	if email == "" || len(email) > maxEmailLength || s.validate.Var(email, "email") != nil {
		return domain.NewValidationError("email", domain.ErrInvalidEmailFormat)
	}
	return nil
}

func checkPassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength || len(password) > maxPasswordBytes {
		return domain.NewValidationError("password", domain.ErrWeakPassword)
	}
	var letter, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !letter || !digit {
		return domain.NewValidationError("password", domain.ErrWeakPassword)
	}
	return nil
}
