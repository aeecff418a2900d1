package mongo

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/cinemabook/authgate/internal/core/domain"
)

// Runs against a live server only when TEST_MONGO_URI is set.
func TestCredentialStore_Integration(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	client, db, err := Connect(ctx, Config{URI: uri, Database: "authgate_test_" + uuid.NewString()[:8]})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	store := NewCredentialStore(db)
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	u := &domain.User{
		ID: uuid.NewString(), Email: "mongo@example.com", DisplayName: "Mongo",
		PasswordHash: "hash", Role: domain.RoleAdmin, CreatedAt: now, UpdatedAt: now,
	}
	if err := store.Create(ctx, u); err != nil {
		t.Fatalf("Create: %v", err)
	}

	dup := *u
	dup.ID = uuid.NewString()
	if err := store.Create(ctx, &dup); !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}

	got, err := store.FindByEmail(ctx, "mongo@example.com")
	if err != nil || got.ID != u.ID || got.Role != domain.RoleAdmin || !got.CreatedAt.Equal(now) {
		t.Fatalf("FindByEmail: %+v, %v", got, err)
	}
	if _, err := store.FindByID(ctx, "missing"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := store.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
