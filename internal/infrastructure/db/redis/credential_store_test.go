package redis

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/cinemabook/authgate/internal/core/domain"
)

// Runs against a live server only when TEST_REDIS_ADDR is set.
func TestCredentialStore_Integration(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := Connect(ctx, Config{Addr: addr, DB: 15})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() {
		_ = client.FlushDB(context.Background()).Err()
		_ = client.Close()
	})

	store := NewCredentialStore(client)
	email := "redis-" + uuid.NewString()[:8] + "@example.com"

	var wg sync.WaitGroup
	results := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- store.Create(ctx, &domain.User{
				ID: uuid.NewString(), Email: email, DisplayName: "R",
				PasswordHash: "hash", Role: domain.RoleCustomer,
				CreatedAt: time.Now(), UpdatedAt: time.Now(),
			})
		}()
	}
	wg.Wait()
	close(results)

	created := 0
	for err := range results {
		switch {
		case err == nil:
			created++
		case !errors.Is(err, domain.ErrDuplicateEmail):
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if created != 1 {
		t.Fatalf("expected one winner, got %d", created)
	}

	got, err := store.FindByEmail(ctx, email)
	if err != nil || got.Email != email || got.Role != domain.RoleCustomer {
		t.Fatalf("FindByEmail: %+v, %v", got, err)
	}
	if _, err := store.FindByEmail(ctx, "nobody@example.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
