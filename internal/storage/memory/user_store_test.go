package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/predictionmetrics/marketshare/internal/storage"
)

func TestUserStoreSetAndGet(t *testing.T) {
	s := NewUserStore()
	ctx := context.Background()

	if err := s.SetUsername(ctx, "user-1", "trader_42"); err != nil {
		t.Fatalf("SetUsername failed: %v", err)
	}

	got, err := s.Username(ctx, "user-1")
	if err != nil || got != "trader_42" {
		t.Fatalf("Username = %q, %v", got, err)
	}
}

func TestUserStoreValidation(t *testing.T) {
	s := NewUserStore()
	ctx := context.Background()

	for _, bad := range []string{"ab", "way_too_long_for_a_username", "has space", "nope!", ""} {
		if err := s.SetUsername(ctx, "u", bad); !errors.Is(err, storage.ErrInvalidUsername) {
			t.Errorf("SetUsername(%q) = %v, want ErrInvalidUsername", bad, err)
		}
	}
}

func TestUserStoreUniqueness(t *testing.T) {
	s := NewUserStore()
	ctx := context.Background()

	if err := s.SetUsername(ctx, "user-1", "Trader"); err != nil {
		t.Fatalf("first claim failed: %v", err)
	}

	// Case-insensitive collision with a different user.
	if err := s.SetUsername(ctx, "user-2", "trader"); !errors.Is(err, storage.ErrUsernameTaken) {
		t.Fatalf("err = %v, want ErrUsernameTaken", err)
	}

	// Same user re-claiming (casing change) is allowed.
	if err := s.SetUsername(ctx, "user-1", "TRADER"); err != nil {
		t.Fatalf("re-claim failed: %v", err)
	}
}

func TestUserStoreRename(t *testing.T) {
	s := NewUserStore()
	ctx := context.Background()

	if err := s.SetUsername(ctx, "user-1", "old_name"); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if err := s.SetUsername(ctx, "user-1", "new_name"); err != nil {
		t.Fatalf("rename failed: %v", err)
	}

	// The old name is released for others.
	if err := s.SetUsername(ctx, "user-2", "old_name"); err != nil {
		t.Fatalf("released name re-claim failed: %v", err)
	}
}

func TestUserStoreMissing(t *testing.T) {
	s := NewUserStore()
	if _, err := s.Username(context.Background(), "ghost"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
