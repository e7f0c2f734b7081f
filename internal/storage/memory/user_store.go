package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/predictionmetrics/marketshare/internal/storage"
)

// UserStore is an in-memory implementation of storage.UserStore.
type UserStore struct {
	mu      sync.Mutex
	byUser  map[string]string // user id -> chosen username (original casing)
	byLower map[string]string // lowercased username -> user id
}

// NewUserStore creates an empty in-memory user store.
func NewUserStore() *UserStore {
	return &UserStore{
		byUser:  make(map[string]string),
		byLower: make(map[string]string),
	}
}

func (s *UserStore) Username(_ context.Context, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name, ok := s.byUser[userID]
	if !ok {
		return "", storage.ErrNotFound
	}
	return name, nil
}

func (s *UserStore) SetUsername(_ context.Context, userID, username string) error {
	if err := storage.ValidateUsername(username); err != nil {
		return err
	}

	lower := strings.ToLower(username)

	s.mu.Lock()
	defer s.mu.Unlock()

	if holder, taken := s.byLower[lower]; taken && holder != userID {
		return storage.ErrUsernameTaken
	}

	// Release the user's previous claim, keeping uniqueness intact when
	// only the casing changes.
	if prev, had := s.byUser[userID]; had && strings.ToLower(prev) != lower {
		delete(s.byLower, strings.ToLower(prev))
	}

	s.byUser[userID] = username
	s.byLower[lower] = userID
	return nil
}
