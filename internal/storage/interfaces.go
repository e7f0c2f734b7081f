// Package storage defines the persistence interfaces for matched-market
// snapshots and user profiles, with in-memory and Postgres implementations.
package storage

import (
	"context"
	"regexp"
	"time"

	"github.com/predictionmetrics/marketshare/internal/model"
)

// MarketStore holds the latest matched-market snapshot per config key. A sync
// cycle replaces the whole set; reads serve the dashboard between syncs.
type MarketStore interface {
	// Put stores or replaces the snapshot for its config key.
	Put(ctx context.Context, m model.MatchedMarket) error

	// PutAll replaces snapshots for every given market and records the
	// sync time. Markets absent from the slice are left untouched.
	PutAll(ctx context.Context, markets []model.MatchedMarket) error

	// Get retrieves the snapshot for a config key. Returns ErrNotFound
	// if no sync has stored it yet.
	Get(ctx context.Context, key string) (model.MatchedMarket, error)

	// All retrieves every stored snapshot.
	All(ctx context.Context) ([]model.MatchedMarket, error)

	// UpdatedAt reports when the last sync wrote. Returns ErrNotFound
	// before the first sync.
	UpdatedAt(ctx context.Context) (time.Time, error)
}

// UserStore maps user ids to their chosen display usernames. Usernames are
// unique case-insensitively; the stored casing is the one the user chose.
type UserStore interface {
	// Username retrieves the username for a user id. Returns ErrNotFound
	// if the user has not chosen one.
	Username(ctx context.Context, userID string) (string, error)

	// SetUsername claims a username for a user, releasing the user's
	// previous one. Returns ErrInvalidUsername on bad format and
	// ErrUsernameTaken when another user holds it.
	SetUsername(ctx context.Context, userID, username string) error
}

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)

// ValidateUsername checks the username format shared by all UserStore
// implementations.
func ValidateUsername(username string) error {
	if !usernameRe.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}
