package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/predictionmetrics/marketshare/internal/storage"
)

// unique_violation
const pgErrUniqueViolation = "23505"

// UserStore is a Postgres implementation of storage.UserStore. A unique index
// on lower(username) enforces case-insensitive uniqueness; the stored value
// keeps the user's casing.
type UserStore struct {
	pool *Pool
}

// NewUserStore creates a user store on the given pool.
func NewUserStore(pool *Pool) *UserStore {
	return &UserStore{pool: pool}
}

func (s *UserStore) Username(ctx context.Context, userID string) (string, error) {
	var name string
	err := s.pool.QueryRow(ctx,
		"SELECT username FROM users WHERE user_id = $1", userID).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get username for %s: %w", userID, err)
	}
	return name, nil
}

func (s *UserStore) SetUsername(ctx context.Context, userID, username string) error {
	if err := storage.ValidateUsername(username); err != nil {
		return err
	}

	// Reject a name held by someone else before attempting the write so
	// the common case reads cleanly; the unique index still backstops
	// concurrent claims.
	var holder string
	err := s.pool.QueryRow(ctx,
		"SELECT user_id FROM users WHERE lower(username) = $1",
		strings.ToLower(username)).Scan(&holder)
	if err == nil && holder != userID {
		return storage.ErrUsernameTaken
	}
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("check username availability: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO users (user_id, username) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET username = EXCLUDED.username`,
		userID, username)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrUsernameTaken
		}
		return fmt.Errorf("set username for %s: %w", userID, err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation
}
