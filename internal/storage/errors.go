package storage

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUsernameTaken is returned when setting a username that another
	// user already holds. Comparison is case-insensitive.
	ErrUsernameTaken = errors.New("username is already taken")

	// ErrInvalidUsername is returned when a username fails format
	// validation: 3-20 characters, letters, digits, and underscores only.
	ErrInvalidUsername = errors.New("username must be 3-20 characters and contain only letters, numbers, and underscores")
)
