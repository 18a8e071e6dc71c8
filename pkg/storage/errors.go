package storage

import "errors"

// Sentinel errors for storage operations.
var (
	// ErrNotFound is returned when an account or note does not exist, or
	// when the note belongs to a different account.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when an account with the given email already exists.
	ErrConflict = errors.New("record already exists")
)
