package ledger

import "errors"

var (
	// ErrNotFound is returned when no customer has the requested id.
	ErrNotFound = errors.New("customer not found")

	// ErrInvalidInput is returned for an empty name or a negative amount.
	ErrInvalidInput = errors.New("invalid customer input")

	// ErrUninitialized is returned by a Store that has never been written.
	ErrUninitialized = errors.New("store not initialized")
)
