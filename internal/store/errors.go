package store

import (
	"errors"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in
	// the store.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity (e.g., a task with an id that is already
	// pending).
	ErrDuplicate = errors.New("entity already exists")

	// ErrTransactionFailed is returned when a database transaction cannot
	// be started or fails to commit.
	ErrTransactionFailed = errors.New("transaction failed")
)
