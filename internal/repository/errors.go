package repository

import "errors"

var (
	// ErrDuplicate is returned when a write violates a unique index.
	ErrDuplicate = errors.New("repository: duplicate entry")
	// ErrNotFound is returned by writes that target a missing record.
	ErrNotFound = errors.New("repository: record not found")
)
