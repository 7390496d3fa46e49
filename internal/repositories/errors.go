package repositories

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates the attempted write would violate a uniqueness constraint.
	ErrConflict = errors.New("record conflict")
	// ErrInvalidID indicates the identifier is not in the store's id format.
	ErrInvalidID = errors.New("invalid record id")
	// ErrVersionConflict indicates the record changed since it was loaded.
	ErrVersionConflict = errors.New("record version conflict")
)
