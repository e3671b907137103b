package ports

import "errors"

var (
	// ErrNotFound is returned by every store adapter when the entity (or the owner of a set) does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when a unique field (user email) is already taken.
	ErrDuplicate = errors.New("duplicate value for unique field")
)
