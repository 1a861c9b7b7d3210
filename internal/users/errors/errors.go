package errors

import "errors"

var (
	ErrNotFound = errors.New("user not found")

	ErrInvalidID = errors.New("invalid user ID format")

	// ErrDuplicate is returned when the id number or phone already belongs
	// to another user.
	ErrDuplicate = errors.New("user already exists")
)
