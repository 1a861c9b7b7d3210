package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrTimeConflict is raised by the store itself when a write would
	// overlap another booking of the same room and date.
	ErrTimeConflict = errors.New("booking time conflicts with existing booking")

	ErrLockHeld = errors.New("booking slot is locked by another request")
)
