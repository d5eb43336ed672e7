package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrConflict is returned when a write violates a uniqueness constraint.
	ErrConflict = errors.New("persistence: conflict")
	// ErrConstraintViolation is returned when a write references missing rows or breaks a check.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
)
