package model

import "errors"

// Errors returned by tree and registry operations. The first three abort a
// single operation and leave state unchanged.
var (
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrCyclicMove       = errors.New("inventory cannot be moved into itself or its descendants")
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")

	// ErrCorruptTree signals a broken owner chain (dangling owner or a loop).
	// It is a programming error: the enclosing transaction must be aborted.
	ErrCorruptTree = errors.New("containment tree is corrupt")
)

// ValidationError describes rejected input. It matches ErrInvalidInput.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "invalid input: " + e.Reason }

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

func invalid(reason string) error {
	return &ValidationError{Reason: reason}
}
