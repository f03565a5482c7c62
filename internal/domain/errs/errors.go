// Package errs defines sentinel errors shared by all domain packages.
package errs

import "errors"

var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists is returned when a resource already exists
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrInvalidInput is returned when input data is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidContent is returned when message content fails validation
	ErrInvalidContent = errors.New("invalid message content")

	// ErrAccessDenied is returned on ownership or tenant mismatch
	ErrAccessDenied = errors.New("access denied")

	// ErrLimitExceeded is returned when a quota is exhausted
	ErrLimitExceeded = errors.New("limit exceeded")

	// ErrInvalidState is returned when aggregate state is invalid for the operation
	ErrInvalidState = errors.New("invalid aggregate state")

	// ErrInvalidTransition is returned when a state transition is not allowed
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrPersistence is returned when a storage operation fails; wrap the cause
	ErrPersistence = errors.New("persistence failure")
)
