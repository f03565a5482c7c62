// Package appcore contains cross-cutting helpers for the application layer.
package appcore

import (
	"errors"
	"fmt"
)

// Common application errors
var (
	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrInvalidID        = errors.New("invalid ID")

	// Not found errors
	ErrNotFound        = errors.New("resource not found")
	ErrChatNotFound    = errors.New("chat not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrVisitorNotFound = errors.New("visitor not found")

	// Conflict errors
	ErrAlreadyExists = errors.New("resource already exists")

	// Infrastructure errors
	ErrDatabaseError = errors.New("database error")
	ErrEventBusError = errors.New("event bus error")
)

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError represents a "not found" error for a specific resource
type NotFoundError struct {
	Resource string
	ID       string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// NewNotFoundError creates a NotFoundError
func NewNotFoundError(resource, id string) error {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}

// AccessDeniedError represents an ownership or tenant mismatch
type AccessDeniedError struct {
	UserID   string
	Resource string
	Action   string
}

func (e AccessDeniedError) Error() string {
	return fmt.Sprintf("user %s is not allowed to %s on %s", e.UserID, e.Action, e.Resource)
}

// NewAccessDeniedError creates an AccessDeniedError
func NewAccessDeniedError(userID, resource, action string) error {
	return &AccessDeniedError{
		UserID:   userID,
		Resource: resource,
		Action:   action,
	}
}

// PersistenceError wraps a storage failure with its underlying cause
type PersistenceError struct {
	Operation string
	Cause     error
}

func (e PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Operation, e.Cause)
}

func (e PersistenceError) Unwrap() error {
	return e.Cause
}

// NewPersistenceError creates a PersistenceError
func NewPersistenceError(operation string, cause error) error {
	return &PersistenceError{Operation: operation, Cause: cause}
}
