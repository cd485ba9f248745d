// Package shared contains common domain types, errors, and events that are
// used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")

	// State errors
	ErrInvalidState = errors.New("invalid state")
	ErrConflict     = errors.New("conflict")

	// Authentication errors
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrInvalidToken    = errors.New("invalid token")
	ErrSessionExpired  = errors.New("session expired")
	ErrForbidden       = errors.New("forbidden")

	// Concurrency errors
	ErrOptimisticLock = errors.New("optimistic lock failure")

	// Infrastructure errors
	ErrInternal = errors.New("internal error")
	ErrTimeout  = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "user", "enrollment", "progression"
	Op      string // Operation that failed, e.g., "Create", "CompleteLesson"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// User domain errors
var (
	ErrUserNotFound      = NewDomainError("user", "Find", ErrNotFound, "user not found")
	ErrUserAlreadyExists = NewDomainError("user", "Create", ErrAlreadyExists, "user already exists")
	ErrInvalidEmail      = NewDomainError("user", "Validate", ErrInvalidInput, "invalid email")
	ErrInvalidUsername   = NewDomainError("user", "Validate", ErrInvalidInput, "invalid username")
	ErrUserVersionStale  = NewDomainError("user", "Update", ErrOptimisticLock, "user was modified concurrently")
)

// Catalog domain errors
var (
	ErrLanguageNotFound = NewDomainError("catalog", "FindLanguage", ErrNotFound, "language not found")
	ErrLessonNotFound   = NewDomainError("catalog", "FindLesson", ErrNotFound, "lesson not found or inactive")
	ErrExerciseNotFound = NewDomainError("catalog", "FindExercise", ErrNotFound, "exercise not found")
)

// Enrollment domain errors
var (
	ErrNotEnrolled     = NewDomainError("enrollment", "Check", ErrInvalidState, "no active enrollment for this language")
	ErrAlreadyEnrolled = NewDomainError("enrollment", "Enroll", ErrConflict, "already enrolled in this language")
)

// Progress domain errors
var (
	ErrProgressNotFound = NewDomainError("progress", "Find", ErrNotFound, "progress not found")
	ErrNegativeScore    = NewDomainError("progress", "Validate", ErrNegativeValue, "score cannot be negative")
)

// Achievement domain errors
var (
	ErrAchievementNotFound = NewDomainError("achievement", "Find", ErrNotFound, "achievement not found")
	ErrAchievementExists   = NewDomainError("achievement", "Unlock", ErrAlreadyExists, "achievement already unlocked")
)

// Session / auth domain errors
var (
	ErrInvalidCredentials = NewDomainError("user", "Login", ErrUnauthenticated, "invalid email or password")
	ErrSessionNotFound    = NewDomainError("session", "Find", ErrSessionExpired, "no live session for token")
	ErrTokenExpired       = NewDomainError("session", "Verify", ErrUnauthenticated, "token expired")
	ErrTokenMalformed     = NewDomainError("session", "Verify", ErrInvalidToken, "malformed token")
	ErrTokenSignature     = NewDomainError("session", "Verify", ErrInvalidToken, "token signature mismatch")
	ErrMissingToken       = NewDomainError("session", "Verify", ErrUnauthenticated, "missing bearer token")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if the error is a conflict or duplicate error.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsAuth checks if the error belongs to the authentication taxonomy.
func IsAuth(err error) bool {
	return errors.Is(err, ErrUnauthenticated) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrSessionExpired)
}

// IsOptimisticLock checks if the error is a concurrent-modification error.
func IsOptimisticLock(err error) bool {
	return errors.Is(err, ErrOptimisticLock)
}
