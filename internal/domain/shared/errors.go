// Package shared contains common domain types, errors and events that are
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
	ErrValidation    = errors.New("validation error")
	ErrInvalidID     = errors.New("invalid ID")
	ErrInvalidInput  = errors.New("invalid input")
	ErrEmptyValue    = errors.New("value cannot be empty")
	ErrNegativeValue = errors.New("value cannot be negative")
	ErrOutOfRange    = errors.New("value out of range")

	// State errors
	ErrInvalidState     = errors.New("invalid state")
	ErrAlreadyProcessed = errors.New("already processed")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// Persistence errors
	ErrPersistence = errors.New("persistence error")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "learner", "badge", "progression"
	Op      string // Operation that failed, e.g., "AwardXP", "CreateAward"
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

// Learner domain errors
var (
	ErrLearnerNotFound      = NewDomainError("learner", "Find", ErrNotFound, "learner not found")
	ErrLearnerAlreadyExists = NewDomainError("learner", "Create", ErrAlreadyExists, "learner already exists")
	ErrNegativeXPAward      = NewDomainError("learner", "AwardXP", ErrNegativeValue, "xp award must be non-negative")
	ErrProgressConflict     = NewDomainError("learner", "AwardXP", ErrConcurrentModification, "progress record changed concurrently")
)

// Badge domain errors
var (
	ErrBadgeNotFound     = NewDomainError("badge", "Find", ErrNotFound, "badge definition not found")
	ErrBadgeAlreadyOwned = NewDomainError("badge", "CreateAward", ErrAlreadyExists, "badge already awarded to learner")
	ErrUnknownCriterion  = NewDomainError("badge", "Evaluate", ErrInvalidEntity, "unknown badge criterion kind")
)

// Progression domain errors
var (
	ErrModuleAlreadyCompleted  = NewDomainError("progression", "CompleteModule", ErrAlreadyProcessed, "module already completed")
	ErrChallengeAlreadyClaimed = NewDomainError("progression", "DailyChallenge", ErrAlreadyProcessed, "daily challenge already completed today")
	ErrAttemptNotFound         = NewDomainError("progression", "FindAttempt", ErrNotFound, "quiz attempt not found")
)

// Catalog domain errors
var (
	ErrModuleNotFound     = NewDomainError("catalog", "FindModule", ErrNotFound, "course module not found")
	ErrQuizNotFound       = NewDomainError("catalog", "FindQuiz", ErrNotFound, "quiz not found")
	ErrSimulationNotFound = NewDomainError("catalog", "FindSimulation", ErrNotFound, "simulation not found")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrOutOfRange)
}

// IsConflict checks if the error is a concurrent modification conflict.
// Conflicts are transient and safe to retry.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}
