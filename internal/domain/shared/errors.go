// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
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
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState = errors.New("invalid state")
	ErrConflict     = errors.New("conflicting state")
	ErrExpired      = errors.New("expired")
	ErrBlocked      = errors.New("blocked")
	ErrDisabled     = errors.New("disabled")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrRateLimited        = errors.New("rate limited")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "member", "season", "guild"
	Op      string // Operation that failed, e.g., "Create", "Adjust"
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

// Member domain errors
var (
	ErrMemberNotFound   = NewDomainError("member", "Find", ErrNotFound, "member not found")
	ErrProfileNotFound  = NewDomainError("member", "FindProfile", ErrNotFound, "profile not found")
	ErrInvalidUserID    = NewDomainError("member", "Validate", ErrInvalidID, "invalid user ID")
	ErrInvalidGuildID   = NewDomainError("member", "Validate", ErrInvalidID, "invalid guild ID")
	ErrMemberBlocked    = NewDomainError("member", "Adjust", ErrBlocked, "member is blocked from gaining experience")
	ErrInvalidXPAmount  = NewDomainError("member", "Validate", ErrInvalidInput, "invalid experience amount")
	ErrLevelOutOfRange  = NewDomainError("member", "Validate", ErrValueOutOfRange, "level out of range")
	ErrUnknownEventKind = NewDomainError("member", "Award", ErrInvalidInput, "unknown activity event kind")
)

// Guild domain errors
var (
	ErrGuildNotFound     = NewDomainError("guild", "Find", ErrNotFound, "guild not found")
	ErrXPDisabled        = NewDomainError("guild", "Award", ErrDisabled, "experience gain is disabled for this guild")
	ErrCategoryBlocked   = NewDomainError("guild", "Award", ErrBlocked, "category is blocked from experience gain")
	ErrInvalidCategoryID = NewDomainError("guild", "Validate", ErrInvalidID, "invalid category ID")
)

// Season domain errors
var (
	ErrSeasonNotFound      = NewDomainError("season", "Find", ErrNotFound, "season not found")
	ErrSeasonLabelTaken    = NewDomainError("season", "Create", ErrAlreadyExists, "a season with this label already exists")
	ErrInvalidSeasonLabel  = NewDomainError("season", "Validate", ErrEmptyValue, "season label cannot be empty")
	ErrInvalidDuration     = NewDomainError("season", "Validate", ErrInvalidFormat, "invalid season duration")
	ErrDurationOutOfRange  = NewDomainError("season", "Validate", ErrValueOutOfRange, "season duration out of range")
	ErrTempSeasonActive    = NewDomainError("season", "CreateTemporary", ErrConflict, "a temporary season is already running")
	ErrNoTempSeasonRunning = NewDomainError("season", "StopTemporary", ErrInvalidState, "no temporary season is running")
)

// Notification domain errors
var (
	ErrNotificationFailed = NewDomainError("notification", "Send", ErrExternalService, "failed to send notification")
	ErrNoAnnounceChannel  = NewDomainError("notification", "Send", ErrInvalidState, "guild has no announcement channel configured")
)

// External service errors
var (
	ErrDiscordAPIFailed      = NewDomainError("discord", "Request", ErrExternalService, "Discord API request failed")
	ErrDiscordAPIRateLimited = NewDomainError("discord", "Request", ErrRateLimited, "Discord API rate limit exceeded")
	ErrDiscordAPITimeout     = NewDomainError("discord", "Request", ErrTimeout, "Discord API request timeout")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsConflict checks if the error represents a conflicting state.
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
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrInvalidFormat)
}

// IsExternalService checks if the error is from an external service.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConcurrentModification)
}
