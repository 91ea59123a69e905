package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrAccountLocked       = errors.New("account locked")
	ErrVerificationExpired = errors.New("verification token expired")
	ErrAlreadyVerified     = errors.New("email already verified")
	ErrTooManyRequests     = errors.New("too many requests")

	ErrTokenRevoked  = errors.New("refresh token revoked")
	ErrTokenExpired  = errors.New("refresh token expired")
	ErrTokenMismatch = errors.New("refresh token mismatch")
)

// AuthorizationError means the acting principal lacks rights on the target.
type AuthorizationError struct {
	ActorID  uuid.UUID
	TargetID uuid.UUID
	Reason   string
}

func (e *AuthorizationError) Error() string {
	if e.Reason != "" {
		return "not authorized: " + e.Reason
	}
	return fmt.Sprintf("user %s is not allowed to act on user %s", e.ActorID, e.TargetID)
}

// Validation constraint names reported by ValidationError.
const (
	ConstraintEmpty           = "empty"
	ConstraintOversize        = "oversize"
	ConstraintUnsupportedType = "unsupported_type"
	ConstraintExtension       = "extension"
	ConstraintCorrupt         = "corrupt"
	ConstraintFormatMismatch  = "format_mismatch"
	ConstraintDimensions      = "dimensions"
	ConstraintPassword        = "password_policy"
	ConstraintURL             = "url"
	ConstraintField           = "field"
)

// ValidationError reports a rejected payload and the constraint it violated.
type ValidationError struct {
	Constraint string
	Message    string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(constraint, format string, args ...any) *ValidationError {
	return &ValidationError{Constraint: constraint, Message: fmt.Sprintf(format, args...)}
}

// StorageError wraps an object store failure with the operation and key involved.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s %q failed: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// PersistenceError wraps a database failure that happened after storage writes.
type PersistenceError struct {
	UserID uuid.UUID
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist changes for user %s: %v", e.UserID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
