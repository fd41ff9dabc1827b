package matching

import (
	"errors"
	"fmt"
)

// ValidationError signals malformed input. Never retried automatically.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Message
}

// NewValidationError builds a ValidationError from a format string.
func NewValidationError(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ConflictError signals an invariant-protecting rejection: duplicate
// response, response after cancellation, finalize race loser, or a create
// while another request is pending. Callers should re-read state before
// deciding whether to retry.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return "conflict: " + e.Message
}

// NewConflictError builds a ConflictError from a format string.
func NewConflictError(format string, args ...any) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError signals an unknown reservation/request/candidate id.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return "not found: " + e.Message
}

// NewNotFoundError builds a NotFoundError from a format string.
func NewNotFoundError(format string, args ...any) error {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// DependencyError signals a failure reaching the reservation store or the
// manager directory. The whole operation is safe to retry: nothing was
// persisted.
type DependencyError struct {
	Message string
	Err     error
}

func (e *DependencyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dependency: %s: %v", e.Message, e.Err)
	}
	return "dependency: " + e.Message
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}

// NewDependencyError wraps an upstream failure.
func NewDependencyError(err error, format string, args ...any) error {
	return &DependencyError{Message: fmt.Sprintf(format, args...), Err: err}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}
