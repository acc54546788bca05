package domain

import (
	"errors"
	"fmt"
)

// ErrSyncInProgress is returned when another inbox sync holds the lock.
var ErrSyncInProgress = errors.New("sync already in progress")

// ValidationError marks malformed input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError marks a missing entity.
type NotFoundError struct {
	Entity string
	Key    any
}

func (e *NotFoundError) Error() string {
	if e.Key == nil {
		return e.Entity + " not found"
	}
	return fmt.Sprintf("%s %v not found", e.Entity, e.Key)
}

// ConflictError marks a write that clashes with existing data.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// AIParseError wraps a failed or unparseable model call.
type AIParseError struct {
	Operation string
	Err       error
}

func (e *AIParseError) Error() string {
	return fmt.Sprintf("ai %s: %v", e.Operation, e.Err)
}

func (e *AIParseError) Unwrap() error {
	return e.Err
}

// DeliveryError wraps an outbound mail transport failure.
type DeliveryError struct {
	Recipient string
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver to %s: %v", e.Recipient, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// InboxError wraps a mailbox connection or protocol failure.
type InboxError struct {
	Operation string
	Err       error
}

func (e *InboxError) Error() string {
	return fmt.Sprintf("inbox %s: %v", e.Operation, e.Err)
}

func (e *InboxError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err carries a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
