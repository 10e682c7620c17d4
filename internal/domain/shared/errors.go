package shared

import (
	"errors"
	"fmt"
)

// Error codes shared across the ledger. Domain codes describe business rule
// violations the caller can act on; infrastructure codes describe transient
// store failures the caller may retry.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodePartyMismatch       = "PARTY_MISMATCH"
	CodeOverpayment         = "OVERPAYMENT"
	CodeOverRefund          = "OVER_REFUND"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeInvalidState        = "INVALID_STATE"
	CodeTransactionTimeout  = "TRANSACTION_TIMEOUT"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
)

// Coded is implemented by errors that carry a machine-readable code
type Coded interface {
	error
	ErrorCode() string
}

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// ErrorCode returns the machine-readable error code
func (e *DomainError) ErrorCode() string {
	return e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a validation error with the given message
func NewValidationError(message string) *DomainError {
	return NewDomainError(CodeValidation, message)
}

// Common errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrTransactionTimeout  = NewDomainError(CodeTransactionTimeout, "Operation timed out, no changes were applied")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
)

// InvalidTransitionError is returned when a state machine operation is not
// legal from the current state. From and Event identify the rejected pair.
type InvalidTransitionError struct {
	From  string
	Event string
}

// Error implements the error interface
func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s from %s state", e.Event, e.From)
}

// ErrorCode returns the machine-readable error code
func (e *InvalidTransitionError) ErrorCode() string {
	return CodeInvalidTransition
}

// NewInvalidTransitionError creates a new invalid transition error
func NewInvalidTransitionError(from, event string) *InvalidTransitionError {
	return &InvalidTransitionError{From: from, Event: event}
}

// ErrorCode extracts the code from an error, or empty string if it has none
func ErrorCode(err error) string {
	var coded Coded
	if errors.As(err, &coded) {
		return coded.ErrorCode()
	}
	return ""
}

// IsRetryable reports whether the error is an infrastructure failure the
// caller may retry as a whole operation. Domain errors are never retryable.
func IsRetryable(err error) bool {
	switch ErrorCode(err) {
	case CodeTransactionTimeout, CodeConcurrencyConflict:
		return true
	}
	return false
}
