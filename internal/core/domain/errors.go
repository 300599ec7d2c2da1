package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a storage error with a structured error code.
// Codes have the form AS-<AREA>-<NNNN>.
type DomainError struct {
	Code    string // Error code (e.g., "AS-KEY-5001")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Wrap wraps an error with this domain error as the cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return e.WithCause(cause)
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Key Errors (KEY)
// ============================================================================

var (
	// ErrCryptoUnavailable indicates no secure random source could produce key material.
	// It is fatal: a weak key must never be substituted.
	ErrCryptoUnavailable = NewDomainError("AS-KEY-5001", "secure random source unavailable")

	// ErrKeyMalformed indicates the stored encryption key is not 64 hex characters.
	ErrKeyMalformed = NewDomainError("AS-KEY-5002", "stored encryption key is malformed")
)

// ============================================================================
// Store Errors (STORE)
// ============================================================================

var (
	// ErrNotFound indicates the requested entry does not exist.
	ErrNotFound = NewDomainError("AS-STORE-4040", "entry not found")

	// ErrValueTooLarge indicates the value exceeds the store's per-entry limit.
	ErrValueTooLarge = NewDomainError("AS-STORE-4130", "value exceeds per-entry size limit")

	// ErrStoreLocked indicates the secure store is locked and cannot be read or written.
	ErrStoreLocked = NewDomainError("AS-STORE-4230", "secure store is locked")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = NewDomainError("AS-STORE-5000", "store closed")

	// ErrPrimaryUnavailable indicates the encrypted store could not be initialized.
	ErrPrimaryUnavailable = NewDomainError("AS-STORE-5031", "encrypted store unavailable")

	// ErrDecryptFailed indicates an entry failed authentication (wrong key, wrong device or corruption).
	ErrDecryptFailed = NewDomainError("AS-STORE-5002", "entry decryption failed")
)

// ============================================================================
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("AS-ARG-1001", "invalid argument")

	// ErrMissingArgument indicates a required argument is missing.
	ErrMissingArgument = NewDomainError("AS-ARG-1002", "missing required argument")
)
