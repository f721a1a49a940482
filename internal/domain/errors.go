// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import "errors"

// ErrorType represents the semantic category of an error
type ErrorType int

const (
	ErrorTypeValidation   ErrorType = iota // Input validation errors (400 Bad Request)
	ErrorTypeNotFound                      // Resource not found errors (404 Not Found)
	ErrorTypeConflict                      // Resource conflict errors (409 Conflict)
	ErrorTypeInternal                      // Persistence and other internal errors (500 Internal Server Error)
	ErrorTypeUnavailable                   // Service unavailable errors (503 Service Unavailable)
	ErrorTypeUpload                        // Attachment upload rejections and outages (422 Unprocessable Entity)
	ErrorTypeUnauthorized                  // Missing or invalid credentials (401 Unauthorized)
	ErrorTypeForbidden                     // Role not allowed to perform the action (403 Forbidden)
)

// String returns a short name for the error type, used in logs and API error codes.
func (t ErrorType) String() string {
	switch t {
	case ErrorTypeValidation:
		return "validation"
	case ErrorTypeNotFound:
		return "not_found"
	case ErrorTypeConflict:
		return "conflict"
	case ErrorTypeUnavailable:
		return "unavailable"
	case ErrorTypeUpload:
		return "upload"
	case ErrorTypeUnauthorized:
		return "unauthorized"
	case ErrorTypeForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

// DomainError represents an error with semantic type information
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error // underlying error for wrapping
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// GetErrorType returns the semantic type of an error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ErrorTypeInternal // default fallback
}

// GetErrorMessage returns the user facing message of an error, without the wrapped cause.
func GetErrorMessage(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return "internal error"
}

// Error constructors for different types
func NewValidationError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeValidation, Message: message, Err: errors.Join(err...)}
}

func NewNotFoundError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeNotFound, Message: message, Err: errors.Join(err...)}
}

func NewConflictError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeConflict, Message: message, Err: errors.Join(err...)}
}

func NewInternalError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeInternal, Message: message, Err: errors.Join(err...)}
}

// NewPersistenceError reports a storage failure on create, update or delete.
// Persistence failures are internal errors from the caller's point of view.
func NewPersistenceError(message string, err ...error) *DomainError {
	return NewInternalError(message, err...)
}

func NewUnavailableError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeUnavailable, Message: message, Err: errors.Join(err...)}
}

func NewUploadError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeUpload, Message: message, Err: errors.Join(err...)}
}

func NewUnauthorizedError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeUnauthorized, Message: message, Err: errors.Join(err...)}
}

func NewForbiddenError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeForbidden, Message: message, Err: errors.Join(err...)}
}

// Common errors shared by services and handlers.
var (
	ErrServiceUnavailable = NewUnavailableError("service unavailable")
	ErrSubmissionInFlight = NewConflictError("a scheduling attempt is already in progress")
	ErrAttemptCancelled   = NewConflictError("scheduling attempt was cancelled")
	ErrSessionNotFound    = NewUnauthorizedError("session not found or expired")
	ErrInsufficientRole   = NewForbiddenError("your role is not allowed to perform this action")
	ErrRevisionMismatch   = NewConflictError("the resource was modified concurrently")
)
