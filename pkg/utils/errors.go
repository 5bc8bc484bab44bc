package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// Stable error codes returned in the response envelope.
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeBadRequest        = "BAD_REQUEST"
	CodeInvalidReference  = "INVALID_REFERENCE"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeTokenExpired      = "TOKEN_EXPIRED"
	CodeForbidden         = "FORBIDDEN"
	CodeNotFound          = "NOT_FOUND"
	CodeMethodNotAllowed  = "METHOD_NOT_ALLOWED"
	CodeConflict          = "CONFLICT"
	CodeInvalidTransition = "INVALID_STATUS_TRANSITION"
	CodePayloadTooLarge   = "PAYLOAD_TOO_LARGE"
	CodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	CodeInternal          = "INTERNAL_ERROR"
	CodeNotConfigured     = "NOT_CONFIGURED"
)

// AppError is an error that knows how it should be rendered to the caller.
type AppError struct {
	Status  int
	Code    string
	Message string
	Field   string
	Details interface{}
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// WithField sets the offending field and returns the same error.
func (e *AppError) WithField(field string) *AppError {
	e.Field = field
	return e
}

// WithDetails attaches extra context for the caller.
func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

func NewValidationError(message, field string) *AppError {
	return &AppError{Status: http.StatusBadRequest, Code: CodeValidation, Message: message, Field: field}
}

func NewBadRequestError(message string) *AppError {
	return &AppError{Status: http.StatusBadRequest, Code: CodeBadRequest, Message: message}
}

func NewInvalidReferenceError(message string, cause error) *AppError {
	return &AppError{Status: http.StatusBadRequest, Code: CodeInvalidReference, Message: message, Err: cause}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{Status: http.StatusUnauthorized, Code: CodeUnauthorized, Message: message}
}

func NewTokenExpiredError() *AppError {
	return &AppError{Status: http.StatusUnauthorized, Code: CodeTokenExpired, Message: "Token has expired"}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{Status: http.StatusForbidden, Code: CodeForbidden, Message: message}
}

func NewNotFoundError(resource string) *AppError {
	return &AppError{Status: http.StatusNotFound, Code: CodeNotFound, Message: resource + " not found"}
}

func NewConflictError(message string) *AppError {
	return &AppError{Status: http.StatusConflict, Code: CodeConflict, Message: message}
}

func NewInvalidTransitionError(from, to string) *AppError {
	return &AppError{
		Status:  http.StatusConflict,
		Code:    CodeInvalidTransition,
		Message: fmt.Sprintf("Cannot move booking from %s to %s", from, to),
		Field:   "status",
		Details: map[string]string{"from": from, "to": to},
	}
}

func NewPayloadTooLargeError(limit int64) *AppError {
	return &AppError{
		Status:  http.StatusRequestEntityTooLarge,
		Code:    CodePayloadTooLarge,
		Message: fmt.Sprintf("Request body exceeds %d bytes", limit),
	}
}

func NewNotConfiguredError(message string) *AppError {
	return &AppError{Status: http.StatusNotImplemented, Code: CodeNotConfigured, Message: message}
}

// NewInternalError hides cause from the caller; it is only logged.
func NewInternalError(cause error) *AppError {
	return &AppError{Status: http.StatusInternalServerError, Code: CodeInternal, Message: "An unexpected error occurred", Err: cause}
}

// AsAppError unwraps err into an AppError, treating anything unknown as internal.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return NewPayloadTooLargeError(maxBytesErr.Limit)
	}
	return NewInternalError(err)
}
