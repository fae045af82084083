package types

import (
	"errors"
	"net/http"
)

// Error codes returned in the "code" field of error responses
const (
	ErrCodeInvalidRequest  = "INVALID_REQUEST"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeConflict        = "CONFLICT"
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS"
	ErrCodeLimitReached    = "LIMIT_REACHED"
	ErrCodeInvalidJSON     = "UPSTREAM_INVALID_JSON"
	ErrCodeUpstream        = "UPSTREAM_ERROR"
	ErrCodeInternal        = "INTERNAL_ERROR"
)

// AppError is an error with an HTTP status and a client-facing message
type AppError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// BadRequest wraps a validation failure
func BadRequest(message string) *AppError {
	return NewAppError(ErrCodeInvalidRequest, message, http.StatusBadRequest, nil)
}

// NotFound reports a missing resource
func NotFound(message string) *AppError {
	return NewAppError(ErrCodeNotFound, message, http.StatusNotFound, nil)
}

// AsAppError extracts an AppError from err, or wraps err as an internal error
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewAppError(ErrCodeInternal, "Internal server error", http.StatusInternalServerError, err)
}
