package apperror

import (
	"errors"
	"net/http"
)

// AppError is an error that carries the HTTP status it should be reported with.
type AppError struct {
	Code    int    // HTTP Status Code (e.g., 400, 404)
	Message string // User-facing error message
	Err     error  // The underlying error, if any (not exposed to user)
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with a status code and message.
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// NotFound reports a missing entity, or one the caller is not allowed to see.
func NotFound(message string) *AppError {
	return New(http.StatusNotFound, message)
}

// InvalidRequest reports a request that violates a business rule.
func InvalidRequest(message string) *AppError {
	return New(http.StatusBadRequest, message)
}

// Conflict reports a uniqueness violation.
func Conflict(message string) *AppError {
	return New(http.StatusConflict, message)
}

// Wrap creates a new AppError wrapping an existing error.
func Wrap(err error, code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsNotFound reports whether err is an AppError with a 404 status.
func IsNotFound(err error) bool {
	return hasCode(err, http.StatusNotFound)
}

// IsInvalidRequest reports whether err is an AppError with a 400 status.
func IsInvalidRequest(err error) bool {
	return hasCode(err, http.StatusBadRequest)
}

func hasCode(err error, code int) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}
