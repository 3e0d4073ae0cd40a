// Package errors defines the application error taxonomy shared by the
// usecase and delivery layers.
package errors

import (
	"net/http"

	"github.com/pkg/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	return e.message
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// Predefined error types
var (
	// Targeting-related errors
	ErrRecipientNotFound = NewBaseError(
		http.StatusNotFound,
		"RECIPIENT_NOT_FOUND",
		"No beneficiary is registered under this phone number",
		"",
	)

	ErrInvalidTarget = NewBaseError(
		http.StatusBadRequest,
		"INVALID_TARGET",
		"The targeting rule is incomplete or malformed",
		"",
	)

	ErrFilterFieldNotAllowed = NewBaseError(
		http.StatusBadRequest,
		"FILTER_FIELD_NOT_ALLOWED",
		"Profiles cannot be filtered by this attribute",
		"",
	)

	// Notification-related errors
	ErrNotificationNotFound = NewBaseError(
		http.StatusNotFound,
		"NOTIFICATION_NOT_FOUND",
		"The notification does not exist",
		"",
	)

	ErrInvalidCategory = NewBaseError(
		http.StatusBadRequest,
		"INVALID_CATEGORY",
		"Unknown notification category",
		"",
	)

	ErrScheduleInPast = NewBaseError(
		http.StatusBadRequest,
		"SCHEDULE_IN_PAST",
		"The scheduled delivery time has already passed",
		"",
	)

	// Authentication-related errors
	ErrInvalidCredentials = NewBaseError(
		http.StatusUnauthorized,
		"INVALID_CREDENTIALS",
		"Operator PIN is incorrect",
		"",
	)

	ErrForbidden = NewBaseError(
		http.StatusForbidden,
		"FORBIDDEN",
		"Access denied",
		"",
	)

	// Validation-related errors
	ErrValidationFailed = NewBaseError(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"Input validation failed",
		"",
	)

	// General errors
	ErrInternalError = NewBaseError(
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"Internal system error",
		"",
	)
)

// Response is the JSON error envelope returned by the HTTP error handler.
type Response struct {
	Success bool       `json:"success"`
	Code    int        `json:"code"`
	Message string     `json:"message"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo carries the business error code and detail text.
type ErrorInfo struct {
	Code    string `json:"code"`
	Details string `json:"details"`
}

// StoreWriteError represents a record store commit failure, implementing the
// AppError interface. Commit failures are surfaced to the caller because they
// affect authoritative in-app state; push failures never take this path.
type StoreWriteError struct {
	err     error
	details string
}

// NewStoreWriteError creates a store-related error
func NewStoreWriteError(err error, details string) AppError {
	return &StoreWriteError{
		err:     err,
		details: details,
	}
}

// Error implements the error interface
func (e *StoreWriteError) Error() string {
	return errors.Wrap(e.err, "record store commit failed").Error()
}

// HTTPCode returns the HTTP status code
func (e *StoreWriteError) HTTPCode() int {
	return http.StatusInternalServerError
}

// ErrorCode returns the business error code
func (e *StoreWriteError) ErrorCode() string {
	return "STORE_WRITE_FAILED"
}

// Message returns the user-friendly error message
func (e *StoreWriteError) Message() string {
	return "Failed to persist notification records"
}

// Details returns detailed error information
func (e *StoreWriteError) Details() string {
	return e.details
}

// Unwrap exposes the underlying store error for errors.Is/As checks.
func (e *StoreWriteError) Unwrap() error {
	return e.err
}
