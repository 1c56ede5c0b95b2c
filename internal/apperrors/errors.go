package apperrors

import (
	"errors"   // Error chain helpers
	"fmt"      // String formatting
	"net/http" // HTTP status codes
)

// Error codes
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeInternal        = "INTERNAL_ERROR"
	CodeInsufficient    = "INSUFFICIENT_POINTS"
	CodeAlreadyExists   = "ALREADY_EXISTS"
	CodeAlreadyResolved = "ALREADY_RESOLVED"
	CodeInUse           = "IN_USE"
	CodeRateLimited     = "RATE_LIMITED"
)

// AppError is an error that knows how it should be reported to an API client
type AppError struct {
	Status  int    // HTTP status code
	Code    string // Machine readable code
	Message string // Client facing message
	Err     error  // Underlying cause, never sent to clients
}

// Error formats the code, message and cause for logs
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches AppErrors by code so sentinels survive wrapping
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// New creates an AppError without a cause
func New(status int, code, message string) *AppError {
	return &AppError{Status: status, Code: code, Message: message}
}

// Wrap creates an AppError around a cause
func Wrap(err error, status int, code, message string) *AppError {
	return &AppError{Status: status, Code: code, Message: message, Err: err}
}

// BadRequest is a 400 validation error
func BadRequest(message string) *AppError {
	return New(http.StatusBadRequest, CodeValidation, message)
}

// Forbidden is a 403 error
func Forbidden(message string) *AppError {
	return New(http.StatusForbidden, CodeForbidden, message)
}

// Unauthorized is a 401 error
func Unauthorized(message string) *AppError {
	return New(http.StatusUnauthorized, CodeUnauthorized, message)
}

// Internal is a 500 error keeping the cause for logs
func Internal(err error, message string) *AppError {
	return Wrap(err, http.StatusInternalServerError, CodeInternal, message)
}

// AlreadyResolved is returned when a transaction left the pending state before the review
func AlreadyResolved(status string) *AppError {
	return New(http.StatusBadRequest, CodeAlreadyResolved, "Transaction already "+status)
}

// Domain errors
var (
	ErrInsufficientPoints = New(http.StatusBadRequest, CodeInsufficient, "Insufficient points balance")
	ErrDuplicateFolio     = New(http.StatusBadRequest, CodeAlreadyExists, "Receipt with this folio already submitted")
	ErrEmailTaken         = New(http.StatusBadRequest, CodeAlreadyExists, "User already exists with this email")
	ErrBranchNotFound     = New(http.StatusNotFound, CodeNotFound, "Branch not found")
	ErrUserNotFound       = New(http.StatusNotFound, CodeNotFound, "User not found")
	ErrTxNotFound         = New(http.StatusNotFound, CodeNotFound, "Transaction not found")
	ErrOtherBranch        = New(http.StatusForbidden, CodeForbidden, "Transaction belongs to another branch")
	ErrUnauthorized       = Unauthorized("Unauthorized")
	ErrForbidden          = Forbidden("Forbidden")
	ErrRateLimited        = New(http.StatusTooManyRequests, CodeRateLimited, "Too many requests")
)

// As extracts an AppError from an error chain
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
