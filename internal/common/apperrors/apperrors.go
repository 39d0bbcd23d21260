package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies an application error.
type ErrorCode string

const (
	ErrCodeInternal   ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"
	ErrCodeForbidden  ErrorCode = "FORBIDDEN"
	ErrCodeNotFound   ErrorCode = "NOT_FOUND"

	// Configuration is incomplete; the process must not serve traffic.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION_ERROR"

	// The ledger transaction could not be committed. Surfaced as a 500 so
	// the caller's retry policy can recover it.
	ErrCodeTransactionFailed ErrorCode = "TRANSACTION_FAILED"
)

// AppError is a typed application error carrying a code and an optional cause.
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message, Cause: err}
}

func NewValidationError(field, reason string) *AppError {
	return New(ErrCodeValidation, fmt.Sprintf("Validation failed for field '%s': %s", field, reason))
}

func NewForbiddenError(reason string) *AppError {
	return New(ErrCodeForbidden, fmt.Sprintf("Forbidden: %s", reason))
}

func NewTransactionError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeTransactionFailed, fmt.Sprintf("Ledger transaction failed: %s", operation))
}

// AsAppError unwraps err to an *AppError if one is in its chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HTTPStatus maps an error code to the status that communicates the right
// retry behavior to the caller.
func HTTPStatus(err error) int {
	appErr, ok := AsAppError(err)
	if !ok {
		return http.StatusInternalServerError
	}

	switch appErr.Code {
	case ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeTransactionFailed, ErrCodeInternal, ErrCodeConfiguration:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
