package common

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel kinds carried by AppError.Err so callers can use errors.Is.
var (
	ErrValidation           = errors.New("validation failed")
	ErrNotFound             = errors.New("not found")
	ErrStockInsufficient    = errors.New("insufficient stock")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrVerificationMismatch = errors.New("verification code mismatch")
	ErrVerificationExpired  = errors.New("verification code expired")
	ErrConflict             = errors.New("conflict")
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Code
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// IsAppError checks whether the error is an AppError.
func IsAppError(err error) bool {
	var target *AppError
	return errors.As(err, &target)
}

// ValidationError reports bad input on a single field.
func ValidationError(field, message string) *AppError {
	return &AppError{
		Code:       "VALIDATION_ERROR",
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Err:        ErrValidation,
		Details:    map[string]string{"field": field},
	}
}

// ValidationErrors reports several field problems at once.
func ValidationErrors(fields map[string]string) *AppError {
	return &AppError{
		Code:       "VALIDATION_ERROR",
		Message:    "request validation failed",
		HTTPStatus: http.StatusBadRequest,
		Err:        ErrValidation,
		Details:    fields,
	}
}

func NotFoundError(resource string) *AppError {
	return &AppError{
		Code:       "NOT_FOUND",
		Message:    resource + " not found",
		HTTPStatus: http.StatusNotFound,
		Err:        ErrNotFound,
	}
}

// StockInsufficientError carries the requested and available quantities.
func StockInsufficientError(requested, available int) *AppError {
	if available < 0 {
		available = 0
	}
	return &AppError{
		Code:       "STOCK_INSUFFICIENT",
		Message:    fmt.Sprintf("only %d left in stock", available),
		HTTPStatus: http.StatusConflict,
		Err:        ErrStockInsufficient,
		Details:    map[string]int{"requested": requested, "available": available},
	}
}

func InvalidTransitionError(from, to string) *AppError {
	return &AppError{
		Code:       "INVALID_TRANSITION",
		Message:    fmt.Sprintf("cannot move product from %s to %s", from, to),
		HTTPStatus: http.StatusConflict,
		Err:        ErrInvalidTransition,
		Details:    map[string]string{"from": from, "to": to},
	}
}

func VerificationMismatchError() *AppError {
	return &AppError{
		Code:       "VERIFICATION_MISMATCH",
		Message:    "verification code does not match, request a new code",
		HTTPStatus: http.StatusUnprocessableEntity,
		Err:        ErrVerificationMismatch,
	}
}

func VerificationExpiredError() *AppError {
	return &AppError{
		Code:       "VERIFICATION_EXPIRED",
		Message:    "verification code expired, request a new code",
		HTTPStatus: http.StatusGone,
		Err:        ErrVerificationExpired,
	}
}

func ConflictError(message string) *AppError {
	return &AppError{
		Code:       "CONFLICT",
		Message:    message,
		HTTPStatus: http.StatusConflict,
		Err:        ErrConflict,
	}
}
