package core

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ErrNotFound     ErrorCode = "WARDEN_NOT_FOUND"
	ErrInvalidInput ErrorCode = "WARDEN_INVALID_INPUT"
	ErrInvalidState ErrorCode = "WARDEN_INVALID_STATE"
	ErrForbidden    ErrorCode = "WARDEN_FORBIDDEN"
	ErrUnauthorized ErrorCode = "WARDEN_UNAUTHORIZED"
	ErrInternal     ErrorCode = "WARDEN_INTERNAL"
)

// HTTPStatus returns the HTTP status code for this error code.
func (e ErrorCode) HTTPStatus() int {
	switch e {
	case ErrNotFound:
		return 404
	case ErrInvalidInput:
		return 400
	case ErrInvalidState:
		return 409
	case ErrForbidden:
		return 403
	case ErrUnauthorized:
		return 401
	default:
		return 500
	}
}

type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAppError(code ErrorCode, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}

func Errorf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsAppError unwraps err to an AppError if there is one in the chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
