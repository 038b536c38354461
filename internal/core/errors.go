package core

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors shared across service and repository layers. Handlers
// translate these into HTTP responses; nothing below the HTTP boundary
// knows about status codes.
var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicateKey    = errors.New("duplicate key")
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrTokenExpired    = errors.New("token expired")
	ErrTokenInvalid    = errors.New("token invalid")
	ErrAccountLocked   = errors.New("account locked")
	ErrAccountInactive = errors.New("account inactive")
)

// AppError carries an HTTP status and a machine-readable code alongside
// the wrapped cause. It is the only error type the response writer
// understands natively.
type AppError struct {
	Err     error
	Message string
	Status  int
	Code    string
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(err error, message string, status int, code string) *AppError {
	return &AppError{
		Err:     err,
		Message: message,
		Status:  status,
		Code:    code,
	}
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func UnauthorizedError(message string) *AppError {
	if message == "" {
		message = "authentication required"
	}
	return NewAppError(ErrUnauthorized, message, http.StatusUnauthorized, "UNAUTHORIZED")
}

func ForbiddenError(message string) *AppError {
	if message == "" {
		message = "insufficient permissions"
	}
	return NewAppError(ErrForbidden, message, http.StatusForbidden, "FORBIDDEN")
}

func DuplicateError(field string) *AppError {
	return NewAppError(
		ErrDuplicateKey,
		fmt.Sprintf("%s already exists", field),
		http.StatusConflict,
		"DUPLICATE",
	)
}

func TokenExpiredError() *AppError {
	return NewAppError(
		ErrTokenExpired,
		"session expired",
		http.StatusUnauthorized,
		"TOKEN_EXPIRED",
	)
}

func TokenInvalidError() *AppError {
	return NewAppError(
		ErrTokenInvalid,
		"session invalid",
		http.StatusUnauthorized,
		"TOKEN_INVALID",
	)
}

func AccountLockedError() *AppError {
	return NewAppError(
		ErrAccountLocked,
		"account is locked; contact an administrator",
		http.StatusUnauthorized,
		"ACCOUNT_LOCKED",
	)
}

func AccountInactiveError() *AppError {
	return NewAppError(
		ErrAccountInactive,
		"account is disabled",
		http.StatusUnauthorized,
		"ACCOUNT_INACTIVE",
	)
}
