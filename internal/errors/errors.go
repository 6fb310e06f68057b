package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the service layer.
var (
	ErrNotFound        = errors.New("resource not found")
	ErrAccountNotFound = errors.New("mail account not found")
	ErrEventNotFound   = errors.New("event not found")
	ErrDuplicateEntry  = errors.New("duplicate entry")
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrInternal        = errors.New("internal server error")

	// Mailbox-provider errors form a closed classification; callers route
	// on these instead of inspecting transport status codes.

	// ErrCursorExpired indicates the provider no longer accepts the stored
	// sync cursor; the account needs a full resubscription
	ErrCursorExpired = errors.New("sync cursor expired")

	// ErrAuthExpired indicates the provider rejected the account credential
	ErrAuthExpired = errors.New("provider credential expired")

	// ErrRateLimited indicates the provider throttled the request
	ErrRateLimited = errors.New("provider rate limited")

	// ErrExtractionUnavailable indicates the structured-extraction service
	// returned a non-success response
	ErrExtractionUnavailable = errors.New("extraction service unavailable")
)

// Error codes for API responses
const (
	CodeNotFound       = "NOT_FOUND"
	CodeDuplicateEntry = "DUPLICATE_ENTRY"
	CodeInvalidInput   = "INVALID_INPUT"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeInternalError  = "INTERNAL_ERROR"
	CodeCursorExpired  = "CURSOR_EXPIRED"
	CodeAuthExpired    = "AUTH_EXPIRED"
	CodeRateLimited    = "RATE_LIMITED"
)

// AppError attaches a presentable message and code to an underlying
// error while remaining matchable with errors.Is.
type AppError struct {
	Err     error
	Message string
	Code    string
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(err error, message string, code string) *AppError {
	return &AppError{
		Err:     err,
		Message: message,
		Code:    code,
	}
}

// Wrap adds context while preserving the error chain. Nil stays nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrEventNotFound)
}

// IsCursorExpired checks if the error requires a full resubscription
func IsCursorExpired(err error) bool {
	return errors.Is(err, ErrCursorExpired)
}

// IsTransient reports whether the error class is worth retrying through
// transport redelivery; input and lookup errors are not.
func IsTransient(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrInternal)
}

// GetErrorCode returns the appropriate error code for an error
func GetErrorCode(err error) string {
	switch {
	case IsNotFound(err):
		return CodeNotFound
	case errors.Is(err, ErrDuplicateEntry):
		return CodeDuplicateEntry
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, ErrCursorExpired):
		return CodeCursorExpired
	case errors.Is(err, ErrAuthExpired):
		return CodeAuthExpired
	case errors.Is(err, ErrRateLimited):
		return CodeRateLimited
	default:
		return CodeInternalError
	}
}
