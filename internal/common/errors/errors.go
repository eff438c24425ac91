package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorCode identifies a class of failure.
type ErrorCode string

const (
	ErrCodeInternal   ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"
	ErrCodeForbidden  ErrorCode = "FORBIDDEN"
	ErrCodeConflict   ErrorCode = "CONFLICT"
	ErrCodeNotFound   ErrorCode = "NOT_FOUND"

	// Wizard
	ErrCodeExpiredState ErrorCode = "EXPIRED_STATE"
	ErrCodeTicketLimit  ErrorCode = "TICKET_LIMIT"

	// Tickets
	ErrCodeNotTicketChannel       ErrorCode = "NOT_TICKET_CHANNEL"
	ErrCodeResourceCreationFailed ErrorCode = "RESOURCE_CREATION_FAILED"

	// Dependencies
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
	ErrCodeCacheError    ErrorCode = "CACHE_ERROR"
	ErrCodeExternalAPI   ErrorCode = "EXTERNAL_API_ERROR"
)

// GenericFailureMessage is shown to users when nothing more specific applies.
const GenericFailureMessage = "❌ An error occurred while processing your request."

// AppError is a typed application error carrying the message a user should see.
type AppError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Context   map[string]string      `json:"context,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"-"`
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

// Is matches another AppError by code, so errors.Is(err, errors.New(code, "")) works.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// IsRecoverable reports whether the failure is an expected, user-correctable one.
func (e *AppError) IsRecoverable() bool {
	switch e.Code {
	case ErrCodeValidation, ErrCodeForbidden, ErrCodeConflict, ErrCodeNotFound,
		ErrCodeExpiredState, ErrCodeTicketLimit, ErrCodeNotTicketChannel:
		return true
	}
	return false
}

// WithContext adds a context entry to the error
func (e *AppError) WithContext(key, value string) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// WithDetail adds a detail entry to the error
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates an application error.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Wrap wraps an existing error.
func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message)
	appErr.Cause = err
	return appErr
}

// Wrapf wraps an existing error with a formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// Constructors for the common cases

func NewValidationError(message string) *AppError {
	return New(ErrCodeValidation, message)
}

func NewExpiredStateError() *AppError {
	return New(ErrCodeExpiredState, "❌ Selection expired. Please start over.")
}

func NewForbiddenError(message string) *AppError {
	return New(ErrCodeForbidden, message)
}

func NewConflictError(message string) *AppError {
	return New(ErrCodeConflict, message)
}

func NewDatabaseError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeDatabaseError, GenericFailureMessage).
		WithDetail("operation", operation)
}

// AsAppError extracts an AppError anywhere in the chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// UserMessage returns the text a user should see for err. Unrecognised
// errors collapse into the generic failure message.
func UserMessage(err error) string {
	if appErr, ok := AsAppError(err); ok && appErr.Message != "" {
		return appErr.Message
	}
	return GenericFailureMessage
}
