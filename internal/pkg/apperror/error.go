package apperror

import (
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/validator"
)

// Kind classifies an error for callers that need to react to it, such as the
// HTTP layer choosing a status code.
type Kind string

const (
	KindValidation          Kind = "validation"
	KindConflict            Kind = "conflict"
	KindInsufficientBalance Kind = "insufficient_balance"
	KindLocked              Kind = "locked"
	KindAlreadyLocked       Kind = "already_locked"
	KindAuthorization       Kind = "authorization"
	KindNotFound            Kind = "not_found"
	KindInternal            Kind = "internal"
)

type AppError struct {
	Kind    Kind
	Code    string         // Machine readable code (e.g., ATTENDANCE_LOCKED)
	Message string         // User-friendly message
	Details map[string]any // Offending dates, ids, amounts
	Err     error          // Wrapped original error (optional)
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap implements errors.Unwrap interface for errors.Is/As
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError with the same code, so that
// errors.Is(err, leave.ErrOverlappingLeave) holds for copies made by With.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// With returns a copy of e carrying a specific message and details.
func (e *AppError) With(message string, details map[string]any) *AppError {
	cp := *e
	if message != "" {
		cp.Message = message
	}
	if details != nil {
		cp.Details = details
	}
	return &cp
}

// New creates a new AppError without wrapping
func New(kind Kind, code, message string) *AppError {
	return &AppError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// Wrap creates an AppError that wraps an existing error
func Wrap(err error, kind Kind, code, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Kind:    kind,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// KindOf returns the kind of the first AppError in err's chain. Field
// validation errors are KindValidation; anything else is KindInternal.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return KindValidation
	}
	return KindInternal
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}
