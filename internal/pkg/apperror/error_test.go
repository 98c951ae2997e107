package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
)

var errSample = New(KindConflict, "SAMPLE_CONFLICT", "sample conflict")

func TestAppError_IsMatchesCodeOnCopies(t *testing.T) {
	withDetails := errSample.With("overlaps 2025-03-11", map[string]any{"status": "approved"})
	wrapped := fmt.Errorf("failed to apply: %w", withDetails)

	assert.True(t, errors.Is(wrapped, errSample))
	assert.Equal(t, KindConflict, KindOf(wrapped))

	appErr, ok := As(wrapped)
	assert.True(t, ok)
	assert.Equal(t, "overlaps 2025-03-11", appErr.Message)
	assert.Equal(t, "approved", appErr.Details["status"])

	// original sentinel is untouched
	assert.Equal(t, "sample conflict", errSample.Message)
	assert.Nil(t, errSample.Details)
}

func TestAppError_DifferentCodesDoNotMatch(t *testing.T) {
	other := New(KindConflict, "OTHER", "other")
	assert.False(t, errors.Is(other, errSample))
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Nil(t, Wrap(nil, KindNotFound, "X", "x"))
}

func TestWrap_Unwraps(t *testing.T) {
	cause := errors.New("no rows")
	err := Wrap(cause, KindNotFound, "THING_NOT_FOUND", "thing not found")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "thing not found: no rows", err.Error())
}

func TestKindOf_ValidationErrors(t *testing.T) {
	var errs validator.ValidationErrors
	errs.Add("month", "month must be between 1 and 12")
	assert.Equal(t, KindValidation, KindOf(fmt.Errorf("request: %w", errs.OrNil())))
}
