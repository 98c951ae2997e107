package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/apperror"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/validator"
)

var kindStatus = map[apperror.Kind]int{
	apperror.KindValidation:          http.StatusBadRequest,
	apperror.KindInsufficientBalance: http.StatusUnprocessableEntity,
	apperror.KindConflict:            http.StatusConflict,
	apperror.KindLocked:              http.StatusLocked,
	apperror.KindAlreadyLocked:       http.StatusConflict,
	apperror.KindAuthorization:       http.StatusForbidden,
	apperror.KindNotFound:            http.StatusNotFound,
}

// StatusFor returns the HTTP status used for err.
func StatusFor(err error) int {
	if status, ok := kindStatus[apperror.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Field-level validation
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		details := make(map[string]any, len(validationErrs))
		for field, msg := range validationErrs.ToMap() {
			details[field] = msg
		}
		ValidationError(w, details)
		return
	}

	if appErr, ok := apperror.As(err); ok {
		if status, known := kindStatus[appErr.Kind]; known {
			Fail(w, status, appErr.Code, appErr.Message, appErr.Details)
			return
		}
	}

	slog.Error("unhandled error", "error", err)
	InternalServerError(w, "An unexpected error occurred")
}
