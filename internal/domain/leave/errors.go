package leave

import "github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/apperror"

var (
	ErrApplicationNotFound = apperror.New(apperror.KindNotFound, "LEAVE_APPLICATION_NOT_FOUND", "leave application not found")
	ErrUnknownLeaveType    = apperror.New(apperror.KindValidation, "LEAVE_TYPE_UNKNOWN", "unknown leave type")
	ErrInvalidDateRange    = apperror.New(apperror.KindValidation, "LEAVE_INVALID_DATE_RANGE", "end date must not be before start date")
	ErrRetroactiveLeave    = apperror.New(apperror.KindValidation, "LEAVE_RETROACTIVE", "leave cannot start in the past")
	ErrNonWorkingDays      = apperror.New(apperror.KindValidation, "LEAVE_NON_WORKING_DAYS", "leave range includes Sundays or holidays")
	ErrOverlappingLeave    = apperror.New(apperror.KindConflict, "LEAVE_OVERLAP", "leave overlaps an existing application")
	ErrAlreadyDecided      = apperror.New(apperror.KindConflict, "LEAVE_ALREADY_DECIDED", "leave application has already been approved or rejected")
	ErrInsufficientBalance = apperror.New(apperror.KindInsufficientBalance, "LEAVE_INSUFFICIENT_BALANCE", "insufficient leave balance")
	ErrNotAuthorized       = apperror.New(apperror.KindAuthorization, "LEAVE_ACTION_NOT_PERMITTED", "actor may not approve or reject this employee's leave")
)
