package attendance

import "github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/apperror"

// Attendance domain errors
var (
	// Lock and immutability
	ErrMonthLocked      = apperror.New(apperror.KindLocked, "ATTENDANCE_MONTH_LOCKED", "attendance month is locked or submitted")
	ErrDayImmutable     = apperror.New(apperror.KindLocked, "ATTENDANCE_DAY_IMMUTABLE", "day is a holiday or an approved leave and cannot be changed")
	ErrAlreadyLocked    = apperror.New(apperror.KindAlreadyLocked, "ATTENDANCE_ALREADY_LOCKED", "attendance month is already locked or submitted")
	ErrLockNotPermitted = apperror.New(apperror.KindAuthorization, "ATTENDANCE_ACTION_NOT_PERMITTED", "actor may not change this attendance month")

	// Input
	ErrDayOutOfRange     = apperror.New(apperror.KindValidation, "ATTENDANCE_DAY_OUT_OF_RANGE", "day is outside the month")
	ErrInvalidStatus     = apperror.New(apperror.KindValidation, "ATTENDANCE_INVALID_STATUS", "invalid attendance status")
	ErrLeaveTypeRequired = apperror.New(apperror.KindValidation, "ATTENDANCE_LEAVE_TYPE_REQUIRED", "a leave type is required to mark a day as leave")
	ErrNoAttendanceData  = apperror.New(apperror.KindValidation, "ATTENDANCE_NO_DATA", "attendance month has no recorded days to submit")

	ErrAttendanceNotFound = apperror.New(apperror.KindNotFound, "ATTENDANCE_NOT_FOUND", "attendance record not found")
)
