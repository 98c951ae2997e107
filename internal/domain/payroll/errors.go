package payroll

import "github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/apperror"

var (
	ErrSalaryStructureNotFound = apperror.New(apperror.KindValidation, "SALARY_STRUCTURE_MISSING", "employee has no salary structure configured")
	ErrAttendanceNotFinalized  = apperror.New(apperror.KindNotFound, "ATTENDANCE_NOT_FINALIZED", "no locked or submitted attendance for the period")
	ErrInvalidPeriod           = apperror.New(apperror.KindValidation, "INVALID_PAYROLL_PERIOD", "invalid payroll period")
	ErrGeneratedSalaryNotFound = apperror.New(apperror.KindNotFound, "GENERATED_SALARY_NOT_FOUND", "no payroll generated for the period")
)
