package payroll

import (
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/validator"
)

// ========== RUN DTOs ==========

type RunPayrollRequest struct {
	EmployeeID string `json:"employee_id"`
	Month      int    `json:"month"`
	Year       int    `json:"year"`
}

func (r *RunPayrollRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.EmployeeID) {
		errs.Add("employee_id", "employee_id is required")
	}
	validatePeriod(&errs, r.Month, r.Year)
	return errs.OrNil()
}

type RunPayrollBatchRequest struct {
	Month       int      `json:"month"`
	Year        int      `json:"year"`
	EmployeeIDs []string `json:"employee_ids,omitempty"` // empty means every active employee
}

func (r *RunPayrollBatchRequest) Validate() error {
	var errs validator.ValidationErrors
	validatePeriod(&errs, r.Month, r.Year)
	for i, id := range r.EmployeeIDs {
		if validator.IsEmpty(id) {
			errs.Add("employee_ids."+validator.Itoa(i), "employee id must not be empty")
		}
	}
	return errs.OrNil()
}

func validatePeriod(errs *validator.ValidationErrors, month, year int) {
	if !validator.IsValidMonth(month) {
		errs.Add("month", "month must be between 1 and 12")
	}
	if !validator.IsValidYear(year) {
		errs.Add("year", "year is out of range")
	}
}

type BatchFailure struct {
	EmployeeID string `json:"employee_id"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

type RunPayrollBatchResponse struct {
	Month     int               `json:"month"`
	Year      int               `json:"year"`
	Generated []GeneratedSalary `json:"generated"`
	Failed    []BatchFailure    `json:"failed"`
}
