package leave

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/calendar"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/validator"
)

// ========================================
// APPLICATION DTOs
// ========================================

type ApplyLeaveRequest struct {
	EmployeeID string  `json:"employee_id"`
	LeaveType  string  `json:"leave_type"`
	StartDate  string  `json:"start_date"`
	EndDate    string  `json:"end_date"`
	Remark     *string `json:"remark,omitempty"`
	AppliedBy  string  `json:"-"`
}

func (r *ApplyLeaveRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs.Add("employee_id", "employee_id is required")
	}
	if validator.IsEmpty(r.AppliedBy) {
		errs.Add("applied_by", "applied_by is required")
	}
	if validator.IsEmpty(r.LeaveType) {
		errs.Add("leave_type", "leave_type is required")
	} else if !validator.IsInSlice(r.LeaveType, codeStrings()) {
		errs.Add("leave_type", "leave_type must be one of ML, CL, EL, SL, PL, UL, LWP")
	}
	validateRange(&errs, r.StartDate, r.EndDate)
	if r.Remark != nil && len(*r.Remark) > 500 {
		errs.Add("remark", "remark must not exceed 500 characters")
	}

	return errs.OrNil()
}

type ValidateDatesRequest struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	StartDate  string  `json:"start_date"`
	EndDate    string  `json:"end_date"`
}

func (r *ValidateDatesRequest) Validate() error {
	var errs validator.ValidationErrors
	validateRange(&errs, r.StartDate, r.EndDate)
	return errs.OrNil()
}

// InvalidDate is a non-working day inside a requested range. Reason is
// "sunday" or "holiday:<name>".
type InvalidDate struct {
	Date        string  `json:"date"`
	Reason      string  `json:"reason"`
	HolidayName *string `json:"holiday_name,omitempty"`
}

type ValidateDatesResponse struct {
	Valid        bool          `json:"valid"`
	InvalidDates []InvalidDate `json:"invalid_dates"`
}

type ApproveLeaveRequest struct {
	ApplicationID string  `json:"-"`
	ActorID       string  `json:"-"`
	Remark        *string `json:"remark,omitempty"`
}

func (r *ApproveLeaveRequest) Validate() error {
	var errs validator.ValidationErrors
	validateApplicationID(&errs, r.ApplicationID)
	if validator.IsEmpty(r.ActorID) {
		errs.Add("actor_id", "actor is required")
	}
	return errs.OrNil()
}

type RejectLeaveRequest struct {
	ApplicationID string `json:"-"`
	ActorID       string `json:"-"`
	Reason        string `json:"reason"`
}

func (r *RejectLeaveRequest) Validate() error {
	var errs validator.ValidationErrors
	validateApplicationID(&errs, r.ApplicationID)
	if validator.IsEmpty(r.ActorID) {
		errs.Add("actor_id", "actor is required")
	}
	if validator.IsEmpty(r.Reason) {
		errs.Add("reason", "rejection reason is required")
	}
	return errs.OrNil()
}

// ApprovalResult reports which days of an approved application were written
// to attendance and which were skipped.
type ApprovalResult struct {
	Application Application             `json:"application"`
	AppliedDays []string                `json:"applied_days"`
	SkippedDays []attendance.SkippedDay `json:"skipped_days"`
}

// ========================================
// FILTERS
// ========================================

type ApplicationFilter struct {
	Status    *string `json:"status,omitempty"`
	LeaveType *string `json:"leave_type,omitempty"`
	Page      int     `json:"page"`
	Limit     int     `json:"limit"`
}

func (f *ApplicationFilter) Validate() error {
	var errs validator.ValidationErrors

	validatePaging(&errs, &f.Page, &f.Limit)
	if f.Status != nil && !validator.IsInSlice(*f.Status, []string{string(StatusPending), string(StatusApproved), string(StatusRejected)}) {
		errs.Add("status", "status must be one of pending, approved, rejected")
	}
	if f.LeaveType != nil && !validator.IsInSlice(*f.LeaveType, codeStrings()) {
		errs.Add("leave_type", "unknown leave type")
	}

	return errs.OrNil()
}

type PendingApprovalFilter struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	LeaveType  *string `json:"leave_type,omitempty"`
	From       *string `json:"from,omitempty"`
	To         *string `json:"to,omitempty"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`

	// Set by the service
	FromDate    *time.Time `json:"-"`
	ToDate      *time.Time `json:"-"`
	EmployeeIDs []string   `json:"-"` // nil means all employees
}

func (f *PendingApprovalFilter) Validate() error {
	var errs validator.ValidationErrors

	validatePaging(&errs, &f.Page, &f.Limit)
	if f.LeaveType != nil && !validator.IsInSlice(*f.LeaveType, codeStrings()) {
		errs.Add("leave_type", "unknown leave type")
	}
	if f.From != nil {
		if d, ok := validator.IsValidDate(*f.From); ok {
			f.FromDate = &d
		} else {
			errs.Add("from", "from must be in YYYY-MM-DD format")
		}
	}
	if f.To != nil {
		if d, ok := validator.IsValidDate(*f.To); ok {
			f.ToDate = &d
		} else {
			errs.Add("to", "to must be in YYYY-MM-DD format")
		}
	}
	if f.FromDate != nil && f.ToDate != nil && f.ToDate.Before(*f.FromDate) {
		errs.Add("to", "to must not be before from")
	}

	return errs.OrNil()
}

type ListApplicationsResponse struct {
	TotalCount   int64         `json:"total_count"`
	Page         int           `json:"page"`
	Limit        int           `json:"limit"`
	TotalPages   int           `json:"total_pages"`
	Showing      string        `json:"showing"`
	Applications []Application `json:"applications"`
}

// MaxRangeDays bounds a single application or date check, so one request
// never spans more than one year boundary.
const MaxRangeDays = 366

func validateRange(errs *validator.ValidationErrors, startStr, endStr string) {
	start, startOK := validator.IsValidDate(startStr)
	if !startOK {
		errs.Add("start_date", "start_date must be in YYYY-MM-DD format")
	}
	end, endOK := validator.IsValidDate(endStr)
	if !endOK {
		errs.Add("end_date", "end_date must be in YYYY-MM-DD format")
	}
	if startOK && endOK && calendar.InclusiveDays(start, end) > MaxRangeDays {
		errs.Add("end_date", fmt.Sprintf("date range must not exceed %d days", MaxRangeDays))
	}
}

func validateApplicationID(errs *validator.ValidationErrors, id string) {
	if validator.IsEmpty(id) {
		errs.Add("application_id", "application_id is required")
	} else if !validator.IsValidUUID(id) {
		errs.Add("application_id", "application_id must be a valid UUID")
	}
}

func validatePaging(errs *validator.ValidationErrors, page, limit *int) {
	if *page < 0 {
		errs.Add("page", "page must be a positive number")
	}
	if *page == 0 {
		*page = 1 // Default page
	}
	if *limit < 0 {
		errs.Add("limit", "limit must be a positive number")
	}
	if *limit == 0 {
		*limit = 20 // Default limit
	}
	if *limit > 100 {
		errs.Add("limit", "limit must not exceed 100")
	}
}

func codeStrings() []string {
	out := make([]string, len(Codes))
	for i, c := range Codes {
		out[i] = string(c)
	}
	return out
}
