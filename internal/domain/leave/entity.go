package leave

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/calendar"
)

// Code identifies a leave category.
type Code string

const (
	CodeMedical         Code = "ML"
	CodeCasual          Code = "CL"
	CodeEarned          Code = "EL"
	CodeSick            Code = "SL"
	CodePersonal        Code = "PL"
	CodeUnpaid          Code = "UL"
	CodeLeaveWithoutPay Code = "LWP"
)

// Codes lists every leave type in display order.
var Codes = []Code{CodeMedical, CodeCasual, CodeEarned, CodeSick, CodePersonal, CodeUnpaid, CodeLeaveWithoutPay}

func ParseCode(s string) (Code, error) {
	for _, c := range Codes {
		if string(c) == s {
			return c, nil
		}
	}
	return "", ErrUnknownLeaveType.With("", map[string]any{"leave_type": s})
}

// Unlimited is the allocation sentinel for leave types that are never capped.
const Unlimited = -1

// TypePolicy is the fixed yearly rule for one leave type.
type TypePolicy struct {
	Code             Code
	Name             string
	YearlyAllocation float64
	Unlimited        bool
	CarryForward     bool
	CarryCap         float64
}

// DefaultPolicies are the yearly allocations used when an employee has no
// allocation row for a type.
var DefaultPolicies = map[Code]TypePolicy{
	CodeMedical:         {Code: CodeMedical, Name: "Medical Leave", YearlyAllocation: 12},
	CodeCasual:          {Code: CodeCasual, Name: "Casual Leave", YearlyAllocation: 8},
	CodeEarned:          {Code: CodeEarned, Name: "Earned Leave", YearlyAllocation: 15, CarryForward: true, CarryCap: 30},
	CodeSick:            {Code: CodeSick, Name: "Sick Leave", YearlyAllocation: 7},
	CodePersonal:        {Code: CodePersonal, Name: "Personal Leave", YearlyAllocation: 5, CarryForward: true, CarryCap: 5},
	CodeUnpaid:          {Code: CodeUnpaid, Name: "Unpaid Leave", Unlimited: true},
	CodeLeaveWithoutPay: {Code: CodeLeaveWithoutPay, Name: "Leave Without Pay", Unlimited: true},
}

// Allocation is the stored base allocation of one type for an employee-year.
// Days equal to Unlimited marks the type as uncapped for that year.
type Allocation struct {
	EmployeeID string
	Year       int
	LeaveType  Code
	Days       float64
}

func (a Allocation) IsUnlimited() bool {
	return a.Days == Unlimited
}

// Allotment is the derived balance of one leave type for an employee-year.
// For unlimited types Allocated and Remaining hold the Unlimited sentinel.
type Allotment struct {
	Code          Code    `json:"code"`
	Name          string  `json:"name"`
	Allocated     float64 `json:"allocated"`
	Used          float64 `json:"used"`
	Remaining     float64 `json:"remaining"`
	Carried       float64 `json:"carried"`
	CarryFromYear *int    `json:"carry_from_year,omitempty"`
	Unlimited     bool    `json:"unlimited"`
	Disabled      bool    `json:"disabled"`
}

// Covers reports whether the allotment can absorb days more.
func (a Allotment) Covers(days float64) bool {
	return a.Unlimited || days <= a.Remaining
}

type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "pending"
	StatusApproved ApplicationStatus = "approved"
	StatusRejected ApplicationStatus = "rejected"
)

// Application is a leave request. It moves once from pending to approved or
// rejected and never changes again.
type Application struct {
	ID              string            `json:"id"`
	EmployeeID      string            `json:"employee_id"`
	LeaveType       Code              `json:"leave_type"`
	StartDate       time.Time         `json:"start_date"`
	EndDate         time.Time         `json:"end_date"`
	Days            float64           `json:"days"`
	Status          ApplicationStatus `json:"status"`
	Remark          *string           `json:"remark,omitempty"`
	AppliedBy       string            `json:"applied_by"`
	AppliedAt       time.Time         `json:"applied_at"`
	DecidedBy       *string           `json:"decided_by,omitempty"`
	DecidedAt       *time.Time        `json:"decided_at,omitempty"`
	ApproverRemark  *string           `json:"approver_remark,omitempty"`
	RejectionReason *string           `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func (a Application) IsTerminal() bool {
	return a.Status == StatusApproved || a.Status == StatusRejected
}

// Overlaps reports whether [start, end] shares at least one day with a.
func (a Application) Overlaps(start, end time.Time) bool {
	_, _, ok := calendar.Intersect(a.StartDate, a.EndDate, start, end)
	return ok
}

// DaysInYear counts the application's days that fall inside year.
func (a Application) DaysInYear(year int) float64 {
	ys, ye := calendar.YearBounds(year)
	s, e, ok := calendar.Intersect(a.StartDate, a.EndDate, ys, ye)
	if !ok {
		return 0
	}
	return float64(calendar.InclusiveDays(s, e))
}

// Years lists the calendar years touched by the application.
func (a Application) Years() []int {
	var years []int
	for y := a.StartDate.Year(); y <= a.EndDate.Year(); y++ {
		years = append(years, y)
	}
	return years
}

// LockKey names the per-employee leave aggregate used to serialize balance
// checks with writes.
func LockKey(employeeID string) string {
	return "leave:" + employeeID
}
