package attendance

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/calendar"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/validator"
)

// ========================================
// ATTENDANCE DTOs
// ========================================

type GetAttendanceRequest struct {
	EmployeeID string `json:"employee_id"`
	Month      int    `json:"month"`
	Year       int    `json:"year"`
}

func (r *GetAttendanceRequest) Validate() error {
	_, err := NewMonthKey(r.EmployeeID, r.Month, r.Year)
	return err
}

type MarkDayRequest struct {
	EmployeeID string  `json:"employee_id"`
	Month      int     `json:"month"`
	Year       int     `json:"year"`
	Day        int     `json:"day"`
	LeaveType  *string `json:"leave_type,omitempty"`
	ActorID    string  `json:"-"`
}

func (r *MarkDayRequest) Validate() error {
	key, err := NewMonthKey(r.EmployeeID, r.Month, r.Year)
	if err != nil {
		return err
	}
	var errs validator.ValidationErrors
	if r.Day < 1 || r.Day > key.DaysInMonth() {
		errs.Add("day", "day must be within the month")
	}
	if validator.IsEmpty(r.ActorID) {
		errs.Add("actor_id", "actor is required")
	}
	return errs.OrNil()
}

type DayInput struct {
	Day       int     `json:"day"`
	Status    Status  `json:"status"`
	LeaveType *string `json:"leave_type,omitempty"`
}

type UpsertAttendanceRequest struct {
	EmployeeID string     `json:"employee_id"`
	Month      int        `json:"month"`
	Year       int        `json:"year"`
	Days       []DayInput `json:"days"`
	Submitted  *bool      `json:"submitted,omitempty"`
	ActorID    string     `json:"-"`
}

func (r *UpsertAttendanceRequest) Validate() error {
	key, err := NewMonthKey(r.EmployeeID, r.Month, r.Year)
	if err != nil {
		return err
	}

	var errs validator.ValidationErrors
	seen := make(map[int]bool, len(r.Days))
	for _, d := range r.Days {
		field := "days." + validator.Itoa(d.Day)
		if d.Day < 1 || d.Day > key.DaysInMonth() {
			errs.Add(field, "day must be within the month")
			continue
		}
		if seen[d.Day] {
			errs.Add(field, "day appears more than once")
		}
		seen[d.Day] = true
		if !d.Status.IsManual() {
			errs.Add(field, "status must be one of unmarked, present, firsthalf, secondhalf, absent, leave")
		}
		if d.Status == StatusLeave && (d.LeaveType == nil || validator.IsEmpty(*d.LeaveType)) {
			errs.Add(field, "leave_type is required for leave")
		}
	}
	if validator.IsEmpty(r.ActorID) {
		errs.Add("actor_id", "actor is required")
	}
	return errs.OrNil()
}

// Entries converts the request into domain day entries.
func (r *UpsertAttendanceRequest) Entries() []DayEntry {
	entries := make([]DayEntry, 0, len(r.Days))
	for _, d := range r.Days {
		entries = append(entries, DayEntry{Day: d.Day, Status: d.Status, LeaveType: d.LeaveType})
	}
	return entries
}

type LockAttendanceRequest struct {
	EmployeeID string `json:"employee_id"`
	Month      int    `json:"month"`
	Year       int    `json:"year"`
	ActorID    string `json:"-"`
}

func (r *LockAttendanceRequest) Validate() error {
	if _, err := NewMonthKey(r.EmployeeID, r.Month, r.Year); err != nil {
		return err
	}
	if validator.IsEmpty(r.ActorID) {
		return validator.ValidationErrors{{Field: "actor_id", Message: "actor is required"}}
	}
	return nil
}

type SubmitAttendanceRequest = LockAttendanceRequest

// ========================================
// RESPONSES
// ========================================

type DayResponse struct {
	Day  int    `json:"day"`
	Date string `json:"date"`
	DayRecord
}

type AttendanceMonthResponse struct {
	EmployeeID  string        `json:"employee_id"`
	Month       int           `json:"month"`
	Year        int           `json:"year"`
	State       MonthState    `json:"state"`
	Locked      bool          `json:"locked"`
	LockedBy    *string       `json:"locked_by,omitempty"`
	LockedAt    *time.Time    `json:"locked_at,omitempty"`
	Submitted   bool          `json:"submitted"`
	SubmittedBy *string       `json:"submitted_by,omitempty"`
	SubmittedAt *time.Time    `json:"submitted_at,omitempty"`
	Days        []DayResponse `json:"days"`
	Counts      Counts        `json:"counts"`
}

func NewAttendanceMonthResponse(m *Month) AttendanceMonthResponse {
	records := m.Days()
	days := make([]DayResponse, len(records))
	for i, rec := range records {
		days[i] = DayResponse{
			Day:       i + 1,
			Date:      calendar.Format(m.Key.Date(i + 1)),
			DayRecord: rec,
		}
	}
	return AttendanceMonthResponse{
		EmployeeID:  m.Key.EmployeeID,
		Month:       m.Key.Month,
		Year:        m.Key.Year,
		State:       m.State(),
		Locked:      m.Locked,
		LockedBy:    m.LockedBy,
		LockedAt:    m.LockedAt,
		Submitted:   m.Submitted,
		SubmittedBy: m.SubmittedBy,
		SubmittedAt: m.SubmittedAt,
		Days:        days,
		Counts:      m.Counts(),
	}
}

type UpsertAttendanceResponse struct {
	OK          bool                    `json:"ok"`
	SkippedDays []SkippedDay            `json:"skipped_days"`
	Attendance  AttendanceMonthResponse `json:"attendance"`
}
