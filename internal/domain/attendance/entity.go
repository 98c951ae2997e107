package attendance

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/holiday"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/calendar"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/validator"
)

type Status string

const (
	StatusUnmarked   Status = "unmarked"
	StatusPresent    Status = "present"
	StatusFirstHalf  Status = "firsthalf"
	StatusSecondHalf Status = "secondhalf"
	StatusAbsent     Status = "absent"
	StatusLeave      Status = "leave"
	StatusHoliday    Status = "holiday"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusUnmarked, StatusPresent, StatusFirstHalf, StatusSecondHalf, StatusAbsent, StatusLeave, StatusHoliday:
		return true
	}
	return false
}

// IsManual reports whether a user may set s directly on a working day.
func (s Status) IsManual() bool {
	return s.IsValid() && s != StatusHoliday
}

// MonthState is the lifecycle state of an attendance month.
type MonthState string

const (
	MonthOpen      MonthState = "open"
	MonthLocked    MonthState = "locked"
	MonthSubmitted MonthState = "submitted"
)

type DayRecord struct {
	Status      Status  `json:"status"`
	LeaveType   *string `json:"leave_type,omitempty"`
	LeaveID     *string `json:"leave_id,omitempty"`
	Immutable   bool    `json:"immutable"`
	HolidayName *string `json:"holiday_name,omitempty"`
}

func (d DayRecord) isEmpty() bool {
	return d.Status == "" || d.Status == StatusUnmarked
}

// MonthKey identifies one AttendanceMonth.
type MonthKey struct {
	EmployeeID string
	Month      int
	Year       int
}

func NewMonthKey(employeeID string, month, year int) (MonthKey, error) {
	var errs validator.ValidationErrors
	if validator.IsEmpty(employeeID) {
		errs.Add("employee_id", "employee_id is required")
	}
	if !validator.IsValidMonth(month) {
		errs.Add("month", "month must be between 1 and 12")
	}
	if !validator.IsValidYear(year) {
		errs.Add("year", "year is out of range")
	}
	if err := errs.OrNil(); err != nil {
		return MonthKey{}, err
	}
	return MonthKey{EmployeeID: employeeID, Month: month, Year: year}, nil
}

func (k MonthKey) DaysInMonth() int {
	return calendar.DaysIn(k.Year, k.Month)
}

func (k MonthKey) Date(day int) time.Time {
	return calendar.Date(k.Year, k.Month, day)
}

// LockKey names the aggregate for write serialization.
func (k MonthKey) LockKey() string {
	return fmt.Sprintf("attendance:%s:%04d-%02d", k.EmployeeID, k.Year, k.Month)
}

// Month is the attendance record of one employee for one calendar month.
// Days are addressed 1..DaysInMonth; other indexes are rejected.
type Month struct {
	Key         MonthKey
	days        [31]DayRecord
	Locked      bool
	LockedBy    *string
	LockedAt    *time.Time
	Submitted   bool
	SubmittedBy *string
	SubmittedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewMonth returns an open month with every day unmarked.
func NewMonth(key MonthKey) *Month {
	m := &Month{Key: key}
	for i := range m.days {
		m.days[i] = DayRecord{Status: StatusUnmarked}
	}
	return m
}

func (m *Month) checkDay(day int) error {
	if day < 1 || day > m.Key.DaysInMonth() {
		return ErrDayOutOfRange.With(
			fmt.Sprintf("day %d is outside 1..%d", day, m.Key.DaysInMonth()),
			map[string]any{"day": day},
		)
	}
	return nil
}

func (m *Month) Day(day int) (DayRecord, error) {
	if err := m.checkDay(day); err != nil {
		return DayRecord{}, err
	}
	return m.days[day-1], nil
}

func (m *Month) SetDay(day int, rec DayRecord) error {
	if err := m.checkDay(day); err != nil {
		return err
	}
	if !rec.Status.IsValid() {
		return ErrInvalidStatus
	}
	m.days[day-1] = rec
	return nil
}

// Days returns a copy of the records for days 1..DaysInMonth.
func (m *Month) Days() []DayRecord {
	n := m.Key.DaysInMonth()
	out := make([]DayRecord, n)
	copy(out, m.days[:n])
	return out
}

func (m *Month) State() MonthState {
	switch {
	case m.Submitted:
		return MonthSubmitted
	case m.Locked:
		return MonthLocked
	default:
		return MonthOpen
	}
}

func (m *Month) IsOpen() bool {
	return m.State() == MonthOpen
}

// HasData reports whether any working day carries a recorded status.
func (m *Month) HasData() bool {
	for _, d := range m.days[:m.Key.DaysInMonth()] {
		switch d.Status {
		case StatusPresent, StatusFirstHalf, StatusSecondHalf, StatusAbsent, StatusLeave:
			return true
		}
	}
	return false
}

// ApplyCalendar forces Sundays and holidays to immutable holiday records and
// clears stored holidays that are no longer on the calendar.
func (m *Month) ApplyCalendar(holidays holiday.Set) {
	for day := 1; day <= m.Key.DaysInMonth(); day++ {
		rec := &m.days[day-1]
		name, isHoliday := holidays.Name(day)
		if isHoliday || calendar.IsSunday(m.Key.Date(day)) {
			if isHoliday {
				n := name
				rec.HolidayName = &n
			}
			rec.Status = StatusHoliday
			rec.Immutable = true
			rec.LeaveType = nil
			rec.LeaveID = nil
			continue
		}
		if rec.Status == StatusHoliday {
			*rec = DayRecord{Status: StatusUnmarked}
		}
	}
}

func nextStatus(current Status) (Status, bool) {
	switch current {
	case StatusUnmarked, "":
		return StatusPresent, true
	case StatusPresent:
		return StatusFirstHalf, true
	case StatusFirstHalf:
		return StatusSecondHalf, true
	case StatusSecondHalf:
		return StatusAbsent, true
	case StatusAbsent:
		return StatusLeave, true
	case StatusLeave:
		return StatusUnmarked, true
	}
	return "", false
}

// Mark advances day one step through the manual cycle
// unmarked, present, firsthalf, secondhalf, absent, leave, unmarked.
// Moving from absent to leave requires leaveType.
func (m *Month) Mark(day int, leaveType *string) (DayRecord, error) {
	if err := m.checkDay(day); err != nil {
		return DayRecord{}, err
	}
	if !m.IsOpen() {
		return DayRecord{}, ErrMonthLocked.With("", map[string]any{"state": m.State()})
	}
	rec := m.days[day-1]
	if rec.Immutable || rec.Status == StatusHoliday {
		return DayRecord{}, ErrDayImmutable.With("", map[string]any{"date": calendar.Format(m.Key.Date(day))})
	}

	next, ok := nextStatus(rec.Status)
	if !ok {
		return DayRecord{}, ErrInvalidStatus
	}

	switch next {
	case StatusLeave:
		if leaveType == nil || validator.IsEmpty(*leaveType) {
			return DayRecord{}, ErrLeaveTypeRequired
		}
		lt := *leaveType
		rec = DayRecord{Status: StatusLeave, LeaveType: &lt}
	default:
		rec = DayRecord{Status: next}
	}
	m.days[day-1] = rec
	return rec, nil
}

// DayEntry is a requested status for one day in a bulk upsert.
type DayEntry struct {
	Day       int
	Status    Status
	LeaveType *string
}

type SkipReason string

const (
	SkipMonthLocked SkipReason = "month_locked"
	SkipImmutable   SkipReason = "immutable"
	SkipHoliday     SkipReason = "holiday"
)

type SkippedDay struct {
	Day    int        `json:"day"`
	Date   string     `json:"date"`
	Reason SkipReason `json:"reason"`
}

func (m *Month) skipped(day int, reason SkipReason) SkippedDay {
	return SkippedDay{Day: day, Date: calendar.Format(m.Key.Date(day)), Reason: reason}
}

// Merge writes entries onto mutable days and reports the ones it left alone.
// A month that is not open skips every entry. Callers apply the calendar
// first so that Sundays and holidays are already immutable.
func (m *Month) Merge(entries []DayEntry) ([]SkippedDay, error) {
	for _, e := range entries {
		if err := m.checkDay(e.Day); err != nil {
			return nil, err
		}
		if !e.Status.IsManual() {
			return nil, ErrInvalidStatus.With("", map[string]any{"day": e.Day, "status": e.Status})
		}
		if e.Status == StatusLeave && (e.LeaveType == nil || validator.IsEmpty(*e.LeaveType)) {
			return nil, ErrLeaveTypeRequired.With("", map[string]any{"day": e.Day})
		}
	}

	skipped := make([]SkippedDay, 0)
	if !m.IsOpen() {
		for _, e := range entries {
			skipped = append(skipped, m.skipped(e.Day, SkipMonthLocked))
		}
		return skipped, nil
	}

	for _, e := range entries {
		rec := m.days[e.Day-1]
		if rec.Status == StatusHoliday {
			skipped = append(skipped, m.skipped(e.Day, SkipHoliday))
			continue
		}
		if rec.Immutable {
			skipped = append(skipped, m.skipped(e.Day, SkipImmutable))
			continue
		}
		next := DayRecord{Status: e.Status}
		if e.Status == StatusLeave {
			lt := *e.LeaveType
			next.LeaveType = &lt
		}
		m.days[e.Day-1] = next
	}
	return skipped, nil
}

// ApplyLeave writes an immutable leave record for an approved application.
// It returns a non-empty reason when the day is left untouched.
func (m *Month) ApplyLeave(day int, leaveType, leaveID string) (SkipReason, error) {
	if err := m.checkDay(day); err != nil {
		return "", err
	}
	if !m.IsOpen() {
		return SkipMonthLocked, nil
	}
	rec := m.days[day-1]
	if rec.Status == StatusHoliday {
		return SkipHoliday, nil
	}
	if rec.Immutable && (rec.LeaveID == nil || *rec.LeaveID != leaveID) {
		return SkipImmutable, nil
	}
	lt, id := leaveType, leaveID
	m.days[day-1] = DayRecord{Status: StatusLeave, LeaveType: &lt, LeaveID: &id, Immutable: true}
	return "", nil
}

// Lock moves an open month to locked.
func (m *Month) Lock(actorID string, at time.Time) error {
	if !m.IsOpen() {
		return ErrAlreadyLocked.With("", map[string]any{"state": m.State()})
	}
	m.Locked = true
	m.LockedBy = &actorID
	m.LockedAt = &at
	return nil
}

// Submit moves an open month with recorded attendance to submitted.
func (m *Month) Submit(actorID string, at time.Time) error {
	if !m.IsOpen() {
		return ErrAlreadyLocked.With("", map[string]any{"state": m.State()})
	}
	if !m.HasData() {
		return ErrNoAttendanceData
	}
	m.Submitted = true
	m.SubmittedBy = &actorID
	m.SubmittedAt = &at
	return nil
}

type Counts struct {
	Present    int `json:"present"`
	FirstHalf  int `json:"firsthalf"`
	SecondHalf int `json:"secondhalf"`
	Absent     int `json:"absent"`
	Leave      int `json:"leave"`
	Holiday    int `json:"holiday"`
	Sunday     int `json:"sunday"`
	Unmarked   int `json:"unmarked"`
}

// Counts tallies statuses. A holiday falling on a Sunday counts as a Sunday.
func (m *Month) Counts() Counts {
	var c Counts
	for day := 1; day <= m.Key.DaysInMonth(); day++ {
		switch m.days[day-1].Status {
		case StatusPresent:
			c.Present++
		case StatusFirstHalf:
			c.FirstHalf++
		case StatusSecondHalf:
			c.SecondHalf++
		case StatusAbsent:
			c.Absent++
		case StatusLeave:
			c.Leave++
		case StatusHoliday:
			if calendar.IsSunday(m.Key.Date(day)) {
				c.Sunday++
			} else {
				c.Holiday++
			}
		default:
			c.Unmarked++
		}
	}
	return c
}
