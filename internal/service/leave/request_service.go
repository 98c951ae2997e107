package leave

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/holiday"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/calendar"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
	"github.com/google/uuid"
)

type RequestService struct {
	tx database.TxManager
	leave.ApplicationRepository
	attendance.AttendanceRepository
	holiday.Directory
	employees  employee.Repository
	engine     *AllotmentEngine
	authorizer *Authorizer
	now        func() time.Time
}

func NewRequestService(
	tx database.TxManager,
	applicationRepository leave.ApplicationRepository,
	attendanceRepository attendance.AttendanceRepository,
	holidayDirectory holiday.Directory,
	employeeRepository employee.Repository,
	engine *AllotmentEngine,
	authorizer *Authorizer,
) *RequestService {
	return &RequestService{
		tx:                    tx,
		ApplicationRepository: applicationRepository,
		AttendanceRepository:  attendanceRepository,
		Directory:             holidayDirectory,
		employees:             employeeRepository,
		engine:                engine,
		authorizer:            authorizer,
		now:                   time.Now,
	}
}

func (r *RequestService) today() time.Time {
	return calendar.DateOnly(r.now())
}

func parseRange(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := calendar.ParseDate(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("failed to parse start date: %w", err)
	}
	end, err := calendar.ParseDate(endStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("failed to parse end date: %w", err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, leave.ErrInvalidDateRange.With("", map[string]any{
			"start_date": startStr,
			"end_date":   endStr,
		})
	}
	return start, end, nil
}

// holidaySets loads the holiday calendar of every month in [start, end].
func (r *RequestService) holidaySets(ctx context.Context, start, end time.Time) (map[calendar.YearMonth]holiday.Set, error) {
	sets := make(map[calendar.YearMonth]holiday.Set)
	for _, ym := range calendar.MonthsBetween(start, end) {
		holidays, err := r.Directory.GetHolidaysForMonth(ctx, ym.Year, ym.Month)
		if err != nil {
			return nil, fmt.Errorf("failed to get holidays for %04d-%02d: %w", ym.Year, ym.Month, err)
		}
		sets[ym] = holiday.NewSet(holidays)
	}
	return sets, nil
}

// nonWorkingDays lists every Sunday and holiday in [start, end].
func nonWorkingDays(start, end time.Time, sets map[calendar.YearMonth]holiday.Set) []leave.InvalidDate {
	invalid := make([]leave.InvalidDate, 0)
	calendar.EachDay(start, end, func(d time.Time) bool {
		set := sets[calendar.YearMonth{Year: d.Year(), Month: int(d.Month())}]
		if name, ok := set.Name(d.Day()); ok {
			n := name
			invalid = append(invalid, leave.InvalidDate{Date: calendar.Format(d), Reason: "holiday:" + name, HolidayName: &n})
		} else if calendar.IsSunday(d) {
			invalid = append(invalid, leave.InvalidDate{Date: calendar.Format(d), Reason: "sunday"})
		}
		return true
	})
	return invalid
}

// Apply creates a pending application after the range, overlap, calendar and
// balance checks, in that order.
func (r *RequestService) Apply(ctx context.Context, req leave.ApplyLeaveRequest) (leave.Application, error) {
	if err := req.Validate(); err != nil {
		return leave.Application{}, err
	}
	code, err := leave.ParseCode(req.LeaveType)
	if err != nil {
		return leave.Application{}, err
	}
	start, end, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		return leave.Application{}, err
	}
	if start.Before(r.today()) {
		return leave.Application{}, leave.ErrRetroactiveLeave.With("", map[string]any{
			"start_date": req.StartDate,
			"today":      calendar.Format(r.today()),
		})
	}

	if _, err := r.employees.GetByID(ctx, req.EmployeeID); err != nil {
		return leave.Application{}, err
	}
	if err := r.authorizer.CanApplyFor(ctx, req.AppliedBy, req.EmployeeID); err != nil {
		return leave.Application{}, err
	}
	sets, err := r.holidaySets(ctx, start, end)
	if err != nil {
		return leave.Application{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return leave.Application{}, fmt.Errorf("failed to generate application id: %w", err)
	}
	app := leave.Application{
		ID:         id.String(),
		EmployeeID: req.EmployeeID,
		LeaveType:  code,
		StartDate:  start,
		EndDate:    end,
		Days:       float64(calendar.InclusiveDays(start, end)),
		Status:     leave.StatusPending,
		Remark:     req.Remark,
		AppliedBy:  req.AppliedBy,
		AppliedAt:  r.now(),
	}

	var created leave.Application
	err = r.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := r.tx.LockAggregate(ctx, leave.LockKey(app.EmployeeID)); err != nil {
			return err
		}

		overlapping, err := r.ApplicationRepository.ListOverlapping(ctx, app.EmployeeID, start, end)
		if err != nil {
			return fmt.Errorf("failed to check overlapping leave: %w", err)
		}
		if len(overlapping) > 0 {
			o := overlapping[0]
			return leave.ErrOverlappingLeave.With(
				fmt.Sprintf("leave overlaps %s application from %s to %s", o.Status, calendar.Format(o.StartDate), calendar.Format(o.EndDate)),
				map[string]any{
					"application_id": o.ID,
					"status":         o.Status,
					"start_date":     calendar.Format(o.StartDate),
					"end_date":       calendar.Format(o.EndDate),
				},
			)
		}

		if invalid := nonWorkingDays(start, end, sets); len(invalid) > 0 {
			return leave.ErrNonWorkingDays.With("", map[string]any{"invalid_dates": invalid})
		}

		if err := r.engine.CheckBalance(ctx, app); err != nil {
			return err
		}

		created, err = r.ApplicationRepository.Create(ctx, app)
		if err != nil {
			return fmt.Errorf("failed to create leave application: %w", err)
		}
		return nil
	})
	if err != nil {
		return leave.Application{}, err
	}
	return created, nil
}

// ValidateDates reports the non-working days of a prospective range.
func (r *RequestService) ValidateDates(ctx context.Context, req leave.ValidateDatesRequest) (leave.ValidateDatesResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.ValidateDatesResponse{}, err
	}
	start, end, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		return leave.ValidateDatesResponse{}, err
	}
	if req.EmployeeID != nil {
		if _, err := r.employees.GetByID(ctx, *req.EmployeeID); err != nil {
			return leave.ValidateDatesResponse{}, err
		}
	}
	sets, err := r.holidaySets(ctx, start, end)
	if err != nil {
		return leave.ValidateDatesResponse{}, err
	}
	invalid := nonWorkingDays(start, end, sets)
	return leave.ValidateDatesResponse{Valid: len(invalid) == 0, InvalidDates: invalid}, nil
}

// Approve decides a pending application and writes its days into attendance.
// Days in locked or submitted months, and days that became holidays after the
// application was made, are reported as skipped.
func (r *RequestService) Approve(ctx context.Context, req leave.ApproveLeaveRequest) (leave.ApprovalResult, error) {
	if err := req.Validate(); err != nil {
		return leave.ApprovalResult{}, err
	}

	app, err := r.ApplicationRepository.GetByID(ctx, req.ApplicationID)
	if err != nil {
		return leave.ApprovalResult{}, err
	}
	if err := r.authorizer.CanDecide(ctx, req.ActorID, app.EmployeeID); err != nil {
		return leave.ApprovalResult{}, err
	}
	sets, err := r.holidaySets(ctx, app.StartDate, app.EndDate)
	if err != nil {
		return leave.ApprovalResult{}, err
	}

	result := leave.ApprovalResult{
		AppliedDays: make([]string, 0),
		SkippedDays: make([]attendance.SkippedDay, 0),
	}
	err = r.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := r.tx.LockAggregate(ctx, leave.LockKey(app.EmployeeID)); err != nil {
			return err
		}

		fresh, err := r.ApplicationRepository.GetByID(ctx, app.ID)
		if err != nil {
			return err
		}
		if fresh.IsTerminal() {
			return leave.ErrAlreadyDecided.With("", map[string]any{"status": fresh.Status})
		}
		if err := r.engine.CheckBalance(ctx, fresh); err != nil {
			return err
		}

		at := r.now()
		fresh.Status = leave.StatusApproved
		fresh.DecidedBy = &req.ActorID
		fresh.DecidedAt = &at
		fresh.ApproverRemark = req.Remark
		if err := r.ApplicationRepository.UpdateDecision(ctx, fresh); err != nil {
			return err
		}

		if err := r.writeAttendance(ctx, fresh, sets, &result); err != nil {
			return err
		}
		result.Application = fresh
		return nil
	})
	if err != nil {
		return leave.ApprovalResult{}, err
	}
	return result, nil
}

// writeAttendance stamps every day of app into its attendance months. Months
// are visited in ascending order under their aggregate locks.
func (r *RequestService) writeAttendance(ctx context.Context, app leave.Application, sets map[calendar.YearMonth]holiday.Set, result *leave.ApprovalResult) error {
	for _, ym := range calendar.MonthsBetween(app.StartDate, app.EndDate) {
		key, err := attendance.NewMonthKey(app.EmployeeID, ym.Month, ym.Year)
		if err != nil {
			return err
		}
		if err := r.tx.LockAggregate(ctx, key.LockKey()); err != nil {
			return err
		}

		m, err := r.AttendanceRepository.GetByKey(ctx, key)
		if err != nil {
			if !errors.Is(err, attendance.ErrAttendanceNotFound) {
				return fmt.Errorf("failed to get attendance month: %w", err)
			}
			m = attendance.NewMonth(key)
		}
		m.ApplyCalendar(sets[ym])

		monthStart := calendar.Date(ym.Year, ym.Month, 1)
		monthEnd := calendar.Date(ym.Year, ym.Month, key.DaysInMonth())
		from, to, _ := calendar.Intersect(app.StartDate, app.EndDate, monthStart, monthEnd)

		changed := false
		var applyErr error
		calendar.EachDay(from, to, func(d time.Time) bool {
			reason, err := m.ApplyLeave(d.Day(), string(app.LeaveType), app.ID)
			if err != nil {
				applyErr = err
				return false
			}
			if reason != "" {
				result.SkippedDays = append(result.SkippedDays, attendance.SkippedDay{Day: d.Day(), Date: calendar.Format(d), Reason: reason})
				return true
			}
			result.AppliedDays = append(result.AppliedDays, calendar.Format(d))
			changed = true
			return true
		})
		if applyErr != nil {
			return applyErr
		}
		if !changed {
			continue
		}
		if err := r.AttendanceRepository.Save(ctx, m); err != nil {
			return fmt.Errorf("failed to save attendance month: %w", err)
		}
	}
	return nil
}

// Reject decides a pending application without touching attendance.
func (r *RequestService) Reject(ctx context.Context, req leave.RejectLeaveRequest) (leave.Application, error) {
	if err := req.Validate(); err != nil {
		return leave.Application{}, err
	}

	app, err := r.ApplicationRepository.GetByID(ctx, req.ApplicationID)
	if err != nil {
		return leave.Application{}, err
	}
	if err := r.authorizer.CanDecide(ctx, req.ActorID, app.EmployeeID); err != nil {
		return leave.Application{}, err
	}

	var rejected leave.Application
	err = r.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := r.tx.LockAggregate(ctx, leave.LockKey(app.EmployeeID)); err != nil {
			return err
		}
		fresh, err := r.ApplicationRepository.GetByID(ctx, app.ID)
		if err != nil {
			return err
		}
		if fresh.IsTerminal() {
			return leave.ErrAlreadyDecided.With("", map[string]any{"status": fresh.Status})
		}

		at := r.now()
		reason := req.Reason
		fresh.Status = leave.StatusRejected
		fresh.DecidedBy = &req.ActorID
		fresh.DecidedAt = &at
		fresh.RejectionReason = &reason
		if err := r.ApplicationRepository.UpdateDecision(ctx, fresh); err != nil {
			return err
		}
		rejected = fresh
		return nil
	})
	if err != nil {
		return leave.Application{}, err
	}
	return rejected, nil
}
