package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/holiday"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/events"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/metrics"
)

type AttendanceServiceImpl struct {
	tx database.TxManager
	attendance.AttendanceRepository
	holiday.Directory
	user.RoleRepository
	publisher events.Publisher
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewAttendanceService(
	tx database.TxManager,
	attendanceRepository attendance.AttendanceRepository,
	holidayDirectory holiday.Directory,
	roleRepository user.RoleRepository,
	publisher events.Publisher,
	m *metrics.Metrics,
) *AttendanceServiceImpl {
	return &AttendanceServiceImpl{
		tx:                   tx,
		AttendanceRepository: attendanceRepository,
		Directory:            holidayDirectory,
		RoleRepository:       roleRepository,
		publisher:            publisher,
		metrics:              m,
		now:                  time.Now,
	}
}

// HolidaySet loads the month's holidays. The directory is read on every call.
func HolidaySet(ctx context.Context, dir holiday.Directory, year, month int) (holiday.Set, error) {
	holidays, err := dir.GetHolidaysForMonth(ctx, year, month)
	if err != nil {
		return nil, fmt.Errorf("failed to get holidays for %04d-%02d: %w", year, month, err)
	}
	return holiday.NewSet(holidays), nil
}

// loadOrNew returns the stored month or a fresh open one, with the calendar applied.
func (a *AttendanceServiceImpl) loadOrNew(ctx context.Context, key attendance.MonthKey, holidays holiday.Set) (*attendance.Month, error) {
	m, err := a.AttendanceRepository.GetByKey(ctx, key)
	if err != nil {
		if !errors.Is(err, attendance.ErrAttendanceNotFound) {
			return nil, fmt.Errorf("failed to get attendance month: %w", err)
		}
		m = attendance.NewMonth(key)
	}
	m.ApplyCalendar(holidays)
	return m, nil
}

// GetAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetAttendance(ctx context.Context, req attendance.GetAttendanceRequest) (attendance.AttendanceMonthResponse, error) {
	key, err := attendance.NewMonthKey(req.EmployeeID, req.Month, req.Year)
	if err != nil {
		return attendance.AttendanceMonthResponse{}, err
	}

	holidays, err := HolidaySet(ctx, a.Directory, key.Year, key.Month)
	if err != nil {
		return attendance.AttendanceMonthResponse{}, err
	}

	m, err := a.loadOrNew(ctx, key, holidays)
	if err != nil {
		return attendance.AttendanceMonthResponse{}, err
	}
	return attendance.NewAttendanceMonthResponse(m), nil
}

// LoadMonth implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) LoadMonth(ctx context.Context, key attendance.MonthKey) (*attendance.Month, error) {
	m, err := a.AttendanceRepository.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	holidays, err := HolidaySet(ctx, a.Directory, key.Year, key.Month)
	if err != nil {
		return nil, err
	}
	m.ApplyCalendar(holidays)
	return m, nil
}

// MarkDay implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) MarkDay(ctx context.Context, req attendance.MarkDayRequest) (attendance.DayRecord, error) {
	if err := req.Validate(); err != nil {
		return attendance.DayRecord{}, err
	}
	if req.LeaveType != nil {
		if _, err := leave.ParseCode(*req.LeaveType); err != nil {
			return attendance.DayRecord{}, err
		}
	}
	key, _ := attendance.NewMonthKey(req.EmployeeID, req.Month, req.Year)
	if err := a.authorizeWrite(ctx, key, req.ActorID); err != nil {
		return attendance.DayRecord{}, err
	}

	holidays, err := HolidaySet(ctx, a.Directory, key.Year, key.Month)
	if err != nil {
		return attendance.DayRecord{}, err
	}

	var rec attendance.DayRecord
	err = a.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := a.tx.LockAggregate(ctx, key.LockKey()); err != nil {
			return err
		}
		m, err := a.loadOrNew(ctx, key, holidays)
		if err != nil {
			return err
		}
		rec, err = m.Mark(req.Day, req.LeaveType)
		if err != nil {
			return err
		}
		if err := a.AttendanceRepository.Save(ctx, m); err != nil {
			return fmt.Errorf("failed to save attendance month: %w", err)
		}
		return nil
	})
	if err != nil {
		return attendance.DayRecord{}, err
	}

	a.metrics.AttendanceMutation("mark")
	return rec, nil
}

// UpsertAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) UpsertAttendance(ctx context.Context, req attendance.UpsertAttendanceRequest) (attendance.UpsertAttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.UpsertAttendanceResponse{}, err
	}
	for _, d := range req.Days {
		if d.LeaveType == nil {
			continue
		}
		if _, err := leave.ParseCode(*d.LeaveType); err != nil {
			return attendance.UpsertAttendanceResponse{}, err
		}
	}
	key, _ := attendance.NewMonthKey(req.EmployeeID, req.Month, req.Year)
	submit := req.Submitted != nil && *req.Submitted
	if err := a.authorizeWrite(ctx, key, req.ActorID); err != nil {
		return attendance.UpsertAttendanceResponse{}, err
	}

	holidays, err := HolidaySet(ctx, a.Directory, key.Year, key.Month)
	if err != nil {
		return attendance.UpsertAttendanceResponse{}, err
	}

	var (
		month     *attendance.Month
		skipped   []attendance.SkippedDay
		submitted bool
	)
	err = a.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := a.tx.LockAggregate(ctx, key.LockKey()); err != nil {
			return err
		}
		m, err := a.loadOrNew(ctx, key, holidays)
		if err != nil {
			return err
		}
		wasOpen := m.IsOpen()

		skipped, err = m.Merge(req.Entries())
		if err != nil {
			return err
		}
		if submit && wasOpen {
			if err := m.Submit(req.ActorID, a.now()); err != nil {
				return err
			}
			submitted = true
		}
		month = m
		if !wasOpen {
			return nil
		}
		if err := a.AttendanceRepository.Save(ctx, m); err != nil {
			return fmt.Errorf("failed to save attendance month: %w", err)
		}
		return nil
	})
	if err != nil {
		return attendance.UpsertAttendanceResponse{}, err
	}

	a.metrics.AttendanceMutation("upsert")
	if submitted {
		a.metrics.AttendanceMutation("submit")
		a.publish(ctx, key, "attendance.submitted", month)
	}
	if len(skipped) > 0 {
		slog.Info("attendance upsert skipped days", "employee_id", key.EmployeeID, "month", key.Month, "year", key.Year, "skipped", len(skipped))
	}

	return attendance.UpsertAttendanceResponse{
		OK:          true,
		SkippedDays: skipped,
		Attendance:  attendance.NewAttendanceMonthResponse(month),
	}, nil
}

// LockAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) LockAttendance(ctx context.Context, req attendance.LockAttendanceRequest) (attendance.AttendanceMonthResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceMonthResponse{}, err
	}
	key, _ := attendance.NewMonthKey(req.EmployeeID, req.Month, req.Year)

	role, err := a.RoleRepository.GetRole(ctx, req.ActorID)
	if err != nil {
		return attendance.AttendanceMonthResponse{}, fmt.Errorf("failed to get actor role: %w", err)
	}
	if !role.IsAdministrative() {
		return attendance.AttendanceMonthResponse{}, attendance.ErrLockNotPermitted
	}

	month, err := a.transition(ctx, key, func(m *attendance.Month) error {
		return m.Lock(req.ActorID, a.now())
	})
	if err != nil {
		return attendance.AttendanceMonthResponse{}, err
	}

	a.metrics.AttendanceMutation("lock")
	a.publish(ctx, key, "attendance.locked", month)
	return attendance.NewAttendanceMonthResponse(month), nil
}

// SubmitAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) SubmitAttendance(ctx context.Context, req attendance.SubmitAttendanceRequest) (attendance.AttendanceMonthResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceMonthResponse{}, err
	}
	key, _ := attendance.NewMonthKey(req.EmployeeID, req.Month, req.Year)

	if err := a.authorizeWrite(ctx, key, req.ActorID); err != nil {
		return attendance.AttendanceMonthResponse{}, err
	}

	month, err := a.transition(ctx, key, func(m *attendance.Month) error {
		return m.Submit(req.ActorID, a.now())
	})
	if err != nil {
		return attendance.AttendanceMonthResponse{}, err
	}

	a.metrics.AttendanceMutation("submit")
	a.publish(ctx, key, "attendance.submitted", month)
	return attendance.NewAttendanceMonthResponse(month), nil
}

// transition applies a lifecycle change to the month under its aggregate lock.
func (a *AttendanceServiceImpl) transition(ctx context.Context, key attendance.MonthKey, apply func(*attendance.Month) error) (*attendance.Month, error) {
	holidays, err := HolidaySet(ctx, a.Directory, key.Year, key.Month)
	if err != nil {
		return nil, err
	}

	var month *attendance.Month
	err = a.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := a.tx.LockAggregate(ctx, key.LockKey()); err != nil {
			return err
		}
		m, err := a.loadOrNew(ctx, key, holidays)
		if err != nil {
			return err
		}
		if err := apply(m); err != nil {
			return err
		}
		if err := a.AttendanceRepository.Save(ctx, m); err != nil {
			return fmt.Errorf("failed to save attendance month: %w", err)
		}
		month = m
		return nil
	})
	return month, err
}

// authorizeWrite allows the employee themself or an administrator.
func (a *AttendanceServiceImpl) authorizeWrite(ctx context.Context, key attendance.MonthKey, actorID string) error {
	if actorID == key.EmployeeID {
		return nil
	}
	role, err := a.RoleRepository.GetRole(ctx, actorID)
	if err != nil {
		return fmt.Errorf("failed to get actor role: %w", err)
	}
	if !role.IsAdministrative() {
		return attendance.ErrLockNotPermitted
	}
	return nil
}

type monthEvent struct {
	EmployeeID string                `json:"employee_id"`
	Month      int                   `json:"month"`
	Year       int                   `json:"year"`
	State      attendance.MonthState `json:"state"`
	ActorID    *string               `json:"actor_id,omitempty"`
	At         *time.Time            `json:"at,omitempty"`
	Counts     attendance.Counts     `json:"counts"`
}

func (a *AttendanceServiceImpl) publish(ctx context.Context, key attendance.MonthKey, eventType string, m *attendance.Month) {
	ev := monthEvent{
		EmployeeID: key.EmployeeID,
		Month:      key.Month,
		Year:       key.Year,
		State:      m.State(),
		Counts:     m.Counts(),
	}
	if m.Submitted {
		ev.ActorID, ev.At = m.SubmittedBy, m.SubmittedAt
	} else {
		ev.ActorID, ev.At = m.LockedBy, m.LockedAt
	}
	if err := a.publisher.Publish(ctx, events.TopicAttendanceLocked, key.EmployeeID, eventType, ev); err != nil {
		slog.Warn("failed to publish attendance event", "event_type", eventType, "employee_id", key.EmployeeID, "error", err)
	}
}
