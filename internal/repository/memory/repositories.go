package memory

import (
	"context"
	"errors"
	"slices"
	"sort"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/holiday"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/user"
)

var errNoTransaction = errors.New("aggregate lock requires an open transaction")

// ========================================
// ATTENDANCE
// ========================================

type attendanceRepository struct{ s *Store }

func NewAttendanceRepository(s *Store) attendance.AttendanceRepository {
	return &attendanceRepository{s: s}
}

func (r *attendanceRepository) GetByKey(ctx context.Context, key attendance.MonthKey) (*attendance.Month, error) {
	r.s.mu.RLock()
	sm, ok := r.s.d.months[monthKey{key.EmployeeID, key.Year, key.Month}]
	r.s.mu.RUnlock()
	if !ok {
		return nil, attendance.ErrAttendanceNotFound
	}

	m := attendance.NewMonth(key)
	if err := m.DecodeDays(sm.days); err != nil {
		return nil, err
	}
	m.Locked, m.LockedBy, m.LockedAt = sm.locked, sm.lockedBy, sm.lockedAt
	m.Submitted, m.SubmittedBy, m.SubmittedAt = sm.submitted, sm.submittedBy, sm.submittedAt
	m.CreatedAt, m.UpdatedAt = sm.createdAt, sm.updatedAt
	return m, nil
}

func (r *attendanceRepository) Save(ctx context.Context, m *attendance.Month) error {
	raw, err := m.EncodeDays()
	if err != nil {
		return err
	}
	k := monthKey{m.Key.EmployeeID, m.Key.Year, m.Key.Month}
	now := time.Now()

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	created := now
	prev, existed := r.s.d.months[k]
	if existed {
		created = prev.createdAt
	}
	recordUndo(ctx, func(d *data) {
		if existed {
			d.months[k] = prev
		} else {
			delete(d.months, k)
		}
	})
	r.s.d.months[k] = storedMonth{
		days:        raw,
		locked:      m.Locked,
		lockedBy:    m.LockedBy,
		lockedAt:    m.LockedAt,
		submitted:   m.Submitted,
		submittedBy: m.SubmittedBy,
		submittedAt: m.SubmittedAt,
		createdAt:   created,
		updatedAt:   now,
	}
	m.CreatedAt, m.UpdatedAt = created, now
	return nil
}

// ========================================
// HOLIDAYS
// ========================================

type holidayDirectory struct{ s *Store }

func NewHolidayDirectory(s *Store) holiday.Directory {
	return &holidayDirectory{s: s}
}

func (h *holidayDirectory) GetHolidaysForMonth(ctx context.Context, year, month int) ([]holiday.Holiday, error) {
	h.s.mu.RLock()
	defer h.s.mu.RUnlock()
	var out []holiday.Holiday
	for _, hol := range h.s.d.holidays {
		if hol.Date.Year() == year && int(hol.Date.Month()) == month {
			out = append(out, hol)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// ========================================
// EMPLOYEES AND ROLES
// ========================================

type employeeRepository struct{ s *Store }

func NewEmployeeRepository(s *Store) employee.Repository {
	return &employeeRepository{s: s}
}

func (r *employeeRepository) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	emp, ok := r.s.d.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return emp, nil
}

func (r *employeeRepository) GetReportingPersons(ctx context.Context, employeeID string) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if _, ok := r.s.d.employees[employeeID]; !ok {
		return nil, employee.ErrEmployeeNotFound
	}
	return slices.Clone(r.s.d.reporting[employeeID]), nil
}

func (r *employeeRepository) GetReportees(ctx context.Context, approverID string) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]string, 0)
	for empID, approvers := range r.s.d.reporting {
		if slices.Contains(approvers, approverID) {
			out = append(out, empID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *employeeRepository) ListActiveIDs(ctx context.Context) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []string
	for id, emp := range r.s.d.employees {
		if emp.Active {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

type roleRepository struct{ s *Store }

func NewRoleRepository(s *Store) user.RoleRepository {
	return &roleRepository{s: s}
}

func (r *roleRepository) GetRole(ctx context.Context, actorID string) (user.Role, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if role, ok := r.s.d.roles[actorID]; ok {
		return role, nil
	}
	return user.RoleEmployee, nil
}

// ========================================
// LEAVE
// ========================================

type applicationRepository struct{ s *Store }

func NewApplicationRepository(s *Store) leave.ApplicationRepository {
	return &applicationRepository{s: s}
}

func (r *applicationRepository) Create(ctx context.Context, app leave.Application) (leave.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	app.CreatedAt, app.UpdatedAt = now, now
	prev, existed := r.s.d.applications[app.ID]
	recordUndo(ctx, func(d *data) {
		if existed {
			d.applications[app.ID] = prev
		} else {
			delete(d.applications, app.ID)
		}
	})
	r.s.d.applications[app.ID] = app
	return app, nil
}

func (r *applicationRepository) GetByID(ctx context.Context, id string) (leave.Application, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	app, ok := r.s.d.applications[id]
	if !ok {
		return leave.Application{}, leave.ErrApplicationNotFound
	}
	return app, nil
}

func (r *applicationRepository) UpdateDecision(ctx context.Context, app leave.Application) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.d.applications[app.ID]
	if !ok {
		return leave.ErrApplicationNotFound
	}
	if cur.Status != leave.StatusPending {
		return leave.ErrAlreadyDecided
	}
	app.UpdatedAt = time.Now()
	recordUndo(ctx, func(d *data) { d.applications[cur.ID] = cur })
	r.s.d.applications[app.ID] = app
	return nil
}

func (r *applicationRepository) filter(match func(leave.Application) bool) []leave.Application {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []leave.Application
	for _, app := range r.s.d.applications {
		if match(app) {
			out = append(out, app)
		}
	}
	return out
}

func (r *applicationRepository) ListOverlapping(ctx context.Context, employeeID string, start, end time.Time) ([]leave.Application, error) {
	out := r.filter(func(a leave.Application) bool {
		return a.EmployeeID == employeeID && a.Status != leave.StatusRejected && a.Overlaps(start, end)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (r *applicationRepository) ListApprovedInRange(ctx context.Context, employeeID string, start, end time.Time) ([]leave.Application, error) {
	out := r.filter(func(a leave.Application) bool {
		return a.EmployeeID == employeeID && a.Status == leave.StatusApproved && a.Overlaps(start, end)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (r *applicationRepository) ListByEmployee(ctx context.Context, employeeID string, f leave.ApplicationFilter) ([]leave.Application, int64, error) {
	out := r.filter(func(a leave.Application) bool {
		if a.EmployeeID != employeeID {
			return false
		}
		if f.Status != nil && string(a.Status) != *f.Status {
			return false
		}
		if f.LeaveType != nil && string(a.LeaveType) != *f.LeaveType {
			return false
		}
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].AppliedAt.After(out[j].AppliedAt) })
	total := int64(len(out))
	return paginate(out, f.Page, f.Limit), total, nil
}

func (r *applicationRepository) ListPending(ctx context.Context, f leave.PendingApprovalFilter) ([]leave.Application, int64, error) {
	out := r.filter(func(a leave.Application) bool {
		if a.Status != leave.StatusPending {
			return false
		}
		if f.EmployeeIDs != nil && !slices.Contains(f.EmployeeIDs, a.EmployeeID) {
			return false
		}
		if f.EmployeeID != nil && a.EmployeeID != *f.EmployeeID {
			return false
		}
		if f.LeaveType != nil && string(a.LeaveType) != *f.LeaveType {
			return false
		}
		if f.FromDate != nil && a.EndDate.Before(*f.FromDate) {
			return false
		}
		if f.ToDate != nil && a.StartDate.After(*f.ToDate) {
			return false
		}
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].AppliedAt.Before(out[j].AppliedAt) })
	total := int64(len(out))
	return paginate(out, f.Page, f.Limit), total, nil
}

func paginate(apps []leave.Application, page, limit int) []leave.Application {
	if limit <= 0 {
		return apps
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(apps) {
		return []leave.Application{}
	}
	end := min(start+limit, len(apps))
	return apps[start:end]
}

type allocationRepository struct{ s *Store }

func NewAllocationRepository(s *Store) leave.AllocationRepository {
	return &allocationRepository{s: s}
}

func (r *allocationRepository) GetByEmployeeYear(ctx context.Context, employeeID string, year int) ([]leave.Allocation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []leave.Allocation
	for k, a := range r.s.d.allocations {
		if k.employeeID == employeeID && k.year == year {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LeaveType < out[j].LeaveType })
	return out, nil
}

// ========================================
// PAYROLL
// ========================================

type salaryStructureRepository struct{ s *Store }

func NewSalaryStructureRepository(s *Store) payroll.SalaryStructureRepository {
	return &salaryStructureRepository{s: s}
}

func (r *salaryStructureRepository) GetByEmployeeID(ctx context.Context, employeeID string) (payroll.SalaryStructure, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ss, ok := r.s.d.salaries[employeeID]
	if !ok {
		return payroll.SalaryStructure{}, payroll.ErrSalaryStructureNotFound
	}
	return ss, nil
}

type generatedSalaryRepository struct{ s *Store }

func NewGeneratedSalaryRepository(s *Store) payroll.GeneratedSalaryRepository {
	return &generatedSalaryRepository{s: s}
}

func (r *generatedSalaryRepository) Upsert(ctx context.Context, gs payroll.GeneratedSalary) (payroll.GeneratedSalary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := monthKey{gs.EmployeeID, gs.Year, gs.Month}
	prev, existed := r.s.d.generated[k]
	if existed {
		gs.ID = prev.ID
	}
	recordUndo(ctx, func(d *data) {
		if existed {
			d.generated[k] = prev
		} else {
			delete(d.generated, k)
		}
	})
	r.s.d.generated[k] = gs
	return gs, nil
}

func (r *generatedSalaryRepository) GetByKey(ctx context.Context, employeeID string, month, year int) (payroll.GeneratedSalary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	gs, ok := r.s.d.generated[monthKey{employeeID, year, month}]
	if !ok {
		return payroll.GeneratedSalary{}, payroll.ErrGeneratedSalaryNotFound
	}
	return gs, nil
}
