package leave

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/calendar"
)

// DefaultCarryLookbackYears bounds how far back the carry-forward chain is
// replayed when computing a year's allotments.
const DefaultCarryLookbackYears = 3

// AllotmentEngine derives leave balances from allocation rows and approved
// applications. Nothing it returns is stored.
type AllotmentEngine struct {
	employee.Repository
	leave.AllocationRepository
	leave.ApplicationRepository
	lookbackYears int
}

func NewAllotmentEngine(
	employeeRepository employee.Repository,
	allocationRepository leave.AllocationRepository,
	applicationRepository leave.ApplicationRepository,
	lookbackYears int,
) *AllotmentEngine {
	if lookbackYears < 0 {
		lookbackYears = DefaultCarryLookbackYears
	}
	return &AllotmentEngine{
		Repository:            employeeRepository,
		AllocationRepository:  allocationRepository,
		ApplicationRepository: applicationRepository,
		lookbackYears:         lookbackYears,
	}
}

// Allotments returns one allotment per leave type for the employee-year, in
// leave.Codes order. Carry-forward is replayed from the later of the lookback
// horizon and the employee's join year.
func (e *AllotmentEngine) Allotments(ctx context.Context, employeeID string, year int) ([]leave.Allotment, error) {
	emp, err := e.Repository.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	first := year - e.lookbackYears
	if emp.JoinDate != nil && emp.JoinDate.Year() > first {
		first = emp.JoinDate.Year()
	}
	if first > year {
		first = year
	}

	var prev map[leave.Code]leave.Allotment
	for y := first; y <= year; y++ {
		cur, err := e.yearAllotments(ctx, emp.ID, y, prev)
		if err != nil {
			return nil, err
		}
		prev = cur
	}

	out := make([]leave.Allotment, 0, len(leave.Codes))
	for _, code := range leave.Codes {
		out = append(out, prev[code])
	}
	return out, nil
}

func (e *AllotmentEngine) yearAllotments(ctx context.Context, employeeID string, year int, prev map[leave.Code]leave.Allotment) (map[leave.Code]leave.Allotment, error) {
	rows, err := e.AllocationRepository.GetByEmployeeYear(ctx, employeeID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to get leave allocations for %d: %w", year, err)
	}
	allocations := make(map[leave.Code]leave.Allocation, len(rows))
	for _, row := range rows {
		allocations[row.LeaveType] = row
	}

	start, end := calendar.YearBounds(year)
	approved, err := e.ApplicationRepository.ListApprovedInRange(ctx, employeeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to get approved leave for %d: %w", year, err)
	}
	used := make(map[leave.Code]float64)
	for _, app := range approved {
		used[app.LeaveType] += app.DaysInYear(year)
	}

	out := make(map[leave.Code]leave.Allotment, len(leave.Codes))
	for _, code := range leave.Codes {
		policy := leave.DefaultPolicies[code]
		base, unlimited := policy.YearlyAllocation, policy.Unlimited
		if row, ok := allocations[code]; ok {
			unlimited = row.IsUnlimited()
			if !unlimited {
				base = row.Days
			}
		}

		a := leave.Allotment{
			Code: code,
			Name: policy.Name,
			Used: used[code],
		}
		if unlimited {
			a.Unlimited = true
			a.Allocated = leave.Unlimited
			a.Remaining = leave.Unlimited
			out[code] = a
			continue
		}

		if policy.CarryForward {
			if p, ok := prev[code]; ok && !p.Unlimited && p.Remaining > 0 {
				a.Carried = min(p.Remaining, policy.CarryCap)
				from := year - 1
				a.CarryFromYear = &from
			}
		}
		a.Allocated = base + a.Carried
		a.Remaining = a.Allocated - a.Used
		a.Disabled = a.Remaining <= 0
		out[code] = a
	}
	return out, nil
}

// CheckBalance verifies that every year touched by app has enough remaining
// balance of app's leave type. app itself must not yet be approved.
func (e *AllotmentEngine) CheckBalance(ctx context.Context, app leave.Application) error {
	for _, year := range app.Years() {
		need := app.DaysInYear(year)
		if need == 0 {
			continue
		}
		allotments, err := e.Allotments(ctx, app.EmployeeID, year)
		if err != nil {
			return err
		}
		for _, a := range allotments {
			if a.Code != app.LeaveType {
				continue
			}
			if !a.Covers(need) {
				return leave.ErrInsufficientBalance.With(
					fmt.Sprintf("insufficient %s balance for %d: requested %g, remaining %g", app.LeaveType, year, need, a.Remaining),
					map[string]any{
						"leave_type": app.LeaveType,
						"year":       year,
						"requested":  need,
						"remaining":  a.Remaining,
					},
				)
			}
		}
	}
	return nil
}
