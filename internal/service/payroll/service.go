package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/apperror"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/events"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/metrics"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DefaultBatchConcurrency bounds the number of employees processed at once by
// RunPayrollBatch.
const DefaultBatchConcurrency = 8

type PayrollServiceImpl struct {
	attendanceService attendance.AttendanceService
	payroll.SalaryStructureRepository
	payroll.GeneratedSalaryRepository
	employees   employee.Repository
	publisher   events.Publisher
	metrics     *metrics.Metrics
	concurrency int
	now         func() time.Time
}

func NewPayrollService(
	attendanceService attendance.AttendanceService,
	salaryStructureRepository payroll.SalaryStructureRepository,
	generatedSalaryRepository payroll.GeneratedSalaryRepository,
	employeeRepository employee.Repository,
	publisher events.Publisher,
	m *metrics.Metrics,
) *PayrollServiceImpl {
	return &PayrollServiceImpl{
		attendanceService:         attendanceService,
		SalaryStructureRepository: salaryStructureRepository,
		GeneratedSalaryRepository: generatedSalaryRepository,
		employees:                 employeeRepository,
		publisher:                 publisher,
		metrics:                   m,
		concurrency:               DefaultBatchConcurrency,
		now:                       time.Now,
	}
}

// RunPayroll implements payroll.PayrollService. It needs a locked or
// submitted attendance month and a salary structure. A rerun replaces the
// earlier result for the same period.
func (s *PayrollServiceImpl) RunPayroll(ctx context.Context, req payroll.RunPayrollRequest) (payroll.GeneratedSalary, error) {
	if err := req.Validate(); err != nil {
		return payroll.GeneratedSalary{}, err
	}

	salary, err := s.run(ctx, req.EmployeeID, req.Month, req.Year)
	if err != nil {
		s.metrics.PayrollRun("failed")
		return payroll.GeneratedSalary{}, err
	}
	s.metrics.PayrollRun("generated")
	return salary, nil
}

func (s *PayrollServiceImpl) run(ctx context.Context, employeeID string, month, year int) (payroll.GeneratedSalary, error) {
	key, err := attendance.NewMonthKey(employeeID, month, year)
	if err != nil {
		return payroll.GeneratedSalary{}, err
	}

	m, err := s.attendanceService.LoadMonth(ctx, key)
	if err != nil {
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			return payroll.GeneratedSalary{}, payroll.ErrAttendanceNotFinalized.With("", map[string]any{
				"employee_id": employeeID, "month": month, "year": year,
			})
		}
		return payroll.GeneratedSalary{}, fmt.Errorf("failed to load attendance: %w", err)
	}
	if m.IsOpen() {
		return payroll.GeneratedSalary{}, payroll.ErrAttendanceNotFinalized.With("", map[string]any{
			"employee_id": employeeID, "month": month, "year": year, "state": m.State(),
		})
	}

	structure, err := s.SalaryStructureRepository.GetByEmployeeID(ctx, employeeID)
	if err != nil {
		return payroll.GeneratedSalary{}, err
	}

	result := Calculate(structure, Snapshot(key.DaysInMonth(), m.Counts()))
	result.EmployeeID = employeeID
	result.Month = month
	result.Year = year
	result.GeneratedAt = s.now()

	id, err := uuid.NewV7()
	if err != nil {
		return payroll.GeneratedSalary{}, fmt.Errorf("failed to generate salary id: %w", err)
	}
	result.ID = id.String()

	saved, err := s.GeneratedSalaryRepository.Upsert(ctx, result)
	if err != nil {
		return payroll.GeneratedSalary{}, fmt.Errorf("failed to save generated salary: %w", err)
	}

	if err := s.publisher.Publish(ctx, events.TopicPayrollGenerated, employeeID, "payroll.generated", saved); err != nil {
		slog.Warn("failed to publish payroll event", "employee_id", employeeID, "month", month, "year", year, "error", err)
	}
	return saved, nil
}

// RunPayrollBatch implements payroll.PayrollService. Failures are reported per
// employee and never abort the rest of the batch.
func (s *PayrollServiceImpl) RunPayrollBatch(ctx context.Context, req payroll.RunPayrollBatchRequest) (payroll.RunPayrollBatchResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.RunPayrollBatchResponse{}, err
	}

	ids := req.EmployeeIDs
	if len(ids) == 0 {
		var err error
		ids, err = s.employees.ListActiveIDs(ctx)
		if err != nil {
			return payroll.RunPayrollBatchResponse{}, fmt.Errorf("failed to list active employees: %w", err)
		}
	}

	generated := make([]*payroll.GeneratedSalary, len(ids))
	failed := make([]*payroll.BatchFailure, len(ids))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			salary, err := s.run(gCtx, id, req.Month, req.Year)
			if err != nil {
				failed[i] = batchFailure(id, err)
				return nil
			}
			generated[i] = &salary
			return nil
		})
	}
	_ = g.Wait()

	resp := payroll.RunPayrollBatchResponse{
		Month:     req.Month,
		Year:      req.Year,
		Generated: make([]payroll.GeneratedSalary, 0, len(ids)),
		Failed:    make([]payroll.BatchFailure, 0),
	}
	for i := range ids {
		if generated[i] != nil {
			resp.Generated = append(resp.Generated, *generated[i])
			s.metrics.PayrollRun("generated")
		}
		if failed[i] != nil {
			resp.Failed = append(resp.Failed, *failed[i])
			s.metrics.PayrollRun("failed")
		}
	}

	slog.Info("payroll batch finished",
		"month", req.Month,
		"year", req.Year,
		"generated", len(resp.Generated),
		"failed", len(resp.Failed),
	)
	return resp, nil
}

func batchFailure(employeeID string, err error) *payroll.BatchFailure {
	f := &payroll.BatchFailure{EmployeeID: employeeID, Code: "INTERNAL_ERROR", Message: err.Error()}
	if appErr, ok := apperror.As(err); ok {
		f.Code = appErr.Code
		f.Message = appErr.Message
	} else if apperror.KindOf(err) == apperror.KindValidation {
		f.Code = "VALIDATION_ERROR"
	}
	return f
}

// GetGeneratedSalary implements payroll.PayrollService.
func (s *PayrollServiceImpl) GetGeneratedSalary(ctx context.Context, employeeID string, month, year int) (payroll.GeneratedSalary, error) {
	if _, err := attendance.NewMonthKey(employeeID, month, year); err != nil {
		return payroll.GeneratedSalary{}, err
	}
	return s.GeneratedSalaryRepository.GetByKey(ctx, employeeID, month, year)
}
