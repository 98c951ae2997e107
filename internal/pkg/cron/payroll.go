package cron

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
)

// PayrollJobs generates the previous month's payroll for every active
// employee on a fixed day of the month.
type PayrollJobs struct {
	payrollService payroll.PayrollService
	runDay         int
	now            func() time.Time

	mu      sync.Mutex
	lastRun string
}

func NewPayrollJobs(payrollService payroll.PayrollService, runDay int) *PayrollJobs {
	return &PayrollJobs{
		payrollService: payrollService,
		runDay:         runDay,
		now:            time.Now,
	}
}

func (j *PayrollJobs) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	scheduler.AddJob("monthly_payroll_batch", interval, j.RunMonthlyBatch)
}

// RunMonthlyBatch is a no-op except on the configured day, and runs at most
// once per period. Employees whose attendance is not finalized are reported
// as failures and can be rerun manually.
func (j *PayrollJobs) RunMonthlyBatch(ctx context.Context) error {
	today := j.now().UTC()
	if today.Day() != j.runDay {
		return nil
	}

	period := today.AddDate(0, 0, -today.Day()) // last day of previous month
	periodKey := period.Format("2006-01")

	j.mu.Lock()
	if j.lastRun == periodKey {
		j.mu.Unlock()
		return nil
	}
	j.mu.Unlock()

	slog.Info("Cron: starting monthly payroll batch", "period", periodKey)

	result, err := j.payrollService.RunPayrollBatch(ctx, payroll.RunPayrollBatchRequest{
		Month: int(period.Month()),
		Year:  period.Year(),
	})
	if err != nil {
		return err
	}

	j.mu.Lock()
	j.lastRun = periodKey
	j.mu.Unlock()

	for _, f := range result.Failed {
		slog.Warn("Cron: payroll not generated", "employee_id", f.EmployeeID, "code", f.Code, "message", f.Message)
	}
	slog.Info("Cron: monthly payroll batch finished",
		"period", periodKey,
		"generated", len(result.Generated),
		"failed", len(result.Failed),
	)
	return nil
}
