package payroll

import "context"

type PayrollService interface {
	RunPayroll(ctx context.Context, req RunPayrollRequest) (GeneratedSalary, error)
	RunPayrollBatch(ctx context.Context, req RunPayrollBatchRequest) (RunPayrollBatchResponse, error)
	GetGeneratedSalary(ctx context.Context, employeeID string, month, year int) (GeneratedSalary, error)
}
