package payroll

import "context"

type SalaryStructureRepository interface {
	// GetByEmployeeID returns ErrSalaryStructureNotFound when none is configured.
	GetByEmployeeID(ctx context.Context, employeeID string) (SalaryStructure, error)
}

type GeneratedSalaryRepository interface {
	// Upsert stores the salary keyed by (employee, month, year), replacing any
	// earlier run for the same key.
	Upsert(ctx context.Context, salary GeneratedSalary) (GeneratedSalary, error)
	GetByKey(ctx context.Context, employeeID string, month, year int) (GeneratedSalary, error)
}
