package employee

import "context"

type Repository interface {
	GetByID(ctx context.Context, id string) (Employee, error)
	// GetReportingPersons returns approver ids ordered by approval level.
	GetReportingPersons(ctx context.Context, employeeID string) ([]string, error)
	// GetReportees returns the ids of employees for whom approverID is a
	// reporting person at any level.
	GetReportees(ctx context.Context, approverID string) ([]string, error)
	ListActiveIDs(ctx context.Context) ([]string, error)
}
