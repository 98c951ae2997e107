package leave

import (
	"context"
	"time"
)

// ApplicationRepository - interface for leave_applications table
type ApplicationRepository interface {
	Create(ctx context.Context, app Application) (Application, error)
	GetByID(ctx context.Context, id string) (Application, error)
	// UpdateDecision persists a decided application. It only succeeds while
	// the stored row is still pending and returns ErrAlreadyDecided otherwise.
	UpdateDecision(ctx context.Context, app Application) error
	// ListOverlapping returns non-rejected applications of employeeID that
	// intersect [start, end].
	ListOverlapping(ctx context.Context, employeeID string, start, end time.Time) ([]Application, error)
	// ListApprovedInRange returns approved applications of employeeID that
	// intersect [start, end].
	ListApprovedInRange(ctx context.Context, employeeID string, start, end time.Time) ([]Application, error)
	ListByEmployee(ctx context.Context, employeeID string, filter ApplicationFilter) ([]Application, int64, error)
	ListPending(ctx context.Context, filter PendingApprovalFilter) ([]Application, int64, error)
}

// AllocationRepository - interface for leave_allocations table
type AllocationRepository interface {
	GetByEmployeeYear(ctx context.Context, employeeID string, year int) ([]Allocation, error)
}
