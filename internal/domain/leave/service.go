package leave

import (
	"context"
)

type LeaveService interface {
	// Allotment
	GetLeaveAllotments(ctx context.Context, employeeID string, year int) ([]Allotment, error)
	// Application
	ApplyLeave(ctx context.Context, req ApplyLeaveRequest) (Application, error)
	ValidateLeaveDates(ctx context.Context, req ValidateDatesRequest) (ValidateDatesResponse, error)
	ApproveLeave(ctx context.Context, req ApproveLeaveRequest) (ApprovalResult, error)
	RejectLeave(ctx context.Context, req RejectLeaveRequest) (Application, error)
	GetLeaveApplication(ctx context.Context, id string) (Application, error)
	ListEmployeeApplications(ctx context.Context, employeeID string, filter ApplicationFilter) (ListApplicationsResponse, error)
	GetPendingApprovals(ctx context.Context, actorID string, filter PendingApprovalFilter) (ListApplicationsResponse, error)
}
