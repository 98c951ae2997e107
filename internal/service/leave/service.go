package leave

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/calendar"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/events"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/metrics"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/validator"
)

type LeaveServiceImpl struct {
	leave.ApplicationRepository
	allotments     *AllotmentCache
	requestService *RequestService
	authorizer     *Authorizer
	publisher      events.Publisher
	metrics        *metrics.Metrics
}

func NewLeaveService(
	applicationRepository leave.ApplicationRepository,
	allotments *AllotmentCache,
	requestService *RequestService,
	authorizer *Authorizer,
	publisher events.Publisher,
	m *metrics.Metrics,
) leave.LeaveService {
	return &LeaveServiceImpl{
		ApplicationRepository: applicationRepository,
		allotments:            allotments,
		requestService:        requestService,
		authorizer:            authorizer,
		publisher:             publisher,
		metrics:               m,
	}
}

// GetLeaveAllotments implements leave.LeaveService.
func (l *LeaveServiceImpl) GetLeaveAllotments(ctx context.Context, employeeID string, year int) ([]leave.Allotment, error) {
	var errs validator.ValidationErrors
	if validator.IsEmpty(employeeID) {
		errs.Add("employee_id", "employee_id is required")
	}
	if !validator.IsValidYear(year) {
		errs.Add("year", "year is out of range")
	}
	if err := errs.OrNil(); err != nil {
		return nil, err
	}
	return l.allotments.Allotments(ctx, employeeID, year)
}

// ApplyLeave implements leave.LeaveService.
func (l *LeaveServiceImpl) ApplyLeave(ctx context.Context, req leave.ApplyLeaveRequest) (leave.Application, error) {
	app, err := l.requestService.Apply(ctx, req)
	if err != nil {
		return leave.Application{}, err
	}
	slog.Info("leave applied", "application_id", app.ID, "employee_id", app.EmployeeID, "leave_type", app.LeaveType, "days", app.Days)
	return app, nil
}

// ValidateLeaveDates implements leave.LeaveService.
func (l *LeaveServiceImpl) ValidateLeaveDates(ctx context.Context, req leave.ValidateDatesRequest) (leave.ValidateDatesResponse, error) {
	return l.requestService.ValidateDates(ctx, req)
}

// ApproveLeave implements leave.LeaveService.
func (l *LeaveServiceImpl) ApproveLeave(ctx context.Context, req leave.ApproveLeaveRequest) (leave.ApprovalResult, error) {
	result, err := l.requestService.Approve(ctx, req)
	if err != nil {
		return leave.ApprovalResult{}, err
	}

	l.allotments.Invalidate(ctx, result.Application.EmployeeID)
	l.metrics.LeaveDecision(string(leave.StatusApproved), len(result.SkippedDays))
	l.publishDecision(ctx, result.Application, "leave.approved", result.AppliedDays, len(result.SkippedDays))
	if len(result.SkippedDays) > 0 {
		slog.Warn("leave approved with skipped days",
			"application_id", result.Application.ID,
			"employee_id", result.Application.EmployeeID,
			"skipped", len(result.SkippedDays),
		)
	}
	return result, nil
}

// RejectLeave implements leave.LeaveService.
func (l *LeaveServiceImpl) RejectLeave(ctx context.Context, req leave.RejectLeaveRequest) (leave.Application, error) {
	app, err := l.requestService.Reject(ctx, req)
	if err != nil {
		return leave.Application{}, err
	}
	l.metrics.LeaveDecision(string(leave.StatusRejected), 0)
	l.publishDecision(ctx, app, "leave.rejected", nil, 0)
	return app, nil
}

// GetLeaveApplication implements leave.LeaveService.
func (l *LeaveServiceImpl) GetLeaveApplication(ctx context.Context, id string) (leave.Application, error) {
	if validator.IsEmpty(id) {
		return leave.Application{}, validator.ValidationErrors{{Field: "id", Message: "id is required"}}
	}
	if !validator.IsValidUUID(id) {
		return leave.Application{}, validator.ValidationErrors{{Field: "id", Message: "id must be a valid UUID"}}
	}
	return l.ApplicationRepository.GetByID(ctx, id)
}

// ListEmployeeApplications implements leave.LeaveService.
func (l *LeaveServiceImpl) ListEmployeeApplications(ctx context.Context, employeeID string, filter leave.ApplicationFilter) (leave.ListApplicationsResponse, error) {
	if validator.IsEmpty(employeeID) {
		return leave.ListApplicationsResponse{}, validator.ValidationErrors{{Field: "employee_id", Message: "employee_id is required"}}
	}
	if err := filter.Validate(); err != nil {
		return leave.ListApplicationsResponse{}, err
	}

	apps, total, err := l.ApplicationRepository.ListByEmployee(ctx, employeeID, filter)
	if err != nil {
		return leave.ListApplicationsResponse{}, fmt.Errorf("failed to list leave applications: %w", err)
	}
	return newListResponse(apps, total, filter.Page, filter.Limit), nil
}

// GetPendingApprovals implements leave.LeaveService.
func (l *LeaveServiceImpl) GetPendingApprovals(ctx context.Context, actorID string, filter leave.PendingApprovalFilter) (leave.ListApplicationsResponse, error) {
	if validator.IsEmpty(actorID) {
		return leave.ListApplicationsResponse{}, validator.ValidationErrors{{Field: "actor_id", Message: "actor is required"}}
	}
	if err := filter.Validate(); err != nil {
		return leave.ListApplicationsResponse{}, err
	}

	scope, err := l.authorizer.ScopeFor(ctx, actorID)
	if err != nil {
		return leave.ListApplicationsResponse{}, err
	}
	filter.EmployeeIDs = scope

	apps, total, err := l.ApplicationRepository.ListPending(ctx, filter)
	if err != nil {
		return leave.ListApplicationsResponse{}, fmt.Errorf("failed to list pending approvals: %w", err)
	}
	return newListResponse(apps, total, filter.Page, filter.Limit), nil
}

func newListResponse(apps []leave.Application, total int64, page, limit int) leave.ListApplicationsResponse {
	if apps == nil {
		apps = []leave.Application{}
	}
	totalPages := int(math.Ceil(float64(total) / float64(limit)))

	showing := "0 of 0"
	if total > 0 {
		start := (page-1)*limit + 1
		end := min(page*limit, int(total))
		showing = fmt.Sprintf("%d-%d of %d", start, end, total)
	}

	return leave.ListApplicationsResponse{
		TotalCount:   total,
		Page:         page,
		Limit:        limit,
		TotalPages:   totalPages,
		Showing:      showing,
		Applications: apps,
	}
}

type decisionEvent struct {
	ApplicationID string                  `json:"application_id"`
	EmployeeID    string                  `json:"employee_id"`
	LeaveType     leave.Code              `json:"leave_type"`
	StartDate     string                  `json:"start_date"`
	EndDate       string                  `json:"end_date"`
	Days          float64                 `json:"days"`
	Status        leave.ApplicationStatus `json:"status"`
	DecidedBy     *string                 `json:"decided_by,omitempty"`
	AppliedDays   []string                `json:"applied_days,omitempty"`
	SkippedCount  int                     `json:"skipped_count"`
}

func (l *LeaveServiceImpl) publishDecision(ctx context.Context, app leave.Application, eventType string, applied []string, skipped int) {
	ev := decisionEvent{
		ApplicationID: app.ID,
		EmployeeID:    app.EmployeeID,
		LeaveType:     app.LeaveType,
		StartDate:     calendar.Format(app.StartDate),
		EndDate:       calendar.Format(app.EndDate),
		Days:          app.Days,
		Status:        app.Status,
		DecidedBy:     app.DecidedBy,
		AppliedDays:   applied,
		SkippedCount:  skipped,
	}
	if err := l.publisher.Publish(ctx, events.TopicLeaveDecided, app.EmployeeID, eventType, ev); err != nil {
		slog.Warn("failed to publish leave decision", "application_id", app.ID, "event_type", eventType, "error", err)
	}
}
