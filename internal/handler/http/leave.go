package http

import (
	"net/http"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type LeaveHandler interface {
	GetAllotments(w http.ResponseWriter, r *http.Request)

	Apply(w http.ResponseWriter, r *http.Request)
	ValidateDates(w http.ResponseWriter, r *http.Request)
	GetApplication(w http.ResponseWriter, r *http.Request)
	ListEmployeeApplications(w http.ResponseWriter, r *http.Request)
	ListPendingApprovals(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
}

type LeaveHandlerImpl struct {
	leaveService leave.LeaveService
	now          func() time.Time
}

func NewLeaveHandler(leaveService leave.LeaveService) LeaveHandler {
	return &LeaveHandlerImpl{
		leaveService: leaveService,
		now:          time.Now,
	}
}

// GetAllotments implements LeaveHandler. The year defaults to the current one.
func (l *LeaveHandlerImpl) GetAllotments(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	year := queryInt(r, "year", l.now().Year())

	allotments, err := l.leaveService.GetLeaveAllotments(r.Context(), employeeID, year)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, map[string]any{
		"employee_id": employeeID,
		"year":        year,
		"allotments":  allotments,
	})
}

// Apply implements LeaveHandler. Without employee_id the actor applies for
// themselves.
func (l *LeaveHandlerImpl) Apply(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}

	var req leave.ApplyLeaveRequest
	if !decodeJSON(w, r, "ApplyLeave", &req) {
		return
	}
	if req.EmployeeID == "" {
		req.EmployeeID = actorID
	}
	req.AppliedBy = actorID

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	app, err := l.leaveService.ApplyLeave(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Leave application submitted", app)
}

// ValidateDates implements LeaveHandler.
func (l *LeaveHandlerImpl) ValidateDates(w http.ResponseWriter, r *http.Request) {
	var req leave.ValidateDatesRequest
	if !decodeJSON(w, r, "ValidateDates", &req) {
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := l.leaveService.ValidateLeaveDates(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetApplication implements LeaveHandler.
func (l *LeaveHandlerImpl) GetApplication(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Application ID is required", nil)
		return
	}

	app, err := l.leaveService.GetLeaveApplication(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, app)
}

// ListEmployeeApplications implements LeaveHandler.
func (l *LeaveHandlerImpl) ListEmployeeApplications(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")

	filter := leave.ApplicationFilter{
		Status:    queryString(r, "status"),
		LeaveType: queryString(r, "leave_type"),
		Page:      queryInt(r, "page", 1),
		Limit:     queryInt(r, "limit", 20),
	}
	if err := filter.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := l.leaveService.ListEmployeeApplications(r.Context(), employeeID, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ListPendingApprovals implements LeaveHandler.
func (l *LeaveHandlerImpl) ListPendingApprovals(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}

	filter := leave.PendingApprovalFilter{
		EmployeeID: queryString(r, "employee_id"),
		LeaveType:  queryString(r, "leave_type"),
		From:       queryString(r, "from"),
		To:         queryString(r, "to"),
		Page:       queryInt(r, "page", 1),
		Limit:      queryInt(r, "limit", 20),
	}
	if err := filter.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := l.leaveService.GetPendingApprovals(r.Context(), actorID, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Approve implements LeaveHandler.
func (l *LeaveHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}

	var req leave.ApproveLeaveRequest
	if !decodeJSON(w, r, "ApproveLeave", &req) {
		return
	}
	req.ApplicationID = chi.URLParam(r, "id")
	req.ActorID = actorID

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := l.leaveService.ApproveLeave(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Reject implements LeaveHandler.
func (l *LeaveHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}

	var req leave.RejectLeaveRequest
	if !decodeJSON(w, r, "RejectLeave", &req) {
		return
	}
	req.ApplicationID = chi.URLParam(r, "id")
	req.ActorID = actorID

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	app, err := l.leaveService.RejectLeave(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, app)
}
