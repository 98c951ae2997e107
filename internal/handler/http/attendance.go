package http

import (
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/handler/http/response"
)

type AttendanceHandler interface {
	Get(w http.ResponseWriter, r *http.Request)
	MarkDay(w http.ResponseWriter, r *http.Request)
	Upsert(w http.ResponseWriter, r *http.Request)
	Submit(w http.ResponseWriter, r *http.Request)
	Lock(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// Get implements AttendanceHandler.
func (h *attendanceHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	employeeID, year, month, ok := monthParams(w, r)
	if !ok {
		return
	}

	req := attendance.GetAttendanceRequest{EmployeeID: employeeID, Month: month, Year: year}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.GetAttendance(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// MarkDay implements AttendanceHandler.
func (h *attendanceHandlerImpl) MarkDay(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	employeeID, year, month, ok := monthParams(w, r)
	if !ok {
		return
	}
	day, ok := urlInt(w, r, "day")
	if !ok {
		return
	}

	var body struct {
		LeaveType *string `json:"leave_type,omitempty"`
	}
	if !decodeJSON(w, r, "MarkDay", &body) {
		return
	}

	req := attendance.MarkDayRequest{
		EmployeeID: employeeID,
		Month:      month,
		Year:       year,
		Day:        day,
		LeaveType:  body.LeaveType,
		ActorID:    actorID,
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	rec, err := h.attendanceService.MarkDay(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, rec)
}

// Upsert implements AttendanceHandler.
func (h *attendanceHandlerImpl) Upsert(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(w, r)
	if !ok {
		return
	}
	employeeID, year, month, ok := monthParams(w, r)
	if !ok {
		return
	}

	var req attendance.UpsertAttendanceRequest
	if !decodeJSON(w, r, "UpsertAttendance", &req) {
		return
	}
	req.EmployeeID = employeeID
	req.Month = month
	req.Year = year
	req.ActorID = actorID

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.UpsertAttendance(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Submit implements AttendanceHandler.
func (h *attendanceHandlerImpl) Submit(w http.ResponseWriter, r *http.Request) {
	req, ok := h.transitionRequest(w, r)
	if !ok {
		return
	}

	result, err := h.attendanceService.SubmitAttendance(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Lock implements AttendanceHandler.
func (h *attendanceHandlerImpl) Lock(w http.ResponseWriter, r *http.Request) {
	req, ok := h.transitionRequest(w, r)
	if !ok {
		return
	}

	result, err := h.attendanceService.LockAttendance(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *attendanceHandlerImpl) transitionRequest(w http.ResponseWriter, r *http.Request) (attendance.LockAttendanceRequest, bool) {
	actorID, ok := actor(w, r)
	if !ok {
		return attendance.LockAttendanceRequest{}, false
	}
	employeeID, year, month, ok := monthParams(w, r)
	if !ok {
		return attendance.LockAttendanceRequest{}, false
	}

	req := attendance.LockAttendanceRequest{EmployeeID: employeeID, Month: month, Year: year, ActorID: actorID}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return attendance.LockAttendanceRequest{}, false
	}
	return req, true
}
