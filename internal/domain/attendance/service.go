package attendance

import "context"

type AttendanceService interface {
	GetAttendance(ctx context.Context, req GetAttendanceRequest) (AttendanceMonthResponse, error)
	MarkDay(ctx context.Context, req MarkDayRequest) (DayRecord, error)
	UpsertAttendance(ctx context.Context, req UpsertAttendanceRequest) (UpsertAttendanceResponse, error)
	LockAttendance(ctx context.Context, req LockAttendanceRequest) (AttendanceMonthResponse, error)
	SubmitAttendance(ctx context.Context, req SubmitAttendanceRequest) (AttendanceMonthResponse, error)
	// LoadMonth returns the stored month with the calendar applied, or
	// ErrAttendanceNotFound when it was never written.
	LoadMonth(ctx context.Context, key MonthKey) (*Month, error)
}
