package attendance

import "context"

type AttendanceRepository interface {
	// GetByKey returns ErrAttendanceNotFound when the month was never written.
	GetByKey(ctx context.Context, key MonthKey) (*Month, error)
	// Save creates or replaces the month identified by m.Key.
	Save(ctx context.Context, m *Month) error
}
