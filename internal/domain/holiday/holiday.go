package holiday

import (
	"context"
	"time"
)

type Holiday struct {
	Date time.Time
	Name string
}

// Directory is the read-only holiday calendar. Holidays may be edited between
// calls, so callers must not cache results across requests.
type Directory interface {
	GetHolidaysForMonth(ctx context.Context, year, month int) ([]Holiday, error)
}

// Set indexes holidays by day of month for one month.
type Set map[int]string

func NewSet(holidays []Holiday) Set {
	s := make(Set, len(holidays))
	for _, h := range holidays {
		s[h.Date.Day()] = h.Name
	}
	return s
}

// Name returns the holiday name for day, if any.
func (s Set) Name(day int) (string, bool) {
	name, ok := s[day]
	return name, ok
}
