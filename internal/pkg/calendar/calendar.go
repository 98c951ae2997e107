// Package calendar holds the date arithmetic shared by attendance, leave and
// payroll. All dates are civil dates normalized to midnight UTC.
package calendar

import (
	"time"
)

const DateLayout = "2006-01-02"

// YearMonth identifies a calendar month.
type YearMonth struct {
	Year  int
	Month int
}

// DateOnly truncates t to its civil date at midnight UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date builds a UTC civil date.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// Format renders t as YYYY-MM-DD.
func Format(t time.Time) string {
	return t.Format(DateLayout)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func IsSunday(t time.Time) bool {
	return t.Weekday() == time.Sunday
}

// InclusiveDays counts the days in [start, end]. It returns 0 when end is
// before start.
func InclusiveDays(start, end time.Time) int {
	start, end = DateOnly(start), DateOnly(end)
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// EachDay calls fn for every date in [start, end]. Iteration stops early when
// fn returns false.
func EachDay(start, end time.Time, fn func(time.Time) bool) {
	for d := DateOnly(start); !d.After(DateOnly(end)); d = d.AddDate(0, 0, 1) {
		if !fn(d) {
			return
		}
	}
}

// MonthsBetween lists the months touched by [start, end] in ascending order.
func MonthsBetween(start, end time.Time) []YearMonth {
	var months []YearMonth
	cur := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cur.After(last) {
		months = append(months, YearMonth{Year: cur.Year(), Month: int(cur.Month())})
		cur = cur.AddDate(0, 1, 0)
	}
	return months
}

// YearBounds returns the first and last day of year.
func YearBounds(year int) (time.Time, time.Time) {
	return Date(year, 1, 1), Date(year, 12, 31)
}

// Intersect returns the overlap of two inclusive ranges and whether one exists.
func Intersect(aStart, aEnd, bStart, bEnd time.Time) (time.Time, time.Time, bool) {
	start := aStart
	if bStart.After(start) {
		start = bStart
	}
	end := aEnd
	if bEnd.Before(end) {
		end = bEnd
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}
