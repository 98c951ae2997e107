package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/holiday"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/calendar"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
)

type holidayDirectoryImpl struct {
	db *database.DB
}

func NewHolidayDirectory(db *database.DB) holiday.Directory {
	return &holidayDirectoryImpl{db: db}
}

// GetHolidaysForMonth implements holiday.Directory.
func (h *holidayDirectoryImpl) GetHolidaysForMonth(ctx context.Context, year, month int) ([]holiday.Holiday, error) {
	q := GetQuerier(ctx, h.db)

	query := `
		SELECT date, name
		FROM holidays
		WHERE date >= $1 AND date <= $2
		ORDER BY date
	`

	first := calendar.Date(year, month, 1)
	last := calendar.Date(year, month, calendar.DaysIn(year, month))
	rows, err := q.Query(ctx, query, first, last)
	if err != nil {
		return nil, fmt.Errorf("failed to get holidays: %w", err)
	}
	defer rows.Close()

	var holidays []holiday.Holiday
	for rows.Next() {
		var hd holiday.Holiday
		if err := rows.Scan(&hd.Date, &hd.Name); err != nil {
			return nil, err
		}
		hd.Date = calendar.DateOnly(hd.Date)
		holidays = append(holidays, hd)
	}
	return holidays, rows.Err()
}
