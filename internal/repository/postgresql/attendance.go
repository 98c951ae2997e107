package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type attendanceRepositoryImpl struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepositoryImpl{db: db}
}

// GetByKey implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) GetByKey(ctx context.Context, key attendance.MonthKey) (*attendance.Month, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT days, locked, locked_by, locked_at, submitted, submitted_by, submitted_at, created_at, updated_at
		FROM attendance_months
		WHERE employee_id = $1 AND year = $2 AND month = $3
	`

	m := attendance.NewMonth(key)
	var days []byte
	err := q.QueryRow(ctx, query, key.EmployeeID, key.Year, key.Month).Scan(
		&days,
		&m.Locked, &m.LockedBy, &m.LockedAt,
		&m.Submitted, &m.SubmittedBy, &m.SubmittedAt,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, attendance.ErrAttendanceNotFound
		}
		return nil, fmt.Errorf("failed to get attendance month: %w", err)
	}

	if err := m.DecodeDays(days); err != nil {
		return nil, err
	}
	return m, nil
}

// Save implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) Save(ctx context.Context, m *attendance.Month) error {
	q := GetQuerier(ctx, r.db)

	days, err := m.EncodeDays()
	if err != nil {
		return err
	}

	query := `
		INSERT INTO attendance_months (
			employee_id, year, month, days,
			locked, locked_by, locked_at,
			submitted, submitted_by, submitted_at,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7,
			$8, $9, $10,
			NOW(), NOW()
		)
		ON CONFLICT (employee_id, year, month) DO UPDATE SET
			days = EXCLUDED.days,
			locked = EXCLUDED.locked,
			locked_by = EXCLUDED.locked_by,
			locked_at = EXCLUDED.locked_at,
			submitted = EXCLUDED.submitted,
			submitted_by = EXCLUDED.submitted_by,
			submitted_at = EXCLUDED.submitted_at,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`

	err = q.QueryRow(ctx, query,
		m.Key.EmployeeID, m.Key.Year, m.Key.Month, days,
		m.Locked, m.LockedBy, m.LockedAt,
		m.Submitted, m.SubmittedBy, m.SubmittedAt,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save attendance month: %w", err)
	}
	return nil
}
