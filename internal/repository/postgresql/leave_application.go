package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const applicationColumns = `
	id, employee_id, leave_type, start_date, end_date, days, status,
	remark, applied_by, applied_at,
	decided_by, decided_at, approver_remark, rejection_reason,
	created_at, updated_at
`

type leaveApplicationRepositoryImpl struct {
	db *database.DB
}

func NewLeaveApplicationRepository(db *database.DB) leave.ApplicationRepository {
	return &leaveApplicationRepositoryImpl{db: db}
}

func scanApplication(row pgx.Row) (leave.Application, error) {
	var a leave.Application
	err := row.Scan(
		&a.ID, &a.EmployeeID, &a.LeaveType, &a.StartDate, &a.EndDate, &a.Days, &a.Status,
		&a.Remark, &a.AppliedBy, &a.AppliedAt,
		&a.DecidedBy, &a.DecidedAt, &a.ApproverRemark, &a.RejectionReason,
		&a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

func collectApplications(rows pgx.Rows) ([]leave.Application, error) {
	defer rows.Close()
	apps := make([]leave.Application, 0)
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

// Create implements leave.ApplicationRepository.
func (r *leaveApplicationRepositoryImpl) Create(ctx context.Context, app leave.Application) (leave.Application, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_applications (
			id, employee_id, leave_type, start_date, end_date, days, status,
			remark, applied_by, applied_at,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10,
			NOW(), NOW()
		)
		RETURNING ` + applicationColumns

	created, err := scanApplication(q.QueryRow(ctx, query,
		app.ID, app.EmployeeID, app.LeaveType, app.StartDate, app.EndDate, app.Days, app.Status,
		app.Remark, app.AppliedBy, app.AppliedAt,
	))
	if err != nil {
		return leave.Application{}, fmt.Errorf("failed to create leave application: %w", err)
	}
	return created, nil
}

// GetByID implements leave.ApplicationRepository.
func (r *leaveApplicationRepositoryImpl) GetByID(ctx context.Context, id string) (leave.Application, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + applicationColumns + ` FROM leave_applications WHERE id = $1`

	app, err := scanApplication(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.Application{}, leave.ErrApplicationNotFound
		}
		return leave.Application{}, fmt.Errorf("failed to get leave application: %w", err)
	}
	return app, nil
}

// UpdateDecision implements leave.ApplicationRepository.
func (r *leaveApplicationRepositoryImpl) UpdateDecision(ctx context.Context, app leave.Application) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_applications
		SET status = $2, decided_by = $3, decided_at = $4,
			approver_remark = $5, rejection_reason = $6, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`

	tag, err := q.Exec(ctx, query, app.ID, app.Status, app.DecidedBy, app.DecidedAt, app.ApproverRemark, app.RejectionReason)
	if err != nil {
		return fmt.Errorf("failed to update leave decision: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM leave_applications WHERE id = $1)`, app.ID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check leave application: %w", err)
	}
	if !exists {
		return leave.ErrApplicationNotFound
	}
	return leave.ErrAlreadyDecided
}

// ListOverlapping implements leave.ApplicationRepository.
func (r *leaveApplicationRepositoryImpl) ListOverlapping(ctx context.Context, employeeID string, start, end time.Time) ([]leave.Application, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + applicationColumns + `
		FROM leave_applications
		WHERE employee_id = $1 AND status <> 'rejected'
		  AND start_date <= $3 AND end_date >= $2
		ORDER BY start_date
	`

	rows, err := q.Query(ctx, query, employeeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list overlapping leave: %w", err)
	}
	return collectApplications(rows)
}

// ListApprovedInRange implements leave.ApplicationRepository.
func (r *leaveApplicationRepositoryImpl) ListApprovedInRange(ctx context.Context, employeeID string, start, end time.Time) ([]leave.Application, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + applicationColumns + `
		FROM leave_applications
		WHERE employee_id = $1 AND status = 'approved'
		  AND start_date <= $3 AND end_date >= $2
		ORDER BY start_date
	`

	rows, err := q.Query(ctx, query, employeeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved leave: %w", err)
	}
	return collectApplications(rows)
}

// ListByEmployee implements leave.ApplicationRepository.
func (r *leaveApplicationRepositoryImpl) ListByEmployee(ctx context.Context, employeeID string, filter leave.ApplicationFilter) ([]leave.Application, int64, error) {
	q := GetQuerier(ctx, r.db)

	whereClause := "WHERE employee_id = $1"
	args := []interface{}{employeeID}
	argIndex := 2

	if filter.Status != nil {
		whereClause += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, *filter.Status)
		argIndex++
	}
	if filter.LeaveType != nil {
		whereClause += fmt.Sprintf(" AND leave_type = $%d", argIndex)
		args = append(args, *filter.LeaveType)
		argIndex++
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM leave_applications "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count leave applications: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM leave_applications
		%s
		ORDER BY applied_at DESC
		LIMIT $%d OFFSET $%d
	`, applicationColumns, whereClause, argIndex, argIndex+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list leave applications: %w", err)
	}
	apps, err := collectApplications(rows)
	if err != nil {
		return nil, 0, err
	}
	return apps, total, nil
}

// ListPending implements leave.ApplicationRepository.
func (r *leaveApplicationRepositoryImpl) ListPending(ctx context.Context, filter leave.PendingApprovalFilter) ([]leave.Application, int64, error) {
	q := GetQuerier(ctx, r.db)

	whereClause := "WHERE status = 'pending'"
	args := []interface{}{}
	argIndex := 1

	if filter.EmployeeIDs != nil {
		whereClause += fmt.Sprintf(" AND employee_id = ANY($%d)", argIndex)
		args = append(args, filter.EmployeeIDs)
		argIndex++
	}
	if filter.EmployeeID != nil {
		whereClause += fmt.Sprintf(" AND employee_id = $%d", argIndex)
		args = append(args, *filter.EmployeeID)
		argIndex++
	}
	if filter.LeaveType != nil {
		whereClause += fmt.Sprintf(" AND leave_type = $%d", argIndex)
		args = append(args, *filter.LeaveType)
		argIndex++
	}
	if filter.FromDate != nil {
		whereClause += fmt.Sprintf(" AND end_date >= $%d", argIndex)
		args = append(args, *filter.FromDate)
		argIndex++
	}
	if filter.ToDate != nil {
		whereClause += fmt.Sprintf(" AND start_date <= $%d", argIndex)
		args = append(args, *filter.ToDate)
		argIndex++
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM leave_applications "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count pending approvals: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM leave_applications
		%s
		ORDER BY applied_at ASC
		LIMIT $%d OFFSET $%d
	`, applicationColumns, whereClause, argIndex, argIndex+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list pending approvals: %w", err)
	}
	apps, err := collectApplications(rows)
	if err != nil {
		return nil, 0, err
	}
	return apps, total, nil
}

type leaveAllocationRepositoryImpl struct {
	db *database.DB
}

func NewLeaveAllocationRepository(db *database.DB) leave.AllocationRepository {
	return &leaveAllocationRepositoryImpl{db: db}
}

// GetByEmployeeYear implements leave.AllocationRepository.
func (r *leaveAllocationRepositoryImpl) GetByEmployeeYear(ctx context.Context, employeeID string, year int) ([]leave.Allocation, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT employee_id, year, leave_type, days
		FROM leave_allocations
		WHERE employee_id = $1 AND year = $2
	`

	rows, err := q.Query(ctx, query, employeeID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to get leave allocations: %w", err)
	}
	defer rows.Close()

	var allocations []leave.Allocation
	for rows.Next() {
		var a leave.Allocation
		if err := rows.Scan(&a.EmployeeID, &a.Year, &a.LeaveType, &a.Days); err != nil {
			return nil, err
		}
		allocations = append(allocations, a)
	}
	return allocations, rows.Err()
}
