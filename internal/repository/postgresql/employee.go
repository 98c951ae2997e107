package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.Repository {
	return &employeeRepositoryImpl{db: db}
}

// GetByID implements employee.Repository.
func (e *employeeRepositoryImpl) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `
		SELECT id, full_name, join_date, active
		FROM employees
		WHERE id = $1
	`

	var emp employee.Employee
	err := q.QueryRow(ctx, query, id).Scan(&emp.ID, &emp.FullName, &emp.JoinDate, &emp.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee with id %s: %w", id, err)
	}
	return emp, nil
}

// GetReportingPersons implements employee.Repository.
func (e *employeeRepositoryImpl) GetReportingPersons(ctx context.Context, employeeID string) ([]string, error) {
	if _, err := e.GetByID(ctx, employeeID); err != nil {
		return nil, err
	}

	q := GetQuerier(ctx, e.db)

	query := `
		SELECT approver_id
		FROM reporting_persons
		WHERE employee_id = $1
		ORDER BY level ASC
	`
	return e.collectIDs(ctx, q, query, employeeID)
}

// GetReportees implements employee.Repository.
func (e *employeeRepositoryImpl) GetReportees(ctx context.Context, approverID string) ([]string, error) {
	q := GetQuerier(ctx, e.db)

	query := `
		SELECT DISTINCT employee_id
		FROM reporting_persons
		WHERE approver_id = $1
		ORDER BY employee_id
	`
	return e.collectIDs(ctx, q, query, approverID)
}

// ListActiveIDs implements employee.Repository.
func (e *employeeRepositoryImpl) ListActiveIDs(ctx context.Context) ([]string, error) {
	q := GetQuerier(ctx, e.db)
	return e.collectIDs(ctx, q, `SELECT id FROM employees WHERE active ORDER BY id`)
}

func (e *employeeRepositoryImpl) collectIDs(ctx context.Context, q database.Querier, query string, args ...interface{}) ([]string, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query employee ids: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
