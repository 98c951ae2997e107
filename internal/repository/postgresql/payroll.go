package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type salaryStructureRepository struct {
	db *database.DB
}

func NewSalaryStructureRepository(db *database.DB) payroll.SalaryStructureRepository {
	return &salaryStructureRepository{db: db}
}

// GetByEmployeeID implements payroll.SalaryStructureRepository.
func (r *salaryStructureRepository) GetByEmployeeID(ctx context.Context, employeeID string) (payroll.SalaryStructure, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT employee_id, basic, hra, da, lta, conveyance, medical, bonuses, other_benefits,
			   pf, professional_tax, income_tax, epf, esic, updated_at
		FROM salary_structures
		WHERE employee_id = $1
	`

	var s payroll.SalaryStructure
	err := q.QueryRow(ctx, query, employeeID).Scan(
		&s.EmployeeID, &s.Basic, &s.HRA, &s.DA, &s.LTA, &s.Conveyance, &s.Medical, &s.Bonuses, &s.OtherBenefits,
		&s.PF, &s.ProfessionalTax, &s.IncomeTax, &s.EPF, &s.ESIC, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.SalaryStructure{}, payroll.ErrSalaryStructureNotFound.With("", map[string]any{"employee_id": employeeID})
		}
		return payroll.SalaryStructure{}, fmt.Errorf("failed to get salary structure: %w", err)
	}
	return s, nil
}

type generatedSalaryRepository struct {
	db *database.DB
}

func NewGeneratedSalaryRepository(db *database.DB) payroll.GeneratedSalaryRepository {
	return &generatedSalaryRepository{db: db}
}

const generatedSalaryColumns = `
	id, employee_id, month, year, attendance,
	gross_salary, per_day_salary, earned_salary, deductions, net_salary, generated_at
`

func scanGeneratedSalary(row pgx.Row) (payroll.GeneratedSalary, error) {
	var gs payroll.GeneratedSalary
	var attendanceJSON, deductionsJSON []byte
	err := row.Scan(
		&gs.ID, &gs.EmployeeID, &gs.Month, &gs.Year, &attendanceJSON,
		&gs.GrossSalary, &gs.PerDaySalary, &gs.EarnedSalary, &deductionsJSON, &gs.NetSalary, &gs.GeneratedAt,
	)
	if err != nil {
		return payroll.GeneratedSalary{}, err
	}
	if err := json.Unmarshal(attendanceJSON, &gs.Attendance); err != nil {
		return payroll.GeneratedSalary{}, fmt.Errorf("failed to decode attendance snapshot: %w", err)
	}
	if err := json.Unmarshal(deductionsJSON, &gs.Deductions); err != nil {
		return payroll.GeneratedSalary{}, fmt.Errorf("failed to decode deductions: %w", err)
	}
	return gs, nil
}

// Upsert implements payroll.GeneratedSalaryRepository.
func (r *generatedSalaryRepository) Upsert(ctx context.Context, gs payroll.GeneratedSalary) (payroll.GeneratedSalary, error) {
	q := GetQuerier(ctx, r.db)

	attendanceJSON, err := json.Marshal(gs.Attendance)
	if err != nil {
		return payroll.GeneratedSalary{}, fmt.Errorf("failed to encode attendance snapshot: %w", err)
	}
	deductionsJSON, err := json.Marshal(gs.Deductions)
	if err != nil {
		return payroll.GeneratedSalary{}, fmt.Errorf("failed to encode deductions: %w", err)
	}

	query := `
		INSERT INTO generated_salaries (
			id, employee_id, month, year, attendance,
			gross_salary, per_day_salary, earned_salary, deductions, net_salary, generated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (employee_id, month, year) DO UPDATE SET
			attendance = EXCLUDED.attendance,
			gross_salary = EXCLUDED.gross_salary,
			per_day_salary = EXCLUDED.per_day_salary,
			earned_salary = EXCLUDED.earned_salary,
			deductions = EXCLUDED.deductions,
			net_salary = EXCLUDED.net_salary,
			generated_at = EXCLUDED.generated_at
		RETURNING ` + generatedSalaryColumns

	saved, err := scanGeneratedSalary(q.QueryRow(ctx, query,
		gs.ID, gs.EmployeeID, gs.Month, gs.Year, attendanceJSON,
		gs.GrossSalary, gs.PerDaySalary, gs.EarnedSalary, deductionsJSON, gs.NetSalary, gs.GeneratedAt,
	))
	if err != nil {
		return payroll.GeneratedSalary{}, fmt.Errorf("failed to upsert generated salary: %w", err)
	}
	return saved, nil
}

// GetByKey implements payroll.GeneratedSalaryRepository.
func (r *generatedSalaryRepository) GetByKey(ctx context.Context, employeeID string, month, year int) (payroll.GeneratedSalary, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + generatedSalaryColumns + ` FROM generated_salaries WHERE employee_id = $1 AND month = $2 AND year = $3`

	gs, err := scanGeneratedSalary(q.QueryRow(ctx, query, employeeID, month, year))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.GeneratedSalary{}, payroll.ErrGeneratedSalaryNotFound
		}
		return payroll.GeneratedSalary{}, fmt.Errorf("failed to get generated salary: %w", err)
	}
	return gs, nil
}
