package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalaryStructure holds an employee's fixed monthly components. It is owned by
// payroll master data and read-only here.
type SalaryStructure struct {
	EmployeeID      string
	Basic           decimal.Decimal
	HRA             decimal.Decimal
	DA              decimal.Decimal
	LTA             decimal.Decimal
	Conveyance      decimal.Decimal
	Medical         decimal.Decimal
	Bonuses         decimal.Decimal
	OtherBenefits   decimal.Decimal
	PF              decimal.Decimal
	ProfessionalTax decimal.Decimal
	IncomeTax       decimal.Decimal
	EPF             decimal.Decimal
	ESIC            decimal.Decimal
	UpdatedAt       time.Time
}

// Gross sums the earning components.
func (s SalaryStructure) Gross() decimal.Decimal {
	return decimal.Sum(s.Basic, s.HRA, s.DA, s.LTA, s.Conveyance, s.Medical, s.Bonuses, s.OtherBenefits)
}

// FixedDeductions sums the statutory and fixed deductions.
func (s SalaryStructure) FixedDeductions() decimal.Decimal {
	return decimal.Sum(s.PF, s.ProfessionalTax, s.IncomeTax, s.EPF, s.ESIC)
}

// AttendanceSnapshot is the attendance-derived input of a payroll run.
type AttendanceSnapshot struct {
	TotalDaysInMonth int             `json:"total_days_in_month"`
	Present          int             `json:"present"`
	FirstHalf        int             `json:"firsthalf"`
	SecondHalf       int             `json:"secondhalf"`
	Absent           int             `json:"absent"`
	Leave            int             `json:"leave"`
	Holiday          int             `json:"holiday"`
	Sunday           int             `json:"sunday"`
	WorkingDays      decimal.Decimal `json:"working_days"`
	PaidDays         decimal.Decimal `json:"paid_days"`
}

type DeductionBreakdown struct {
	PF              decimal.Decimal `json:"pf"`
	ProfessionalTax decimal.Decimal `json:"professional_tax"`
	IncomeTax       decimal.Decimal `json:"income_tax"`
	EPF             decimal.Decimal `json:"epf"`
	ESIC            decimal.Decimal `json:"esic"`
	Fixed           decimal.Decimal `json:"fixed"`
	AbsentDays      decimal.Decimal `json:"absent_days"`
	Total           decimal.Decimal `json:"total"`
}

// GeneratedSalary is the result of one payroll run for an employee-month.
// Amounts are rounded to two decimals.
type GeneratedSalary struct {
	ID           string             `json:"id"`
	EmployeeID   string             `json:"employee_id"`
	Month        int                `json:"month"`
	Year         int                `json:"year"`
	Attendance   AttendanceSnapshot `json:"attendance"`
	GrossSalary  decimal.Decimal    `json:"gross_salary"`
	PerDaySalary decimal.Decimal    `json:"per_day_salary"`
	EarnedSalary decimal.Decimal    `json:"earned_salary"`
	Deductions   DeductionBreakdown `json:"deductions"`
	NetSalary    decimal.Decimal    `json:"net_salary"`
	GeneratedAt  time.Time          `json:"generated_at"`
}
