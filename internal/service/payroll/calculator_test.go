package payroll

import (
	"testing"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func structure(basic string) payroll.SalaryStructure {
	return payroll.SalaryStructure{
		EmployeeID:      "emp-1",
		Basic:           dec(basic),
		PF:              dec("1800"),
		ProfessionalTax: dec("200"),
		IncomeTax:       dec("1500"),
	}
}

func TestCalculate_ReferenceExample(t *testing.T) {
	s := payroll.SalaryStructure{
		Basic:           dec("15000"),
		HRA:             dec("6000"),
		DA:              dec("3000"),
		LTA:             dec("1500"),
		Conveyance:      dec("1600"),
		Medical:         dec("1250"),
		Bonuses:         dec("1000"),
		OtherBenefits:   dec("650"),
		PF:              dec("1800"),
		ProfessionalTax: dec("200"),
		IncomeTax:       dec("1000"),
		EPF:             dec("300"),
		ESIC:            dec("200"),
	}
	snap := Snapshot(30, attendance.Counts{Present: 20, FirstHalf: 2, Absent: 2, Holiday: 4, Sunday: 4})

	got := Calculate(s, snap)

	assert.Equal(t, "21", snap.WorkingDays.String())
	assert.Equal(t, "29", snap.PaidDays.String())
	assert.Equal(t, "30000.00", got.GrossSalary.StringFixed(2))
	assert.Equal(t, "1000.00", got.PerDaySalary.StringFixed(2))
	assert.Equal(t, "29000.00", got.EarnedSalary.StringFixed(2))
	assert.Equal(t, "3500.00", got.Deductions.Fixed.StringFixed(2))
	assert.Equal(t, "2000.00", got.Deductions.AbsentDays.StringFixed(2))
	assert.Equal(t, "5500.00", got.Deductions.Total.StringFixed(2))
	assert.Equal(t, "23500.00", got.NetSalary.StringFixed(2))
}

func TestCalculate_RoundsOnlyAtOutput(t *testing.T) {
	s := payroll.SalaryStructure{Basic: dec("10000")}
	snap := Snapshot(31, attendance.Counts{Present: 27, Sunday: 4})

	got := Calculate(s, snap)

	assert.Equal(t, "322.58", got.PerDaySalary.StringFixed(2))
	// 322.58 x 31 would give 9999.98
	assert.Equal(t, "10000.00", got.EarnedSalary.StringFixed(2))
	assert.Equal(t, "10000.00", got.NetSalary.StringFixed(2))
}

func TestSnapshot_HalfDaysAndLeave(t *testing.T) {
	snap := Snapshot(28, attendance.Counts{Present: 10, FirstHalf: 1, SecondHalf: 3, Leave: 5, Absent: 1, Sunday: 4, Holiday: 1, Unmarked: 3})

	assert.Equal(t, "12", snap.WorkingDays.String())
	assert.Equal(t, "17", snap.PaidDays.String(), "leave days are neither paid nor deducted")
	assert.Equal(t, 5, snap.Leave)
	assert.Equal(t, 28, snap.TotalDaysInMonth)
}

func TestCalculate_ZeroDaysIsSafe(t *testing.T) {
	got := Calculate(structure("1000"), payroll.AttendanceSnapshot{})
	assert.True(t, got.PerDaySalary.IsZero())
	assert.Equal(t, "-3500.00", got.NetSalary.StringFixed(2))
}
