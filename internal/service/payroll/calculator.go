package payroll

import (
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

const moneyPlaces = 2

var half = decimal.NewFromFloat(0.5)

// Snapshot derives the payroll inputs from a month's status counts.
func Snapshot(daysInMonth int, c attendance.Counts) payroll.AttendanceSnapshot {
	working := decimal.NewFromInt(int64(c.Present)).
		Add(half.Mul(decimal.NewFromInt(int64(c.FirstHalf)))).
		Add(half.Mul(decimal.NewFromInt(int64(c.SecondHalf))))
	paid := working.Add(decimal.NewFromInt(int64(c.Holiday + c.Sunday)))

	return payroll.AttendanceSnapshot{
		TotalDaysInMonth: daysInMonth,
		Present:          c.Present,
		FirstHalf:        c.FirstHalf,
		SecondHalf:       c.SecondHalf,
		Absent:           c.Absent,
		Leave:            c.Leave,
		Holiday:          c.Holiday,
		Sunday:           c.Sunday,
		WorkingDays:      working,
		PaidDays:         paid,
	}
}

// Calculate applies the salary formula. Intermediate values keep full
// precision; only the returned amounts are rounded to two places.
func Calculate(s payroll.SalaryStructure, snap payroll.AttendanceSnapshot) payroll.GeneratedSalary {
	gross := s.Gross()
	perDay := decimal.Zero
	if snap.TotalDaysInMonth > 0 {
		perDay = gross.Div(decimal.NewFromInt(int64(snap.TotalDaysInMonth)))
	}

	earned := perDay.Mul(snap.PaidDays)
	fixed := s.FixedDeductions()
	absent := perDay.Mul(decimal.NewFromInt(int64(snap.Absent)))
	total := fixed.Add(absent)
	net := earned.Sub(total)

	return payroll.GeneratedSalary{
		EmployeeID:   s.EmployeeID,
		Attendance:   snap,
		GrossSalary:  gross.Round(moneyPlaces),
		PerDaySalary: perDay.Round(moneyPlaces),
		EarnedSalary: earned.Round(moneyPlaces),
		Deductions: payroll.DeductionBreakdown{
			PF:              s.PF.Round(moneyPlaces),
			ProfessionalTax: s.ProfessionalTax.Round(moneyPlaces),
			IncomeTax:       s.IncomeTax.Round(moneyPlaces),
			EPF:             s.EPF.Round(moneyPlaces),
			ESIC:            s.ESIC.Round(moneyPlaces),
			Fixed:           fixed.Round(moneyPlaces),
			AbsentDays:      absent.Round(moneyPlaces),
			Total:           total.Round(moneyPlaces),
		},
		NetSalary: net.Round(moneyPlaces),
	}
}
