package memory

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/holiday"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/calendar"
	"github.com/shopspring/decimal"
)

// Fixture is the master data a memory store starts from.
type Fixture struct {
	Employees        []FixtureEmployee        `json:"employees"`
	Roles            map[string]string        `json:"roles"`
	Holidays         []FixtureHoliday         `json:"holidays"`
	Allocations      []FixtureAllocation      `json:"allocations"`
	SalaryStructures []FixtureSalaryStructure `json:"salary_structures"`
}

type FixtureEmployee struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	JoinDate string `json:"join_date,omitempty"`
	Active   *bool  `json:"active,omitempty"`
	// ReportingPersons are ordered by level, direct manager first.
	ReportingPersons []string `json:"reporting_persons,omitempty"`
}

type FixtureHoliday struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

type FixtureAllocation struct {
	EmployeeID string  `json:"employee_id"`
	Year       int     `json:"year"`
	LeaveType  string  `json:"leave_type"`
	Days       float64 `json:"days"`
}

type FixtureSalaryStructure struct {
	EmployeeID      string          `json:"employee_id"`
	Basic           decimal.Decimal `json:"basic"`
	HRA             decimal.Decimal `json:"hra"`
	DA              decimal.Decimal `json:"da"`
	LTA             decimal.Decimal `json:"lta"`
	Conveyance      decimal.Decimal `json:"conveyance"`
	Medical         decimal.Decimal `json:"medical"`
	Bonuses         decimal.Decimal `json:"bonuses"`
	OtherBenefits   decimal.Decimal `json:"other_benefits"`
	PF              decimal.Decimal `json:"pf"`
	ProfessionalTax decimal.Decimal `json:"professional_tax"`
	IncomeTax       decimal.Decimal `json:"income_tax"`
	EPF             decimal.Decimal `json:"epf"`
	ESIC            decimal.Decimal `json:"esic"`
}

// SeedFromFile loads a JSON fixture into s.
func SeedFromFile(s *Store, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return Seed(s, f)
}

// Seed validates the whole fixture before writing any of it.
func Seed(s *Store, r io.Reader) error {
	var fx Fixture
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&fx); err != nil {
		return fmt.Errorf("decode seed: %w", err)
	}

	employees := make([]employee.Employee, 0, len(fx.Employees))
	for i, e := range fx.Employees {
		if e.ID == "" {
			return fmt.Errorf("employees[%d]: id is required", i)
		}
		emp := employee.Employee{ID: e.ID, FullName: e.FullName, Active: e.Active == nil || *e.Active}
		if e.JoinDate != "" {
			d, err := calendar.ParseDate(e.JoinDate)
			if err != nil {
				return fmt.Errorf("employees[%d]: join_date: %w", i, err)
			}
			emp.JoinDate = &d
		}
		employees = append(employees, emp)
	}

	for actorID, role := range fx.Roles {
		if !user.Role(role).IsValid() {
			return fmt.Errorf("roles[%s]: unknown role %q", actorID, role)
		}
	}

	holidays := make([]holiday.Holiday, 0, len(fx.Holidays))
	for i, h := range fx.Holidays {
		d, err := calendar.ParseDate(h.Date)
		if err != nil {
			return fmt.Errorf("holidays[%d]: date: %w", i, err)
		}
		holidays = append(holidays, holiday.Holiday{Date: d, Name: h.Name})
	}

	allocations := make([]leave.Allocation, 0, len(fx.Allocations))
	for i, a := range fx.Allocations {
		code, err := leave.ParseCode(a.LeaveType)
		if err != nil {
			return fmt.Errorf("allocations[%d]: %w", i, err)
		}
		if a.Days < 0 && a.Days != leave.Unlimited {
			return fmt.Errorf("allocations[%d]: days must be zero or more, or %d for unlimited", i, leave.Unlimited)
		}
		allocations = append(allocations, leave.Allocation{EmployeeID: a.EmployeeID, Year: a.Year, LeaveType: code, Days: a.Days})
	}

	for i, e := range employees {
		s.PutEmployee(e, fx.Employees[i].ReportingPersons...)
	}
	for actorID, role := range fx.Roles {
		s.PutRole(actorID, user.Role(role))
	}
	for _, h := range holidays {
		s.PutHoliday(h)
	}
	for _, a := range allocations {
		s.PutAllocation(a)
	}
	for _, ss := range fx.SalaryStructures {
		s.PutSalaryStructure(payroll.SalaryStructure{
			EmployeeID:      ss.EmployeeID,
			Basic:           ss.Basic,
			HRA:             ss.HRA,
			DA:              ss.DA,
			LTA:             ss.LTA,
			Conveyance:      ss.Conveyance,
			Medical:         ss.Medical,
			Bonuses:         ss.Bonuses,
			OtherBenefits:   ss.OtherBenefits,
			PF:              ss.PF,
			ProfessionalTax: ss.ProfessionalTax,
			IncomeTax:       ss.IncomeTax,
			EPF:             ss.EPF,
			ESIC:            ss.ESIC,
		})
	}
	return nil
}
