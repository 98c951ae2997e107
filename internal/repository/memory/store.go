// Package memory is an in-process implementation of the repositories. It
// backs the service tests and the memory store driver.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/holiday"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/calendar"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
)

type monthKey struct {
	employeeID string
	year       int
	month      int
}

type storedMonth struct {
	days        []byte
	locked      bool
	lockedBy    *string
	lockedAt    *time.Time
	submitted   bool
	submittedBy *string
	submittedAt *time.Time
	createdAt   time.Time
	updatedAt   time.Time
}

type allocationKey struct {
	employeeID string
	year       int
	code       leave.Code
}

type data struct {
	months       map[monthKey]storedMonth
	applications map[string]leave.Application
	allocations  map[allocationKey]leave.Allocation
	holidays     map[string]holiday.Holiday
	employees    map[string]employee.Employee
	reporting    map[string][]string
	roles        map[string]user.Role
	salaries     map[string]payroll.SalaryStructure
	generated    map[monthKey]payroll.GeneratedSalary
}

// Store holds every table in memory. Transactions are serialized by a single
// mutex and roll back by undoing their own writes in reverse order.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	d    *data
}

func NewStore() *Store {
	return &Store{d: &data{
		months:       make(map[monthKey]storedMonth),
		applications: make(map[string]leave.Application),
		allocations:  make(map[allocationKey]leave.Allocation),
		holidays:     make(map[string]holiday.Holiday),
		employees:    make(map[string]employee.Employee),
		reporting:    make(map[string][]string),
		roles:        make(map[string]user.Role),
		salaries:     make(map[string]payroll.SalaryStructure),
		generated:    make(map[monthKey]payroll.GeneratedSalary),
	}}
}

type txKey struct{}

// txState is the undo log of one transaction.
type txState struct {
	undo []func(d *data)
}

// recordUndo registers how to revert a write. It is a no-op outside a
// transaction. Callers hold s.mu.
func recordUndo(ctx context.Context, undo func(d *data)) {
	if tx, ok := ctx.Value(txKey{}).(*txState); ok {
		tx.undo = append(tx.undo, undo)
	}
}

func inTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*txState)
	return ok
}

type txManager struct {
	s *Store
}

func NewTxManager(s *Store) database.TxManager {
	return &txManager{s: s}
}

// WithinTransaction implements database.TxManager. Writes made outside the
// transaction are never touched by its rollback.
func (m *txManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTransaction(ctx) {
		return fn(ctx)
	}

	m.s.txMu.Lock()
	defer m.s.txMu.Unlock()

	tx := &txState{}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		m.s.mu.Lock()
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i](m.s.d)
		}
		m.s.mu.Unlock()
		return err
	}
	return nil
}

// LockAggregate implements database.TxManager. Transactions already run one
// at a time, so holding the transaction is holding every aggregate.
func (m *txManager) LockAggregate(ctx context.Context, key string) error {
	if !inTransaction(ctx) {
		return errNoTransaction
	}
	return ctx.Err()
}

// ========================================
// SEEDING
// ========================================

// PutEmployee stores an employee with approvers ordered by level.
func (s *Store) PutEmployee(emp employee.Employee, reportingPersons ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.employees[emp.ID] = emp
	s.d.reporting[emp.ID] = slices.Clone(reportingPersons)
}

func (s *Store) PutRole(actorID string, role user.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.roles[actorID] = role
}

func (s *Store) PutHoliday(h holiday.Holiday) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h.Date = calendar.DateOnly(h.Date)
	s.d.holidays[calendar.Format(h.Date)] = h
}

func (s *Store) RemoveHoliday(date time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.d.holidays, calendar.Format(date))
}

func (s *Store) PutAllocation(a leave.Allocation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.allocations[allocationKey{a.EmployeeID, a.Year, a.LeaveType}] = a
}

func (s *Store) PutSalaryStructure(ss payroll.SalaryStructure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.salaries[ss.EmployeeID] = ss
}

// PutApplication stores an application as is, bypassing workflow checks.
func (s *Store) PutApplication(app leave.Application) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.applications[app.ID] = app
}
