package leave

import (
	"context"
	"fmt"
	"slices"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/user"
)

// Authorizer decides who may approve or reject an employee's leave: anyone in
// the employee's reporting chain, at any level, or an administrator.
type Authorizer struct {
	employee.Repository
	user.RoleRepository
}

func NewAuthorizer(employeeRepository employee.Repository, roleRepository user.RoleRepository) *Authorizer {
	return &Authorizer{
		Repository:     employeeRepository,
		RoleRepository: roleRepository,
	}
}

// CanDecide returns nil when actorID may act on employeeID's applications and
// leave.ErrNotAuthorized otherwise.
func (a *Authorizer) CanDecide(ctx context.Context, actorID, employeeID string) error {
	role, err := a.RoleRepository.GetRole(ctx, actorID)
	if err != nil {
		return fmt.Errorf("failed to get actor role: %w", err)
	}
	if role.IsAdministrative() {
		return nil
	}

	approvers, err := a.Repository.GetReportingPersons(ctx, employeeID)
	if err != nil {
		return fmt.Errorf("failed to get reporting persons: %w", err)
	}
	if slices.Contains(approvers, actorID) {
		return nil
	}
	return leave.ErrNotAuthorized.With("", map[string]any{"actor_id": actorID, "employee_id": employeeID})
}

// CanApplyFor allows employees to apply for themselves. Applying on someone
// else's behalf needs the same rights as deciding their leave.
func (a *Authorizer) CanApplyFor(ctx context.Context, actorID, employeeID string) error {
	if actorID == employeeID {
		return nil
	}
	return a.CanDecide(ctx, actorID, employeeID)
}

// ScopeFor returns the employees whose pending leave actorID may see. A nil
// result means every employee.
func (a *Authorizer) ScopeFor(ctx context.Context, actorID string) ([]string, error) {
	role, err := a.RoleRepository.GetRole(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get actor role: %w", err)
	}
	if role.IsAdministrative() {
		return nil, nil
	}
	ids, err := a.Repository.GetReportees(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reportees: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}
