package user

import "context"

// RoleRepository resolves the role of an acting user. An actor without a
// recorded role is returned as RoleEmployee.
type RoleRepository interface {
	GetRole(ctx context.Context, actorID string) (Role, error)
}
