package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type roleRepositoryImpl struct {
	db *database.DB
}

func NewRoleRepository(db *database.DB) user.RoleRepository {
	return &roleRepositoryImpl{db: db}
}

// GetRole implements user.RoleRepository. Actors without a row are employees.
func (r *roleRepositoryImpl) GetRole(ctx context.Context, actorID string) (user.Role, error) {
	q := GetQuerier(ctx, r.db)

	var role user.Role
	err := q.QueryRow(ctx, `SELECT role FROM user_roles WHERE actor_id = $1`, actorID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.RoleEmployee, nil
		}
		return "", fmt.Errorf("failed to get role for %s: %w", actorID, err)
	}
	if !role.IsValid() {
		return user.RoleEmployee, nil
	}
	return role, nil
}
