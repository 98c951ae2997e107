package user

type Role string

const (
	RoleEmployee   Role = "employee"   // Regular employee
	RoleManager    Role = "manager"    // Line manager; approves through the reporting chain only
	RoleAdmin      Role = "admin"      // HR administrator
	RoleSuperAdmin Role = "superadmin" // Full access
)

// IsAdministrative reports whether the role may lock months and act on any
// employee's leave regardless of reporting lines.
func (r Role) IsAdministrative() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

func (r Role) IsValid() bool {
	switch r {
	case RoleEmployee, RoleManager, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}
