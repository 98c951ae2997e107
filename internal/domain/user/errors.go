package user

import "github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/apperror"

var (
	ErrAdminPrivilegeRequired = apperror.New(apperror.KindAuthorization, "ADMIN_PRIVILEGE_REQUIRED", "admin privilege required")
)
