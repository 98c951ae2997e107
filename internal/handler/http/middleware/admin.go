package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/handler/http/response"
)

// RequireAdmin allows only actors whose stored role is administrative.
func RequireAdmin(roles user.RoleRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actorID, ok := ActorFromContext(r.Context())
			if !ok {
				response.Unauthorized(w, "Authentication required")
				return
			}

			role, err := roles.GetRole(r.Context(), actorID)
			if err != nil {
				response.HandleError(w, err)
				return
			}
			if !role.IsAdministrative() {
				response.HandleError(w, user.ErrAdminPrivilegeRequired)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
