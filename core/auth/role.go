package auth

import (
	"musicapp/core/apperr"
	"musicapp/model"
)

// ErrAdminOnly is returned by RequireRole for users lacking the admin role.
var ErrAdminOnly = apperr.Forbidden("Access denied. Admin only.")

// RequireRole reports whether user holds role. It does no I/O.
func RequireRole(user *model.User, role string) error {
	if user == nil || user.Role != role {
		if role == model.RoleAdmin {
			return ErrAdminOnly
		}
		return apperr.Forbidden("Access denied.")
	}
	return nil
}
