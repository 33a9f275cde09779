package service

import "github.com/phrazzld/totem-api/internal/domain"

// authorize checks that p may perform an operation requiring role.
// RoleNone admits anonymous callers.
func authorize(p domain.Principal, required domain.Role) error {
	if required == domain.RoleNone {
		return nil
	}
	if !p.Authenticated() {
		return ErrUnauthenticated
	}
	if !p.Role.Satisfies(required) {
		return ErrForbidden
	}
	return nil
}
