package domain

// Role is the access level of an authenticated caller.
type Role string

const (
	// RoleNone is the zero role: anonymous callers and unrestricted operations.
	RoleNone      Role = ""
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

func (r Role) rank() int {
	switch r {
	case RoleUser:
		return 1
	case RoleModerator:
		return 2
	case RoleAdmin:
		return 3
	default:
		return 0
	}
}

// Valid reports whether r is one of the known, non-empty roles.
func (r Role) Valid() bool {
	return r.rank() > 0
}

// Satisfies reports whether a caller holding r may perform an operation
// that requires the given role. RoleNone as requirement admits everyone.
func (r Role) Satisfies(required Role) bool {
	if required == RoleNone {
		return true
	}
	return r.rank() >= required.rank()
}

// Principal is the identity of the caller as established by authentication.
// The zero value is the anonymous principal.
type Principal struct {
	UserID int64
	Role   Role
}

// Authenticated reports whether the principal represents a logged-in user.
func (p Principal) Authenticated() bool {
	return p.UserID != 0
}
