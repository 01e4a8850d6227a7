package models

import "strings"

// Role is a user's platform role. The set is closed.
type Role string

const (
	RoleSuperAdmin Role = "superadmin" // crosses tenant boundaries
	RoleAdmin      Role = "admin"      // administers one organization
	RoleBoard      Role = "board"      // HOA board member
	RoleMember     Role = "member"     // resident / homeowner
)

// ParseRole normalizes a stored role string. Unknown values map to "" so
// they never grant anything.
func ParseRole(s string) Role {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleSuperAdmin, RoleAdmin, RoleBoard, RoleMember:
		return r
	}
	return ""
}

// IsSuperAdmin reports whether the role is the cross-tenant operator role.
func (r Role) IsSuperAdmin() bool {
	return r == RoleSuperAdmin
}

func (r Role) String() string { return string(r) }
