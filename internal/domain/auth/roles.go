package auth

import "strings"

type Role string

const (
	RoleEmployee   Role = "EMPLOYEE"
	RoleManager    Role = "MANAGER"
	RoleSupervisor Role = "SUPERVISOR"
	RoleAdmin      Role = "ADMIN"
)

var Roles = []Role{RoleEmployee, RoleManager, RoleSupervisor, RoleAdmin}

// ParseRole accepts a role name in any case. Unknown names report false.
func ParseRole(s string) (Role, bool) {
	role := Role(strings.ToUpper(strings.TrimSpace(s)))
	switch role {
	case RoleEmployee, RoleManager, RoleSupervisor, RoleAdmin:
		return role, true
	}
	return "", false
}

func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// CanApprove reports whether the role may resolve leave, shift swap and approval requests.
func CanApprove(r Role) bool {
	switch r {
	case RoleManager, RoleSupervisor, RoleAdmin:
		return true
	}
	return false
}

func IsAdmin(r Role) bool {
	return r == RoleAdmin
}

// CanViewTeam reports whether the role may read other users' attendance.
func CanViewTeam(r Role) bool {
	return CanApprove(r)
}
