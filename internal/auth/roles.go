package auth

import "strings"

// Role is the access level carried in the token's role claim.
type Role string

const (
	// RoleViewer may look up tariffs.
	RoleViewer Role = "viewer"
	// RoleOperator may run adjustments.
	RoleOperator Role = "operator"
	// RoleAdmin may reach every API path.
	RoleAdmin Role = "admin"
)

// NormalizeRole validates a role string, ignoring case and surrounding space.
func NormalizeRole(value string) (Role, bool) {
	switch role := Role(strings.ToLower(strings.TrimSpace(value))); role {
	case RoleViewer, RoleOperator, RoleAdmin:
		return role, true
	default:
		return "", false
	}
}

// RoleAtLeast reports whether role satisfies required.
func RoleAtLeast(role, required Role) bool {
	return roleRank(role) >= roleRank(required)
}

func roleRank(role Role) int {
	switch role {
	case RoleViewer:
		return 1
	case RoleOperator:
		return 2
	case RoleAdmin:
		return 3
	default:
		return 0
	}
}
