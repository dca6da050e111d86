package auth

// Role is the access tier a user holds. Roles are strictly ordered:
// every EVENT_ADMIN capability is also held by ULTIMATE_ADMIN.
type Role string

const (
	RoleStandardUser  Role = "STANDARD_USER"
	RoleEventAdmin    Role = "EVENT_ADMIN"
	RoleUltimateAdmin Role = "ULTIMATE_ADMIN"
)

// ParseRole maps a stored value onto a Role. Unknown values collapse
// to STANDARD_USER so a corrupted row can never widen access.
func ParseRole(value string) Role {
	switch Role(value) {
	case RoleEventAdmin:
		return RoleEventAdmin
	case RoleUltimateAdmin:
		return RoleUltimateAdmin
	default:
		return RoleStandardUser
	}
}

// IsValidRole reports whether value names one of the three roles.
func IsValidRole(value string) bool {
	switch Role(value) {
	case RoleStandardUser, RoleEventAdmin, RoleUltimateAdmin:
		return true
	default:
		return false
	}
}

// HasRole reports whether role is among allowed. An empty allowed set
// never grants access.
func HasRole(role Role, allowed ...Role) bool {
	for _, candidate := range allowed {
		if role == candidate {
			return true
		}
	}
	return false
}

// IsEventAdmin reports whether role carries event administration
// rights.
func IsEventAdmin(role Role) bool {
	return role == RoleEventAdmin || role == RoleUltimateAdmin
}

// IsUltimateAdmin reports whether role is the top tier.
func IsUltimateAdmin(role Role) bool {
	return role == RoleUltimateAdmin
}
