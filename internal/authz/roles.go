// Package authz holds the stateless authorization rules shared by the user and
// application registries.
//
// Two models coexist and are deliberately kept apart:
//   - role membership (HasRole) gates registration and submission;
//   - permission-list membership (IsPermitted) gates audit and read.
//
// There is no role hierarchy: SYSTEM does not imply any other role.
package authz

import (
	"fmt"
	"slices"
)

// Role is a capability tag assigned to a user. The set of roles is closed.
type Role string

const (
	RoleSystem     Role = "ROLE_0001"
	RoleEnterprise Role = "ROLE_0002"
	RoleGovernment Role = "ROLE_0003"
	RoleBank       Role = "ROLE_0004"
)

const (
	// SystemOrg is the only organization a SYSTEM user may belong to.
	SystemOrg = "SYSTEM"
	// SystemUserID labels the user seeded at bootstrap.
	SystemUserID = "SYSTEM"
)

// Valid reports whether r is one of the four enumerated roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleEnterprise, RoleGovernment, RoleBank:
		return true
	default:
		return false
	}
}

// Name returns the human-readable role name, or "" for an unknown tag.
func (r Role) Name() string {
	switch r {
	case RoleSystem:
		return "SYSTEM"
	case RoleEnterprise:
		return "ENTERPRISE"
	case RoleGovernment:
		return "GOVERNMENT"
	case RoleBank:
		return "BANK"
	default:
		return ""
	}
}

// ParseRole accepts either the wire tag ("ROLE_0002") or the role name
// ("ENTERPRISE") and rejects anything else.
func ParseRole(s string) (Role, error) {
	for _, r := range []Role{RoleSystem, RoleEnterprise, RoleGovernment, RoleBank} {
		if s == string(r) || s == r.Name() {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// UnmarshalText normalises a role name to its wire tag. Values that are
// neither are kept verbatim so field validation can reject them.
func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		*r = Role(b)
		return nil
	}
	*r = parsed
	return nil
}

// IsValidRoleSet reports whether roles is non-empty and every tag is valid.
func IsValidRoleSet(roles []Role) bool {
	if len(roles) == 0 {
		return false
	}
	for _, r := range roles {
		if !r.Valid() {
			return false
		}
	}
	return true
}

// HasRole is an exact membership test on a user's roles.
func HasRole(roles []Role, role Role) bool {
	return slices.Contains(roles, role)
}

// IsPermitted is an exact membership test of address in an application's
// permission list. Roles play no part in it.
func IsPermitted(address string, permission []string) bool {
	return slices.Contains(permission, address)
}
