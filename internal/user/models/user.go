package models

import (
	"slices"

	"datagate/internal/authz"
	dErrors "datagate/pkg/domain-errors"
)

// User is a registered participant. Address is both the storage key and the
// caller identity; UserID is only a label.
//
// Invariants:
//   - UserID, Address, Org are non-empty
//   - Role is a non-empty set of valid roles
//   - a user holding SYSTEM belongs to authz.SystemOrg
//   - immutable once stored
type User struct {
	UserID  string       `json:"user_id"`
	Address string       `json:"address"`
	Org     string       `json:"org"`
	Role    []authz.Role `json:"role"`
}

// HasRole reports whether the user holds role exactly.
func (u *User) HasRole(role authz.Role) bool {
	return authz.HasRole(u.Role, role)
}

// ValidateFields checks the field-level invariants that need no stored state.
// The SYSTEM organization rule is checked separately by ValidateSystemOrg since
// registration only applies it once the caller is authorized.
func (u *User) ValidateFields() error {
	switch {
	case u.UserID == "":
		return dErrors.New(dErrors.CodeValidation, "user id is empty")
	case u.Address == "":
		return dErrors.New(dErrors.CodeValidation, "user address is empty")
	case u.Org == "":
		return dErrors.New(dErrors.CodeValidation, "user org is empty")
	case len(u.Role) == 0:
		return dErrors.New(dErrors.CodeValidation, "user role is empty")
	case !authz.IsValidRoleSet(u.Role):
		return dErrors.New(dErrors.CodeValidation, "user role is wrong")
	}
	return nil
}

// ValidateSystemOrg enforces that SYSTEM users belong to the system organization.
func (u *User) ValidateSystemOrg() error {
	if u.HasRole(authz.RoleSystem) && u.Org != authz.SystemOrg {
		return dErrors.New(dErrors.CodeValidation, "user org is wrong")
	}
	return nil
}

// Clone returns a deep copy so callers never alias a stored value.
func (u *User) Clone() *User {
	c := *u
	c.Role = slices.Clone(u.Role)
	return &c
}

// NewSystemUser builds the SYSTEM user seeded at bootstrap.
func NewSystemUser(address string) (*User, error) {
	if address == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "address is empty")
	}
	return &User{
		UserID:  authz.SystemUserID,
		Address: address,
		Org:     authz.SystemOrg,
		Role:    []authz.Role{authz.RoleSystem},
	}, nil
}
