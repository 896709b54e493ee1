package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datagate/internal/authz"
	dErrors "datagate/pkg/domain-errors"
)

func validUser() *User {
	return &User{UserID: "u1", Address: "a1", Org: "orgA", Role: []authz.Role{authz.RoleEnterprise}}
}

func TestValidateFields(t *testing.T) {
	require.NoError(t, validUser().ValidateFields())

	cases := map[string]func(u *User){
		"empty user id":  func(u *User) { u.UserID = "" },
		"empty address":  func(u *User) { u.Address = "" },
		"empty org":      func(u *User) { u.Org = "" },
		"empty role":     func(u *User) { u.Role = nil },
		"unknown role":   func(u *User) { u.Role = []authz.Role{"ROLE_0009"} },
		"one role wrong": func(u *User) { u.Role = []authz.Role{authz.RoleBank, "bank"} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			u := validUser()
			mutate(u)
			err := u.ValidateFields()
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}

func TestValidateSystemOrg(t *testing.T) {
	u := validUser()
	u.Role = []authz.Role{authz.RoleSystem}
	assert.True(t, dErrors.HasCode(u.ValidateSystemOrg(), dErrors.CodeValidation))

	u.Org = authz.SystemOrg
	assert.NoError(t, u.ValidateSystemOrg())

	assert.NoError(t, validUser().ValidateSystemOrg())
}

func TestClone(t *testing.T) {
	u := validUser()
	c := u.Clone()
	c.Role[0] = authz.RoleBank
	assert.Equal(t, authz.RoleEnterprise, u.Role[0])
}

func TestNewSystemUser(t *testing.T) {
	u, err := NewSystemUser("creator")
	require.NoError(t, err)
	assert.Equal(t, authz.SystemUserID, u.UserID)
	assert.Equal(t, authz.SystemOrg, u.Org)
	assert.True(t, u.HasRole(authz.RoleSystem))
	require.NoError(t, u.ValidateFields())
	require.NoError(t, u.ValidateSystemOrg())

	_, err = NewSystemUser("")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestDecodeRoleNames(t *testing.T) {
	t.Run("names decode to wire tags", func(t *testing.T) {
		var u User
		require.NoError(t, json.Unmarshal([]byte(`{"user_id":"u1","address":"a1","org":"orgA","role":["ENTERPRISE","BANK"]}`), &u))
		assert.Equal(t, []authz.Role{authz.RoleEnterprise, authz.RoleBank}, u.Role)
		require.NoError(t, u.ValidateFields())
	})

	t.Run("unknown roles still fail validation", func(t *testing.T) {
		var u User
		require.NoError(t, json.Unmarshal([]byte(`{"user_id":"u1","address":"a1","org":"orgA","role":["ADMIN"]}`), &u))
		err := u.ValidateFields()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}
