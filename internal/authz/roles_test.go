package authz

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleSystem, RoleEnterprise, RoleGovernment, RoleBank} {
		assert.True(t, r.Valid(), "role %s", r)
		assert.NotEmpty(t, r.Name())
	}
	for _, r := range []Role{"", "ROLE_0005", "SYSTEM", "role_0001"} {
		assert.False(t, r.Valid(), "role %q", r)
	}
}

func TestParseRole(t *testing.T) {
	t.Run("accepts wire tags and names", func(t *testing.T) {
		r, err := ParseRole("ROLE_0003")
		require.NoError(t, err)
		assert.Equal(t, RoleGovernment, r)

		r, err = ParseRole("BANK")
		require.NoError(t, err)
		assert.Equal(t, RoleBank, r)
	})

	t.Run("rejects unknown values", func(t *testing.T) {
		_, err := ParseRole("ADMIN")
		assert.Error(t, err)
	})
}

func TestIsValidRoleSet(t *testing.T) {
	assert.True(t, IsValidRoleSet([]Role{RoleEnterprise}))
	assert.True(t, IsValidRoleSet([]Role{RoleSystem, RoleBank}))
	assert.False(t, IsValidRoleSet(nil))
	assert.False(t, IsValidRoleSet([]Role{}))
	assert.False(t, IsValidRoleSet([]Role{RoleEnterprise, "ROLE_9999"}))
}

func TestHasRoleHasNoHierarchy(t *testing.T) {
	system := []Role{RoleSystem}
	assert.True(t, HasRole(system, RoleSystem))
	assert.False(t, HasRole(system, RoleEnterprise))
	assert.False(t, HasRole(nil, RoleSystem))
}

func TestIsPermitted(t *testing.T) {
	permission := []string{"a1", "a2"}
	assert.True(t, IsPermitted("a2", permission))
	assert.False(t, IsPermitted("a3", permission))
	assert.False(t, IsPermitted("", permission))
	assert.False(t, IsPermitted("a1", nil))
}

func TestRoleUnmarshalJSON(t *testing.T) {
	var roles []Role
	require.NoError(t, json.Unmarshal([]byte(`["ENTERPRISE","ROLE_0004","ADMIN"]`), &roles))
	assert.Equal(t, []Role{RoleEnterprise, RoleBank, "ADMIN"}, roles)

	out, err := json.Marshal([]Role{RoleEnterprise})
	require.NoError(t, err)
	assert.JSONEq(t, `["ROLE_0002"]`, string(out))
}
