package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datagate/internal/authz"
	"datagate/internal/storage"
	"datagate/internal/user"
	"datagate/internal/user/models"
	dErrors "datagate/pkg/domain-errors"
)

func TestSeedSystemUser(t *testing.T) {
	ctx := context.Background()

	t.Run("stores the system user under the address", func(t *testing.T) {
		backend := storage.NewMemory()
		seeded, err := user.SeedSystemUser(ctx, backend, "creator")
		require.NoError(t, err)

		stored, err := user.NewStore(backend).Load(ctx, "creator")
		require.NoError(t, err)
		assert.Equal(t, seeded, stored)
		assert.Equal(t, []authz.Role{authz.RoleSystem}, stored.Role)
	})

	t.Run("rejects an empty address", func(t *testing.T) {
		_, err := user.SeedSystemUser(ctx, storage.NewMemory(), "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("leaves an existing user untouched", func(t *testing.T) {
		backend := storage.NewMemory()
		existing := &models.User{UserID: "x", Address: "creator", Org: authz.SystemOrg, Role: []authz.Role{authz.RoleSystem, authz.RoleBank}}
		require.NoError(t, user.NewStore(backend).Save(ctx, "creator", existing))

		got, err := user.SeedSystemUser(ctx, backend, "creator")
		require.NoError(t, err)
		assert.Equal(t, existing, got)
		assert.Equal(t, 1, backend.Len(user.Collection.Name()))
	})
}
