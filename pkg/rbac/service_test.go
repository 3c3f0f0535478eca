package rbac_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/metafields/pkg/rbac"
)

func newAuthorizer(t *testing.T) rbac.Authorizer {
	t.Helper()

	authz, err := rbac.NewAuthorizer(context.Background(), rbac.NewInMemRoleSource(map[string]rbac.Role{
		"viewer": {Permissions: []string{"metafields.read.*"}},
		"editor": {Permissions: []string{"metafields.write.products"}, Inherits: []string{"viewer"}},
		"admin":  {Permissions: []string{"metafields.*"}},
	}))
	require.NoError(t, err)
	return authz
}

func TestAuthorizer_Can(t *testing.T) {
	t.Parallel()

	authz := newAuthorizer(t)

	tests := []struct {
		name       string
		role       string
		permission string
		wantErr    error
	}{
		{"viewer reads", "viewer", "metafields.read.orders", nil},
		{"viewer cannot write", "viewer", "metafields.write.products", rbac.ErrInsufficientPermissions},
		{"editor inherits read", "editor", "metafields.read.customers", nil},
		{"editor writes products", "editor", "metafields.write.products", nil},
		{"editor cannot write orders", "editor", "metafields.write.orders", rbac.ErrInsufficientPermissions},
		{"admin deletes", "admin", "metafields.delete.orders", nil},
		{"unknown role", "ghost", "metafields.read.orders", rbac.ErrInvalidRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := authz.Can(tt.role, tt.permission)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAuthorizer_CanFromContext(t *testing.T) {
	t.Parallel()

	authz := newAuthorizer(t)

	err := authz.CanFromContext(context.Background(), "metafields.read.orders")
	assert.ErrorIs(t, err, rbac.ErrRoleNotInContext)
	assert.ErrorIs(t, err, rbac.ErrInsufficientPermissions)

	ctx := rbac.SetRoleToContext(context.Background(), "viewer")
	assert.NoError(t, authz.CanFromContext(ctx, "metafields.read.orders"))
	assert.NoError(t, authz.VerifyRole("viewer"))
	assert.ErrorIs(t, authz.VerifyRole("ghost"), rbac.ErrInvalidRole)
}

func TestNewAuthorizer_InvalidRoles(t *testing.T) {
	t.Parallel()

	t.Run("circular inheritance", func(t *testing.T) {
		t.Parallel()

		_, err := rbac.NewAuthorizer(context.Background(), rbac.NewInMemRoleSource(map[string]rbac.Role{
			"a": {Inherits: []string{"b"}},
			"b": {Inherits: []string{"a"}},
		}))
		assert.ErrorIs(t, err, rbac.ErrCircularInheritance)
	})

	t.Run("malformed permission", func(t *testing.T) {
		t.Parallel()

		_, err := rbac.NewAuthorizer(context.Background(), rbac.NewInMemRoleSource(map[string]rbac.Role{
			"a": {Permissions: []string{"metafields..read"}},
		}))
		assert.ErrorIs(t, err, rbac.ErrInvalidPermission)
	})
}
