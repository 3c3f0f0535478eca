package metafield

import (
	"context"
	"errors"

	"github.com/dmitrymomot/metafields/pkg/rbac"
	"github.com/dmitrymomot/metafields/pkg/scopes"
)

// Action is a permission verb.
type Action string

const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionDelete Action = "delete"
)

// Permission returns the scope guarding action on owner's metafields,
// e.g. "metafields.write.products".
func Permission(action Action, owner OwnerResource) string {
	return scopes.Join("metafields", string(action), owner.Plural())
}

// DefaultRoles is a starter role set for rbac.NewInMemRoleSource.
func DefaultRoles() map[string]rbac.Role {
	return map[string]rbac.Role{
		"viewer": {Permissions: []string{"metafields.read.*"}},
		"editor": {Permissions: []string{"metafields.write.*"}, Inherits: []string{"viewer"}},
		"admin":  {Permissions: []string{"metafields.*"}},
	}
}

// authorize is a no-op without an Authorizer; permission checks are then the caller's job.
func authorize(ctx context.Context, authz rbac.Authorizer, action Action, owner OwnerResource) error {
	if authz == nil {
		return nil
	}
	if err := authz.CanFromContext(ctx, Permission(action, owner)); err != nil {
		return errors.Join(ErrForbidden, err)
	}
	return nil
}
