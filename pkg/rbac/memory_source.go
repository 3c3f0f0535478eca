package rbac

import (
	"context"
	"slices"
)

type inMemRoleSource struct {
	roles map[string]Role
}

// NewInMemRoleSource creates a role source over a deep copy of roles.
func NewInMemRoleSource(roles map[string]Role) RoleSource {
	rolesCopy := make(map[string]Role, len(roles))
	for name, role := range roles {
		rolesCopy[name] = Role{
			Permissions: slices.Clone(role.Permissions),
			Inherits:    slices.Clone(role.Inherits),
		}
	}
	return &inMemRoleSource{roles: rolesCopy}
}

// Load returns the map of roles. The authorizer treats it as read-only.
func (s *inMemRoleSource) Load(ctx context.Context) (map[string]Role, error) {
	return s.roles, nil
}
