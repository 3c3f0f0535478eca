package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrymomot/metafields/pkg/scopes"
)

// Authorizer maps roles to permissions, following role inheritance and
// wildcard scopes.
type Authorizer interface {
	// Can checks if a role has the specified permission (direct or inherited).
	Can(roleName, permission string) error

	// CanFromContext checks if the role in context has the specified permission.
	CanFromContext(ctx context.Context, permission string) error

	// VerifyRole returns an error if the given role does not exist.
	VerifyRole(role string) error
}

// RoleSource defines the interface for providing role data.
type RoleSource interface {
	Load(ctx context.Context) (map[string]Role, error)
}

type authorizer struct {
	// Direct and inherited permissions per role; immutable after construction.
	rolePermissions map[string][]string
}

// NewAuthorizer loads roles from source and precomputes every role's
// effective permission set.
func NewAuthorizer(ctx context.Context, source RoleSource) (Authorizer, error) {
	roles, err := source.Load(ctx)
	if err != nil {
		return nil, err
	}

	if err := validateRoles(roles); err != nil {
		return nil, err
	}

	rolePermissions := make(map[string][]string, len(roles))
	for name := range roles {
		rolePermissions[name] = scopes.NormalizeScopes(collectPermissions(name, roles, 0))
	}

	return &authorizer{rolePermissions: rolePermissions}, nil
}

func (a *authorizer) Can(roleName, permission string) error {
	permissions, exists := a.rolePermissions[roleName]
	if !exists {
		return ErrInvalidRole
	}

	if !scopes.HasScope(permissions, permission) {
		return ErrInsufficientPermissions
	}

	return nil
}

func (a *authorizer) CanFromContext(ctx context.Context, permission string) error {
	role, ok := GetRoleFromContext(ctx)
	if !ok {
		return errors.Join(ErrRoleNotInContext, ErrInsufficientPermissions)
	}

	return a.Can(role, permission)
}

func (a *authorizer) VerifyRole(role string) error {
	if _, exists := a.rolePermissions[role]; !exists {
		return ErrInvalidRole
	}
	return nil
}

// collectPermissions gathers direct and inherited permissions. Roles are
// validated as acyclic before this runs.
func collectPermissions(name string, roles map[string]Role, depth int) []string {
	role, exists := roles[name]
	if !exists || depth > MaxInheritanceDepth {
		return nil
	}

	result := append([]string(nil), role.Permissions...)
	for _, parent := range role.Inherits {
		result = append(result, collectPermissions(parent, roles, depth+1)...)
	}
	return result
}

func validateRoles(roles map[string]Role) error {
	for name, role := range roles {
		for _, p := range role.Permissions {
			if err := scopes.ValidateScope(p); err != nil {
				return errors.Join(ErrInvalidPermission, fmt.Errorf("role %s: %q", name, p))
			}
		}
		if err := checkInheritance(name, roles, []string{name}); err != nil {
			return err
		}
	}
	return nil
}

// checkInheritance walks the inheritance graph depth-first and rejects
// cycles and chains deeper than MaxInheritanceDepth.
func checkInheritance(name string, roles map[string]Role, path []string) error {
	if len(path) > MaxInheritanceDepth+1 {
		return errors.Join(ErrCircularInheritance,
			fmt.Errorf("inheritance depth exceeds maximum allowed depth of %d", MaxInheritanceDepth))
	}

	for _, parent := range roles[name].Inherits {
		for _, seen := range path {
			if seen == parent {
				return errors.Join(ErrCircularInheritance,
					fmt.Errorf("circular inheritance detected: %s -> %s", name, parent))
			}
		}
		if err := checkInheritance(parent, roles, append(path, parent)); err != nil {
			return err
		}
	}
	return nil
}
