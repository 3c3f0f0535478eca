// Package rbac provides role-based access control on top of package scopes.
//
// Roles carry permissions and may inherit other roles. Effective permissions
// are computed once at construction, so checks are map lookups plus scope
// matching.
//
//	roles := map[string]rbac.Role{
//	    "viewer": {Permissions: []string{"metafields.read.*"}},
//	    "editor": {Permissions: []string{"metafields.write.*"}, Inherits: []string{"viewer"}},
//	}
//	authz, err := rbac.NewAuthorizer(ctx, rbac.NewInMemRoleSource(roles))
//
//	ctx = rbac.SetRoleToContext(ctx, "editor")
//	err = authz.CanFromContext(ctx, "metafields.write.products") // nil
package rbac
