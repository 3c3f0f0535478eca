package rbac

// MaxInheritanceDepth is the maximum allowed depth of role inheritance.
const MaxInheritanceDepth = 10

// Role represents a set of permissions with optional inheritance.
type Role struct {
	// Permissions directly granted to this role, e.g. "metafields.write.*".
	Permissions []string

	// Inherits lists role names this role inherits from.
	Inherits []string
}
