package scopes

import (
	"slices"
	"strings"
)

const (
	// ScopeSeparator is used to separate multiple scopes in a string
	ScopeSeparator = " "

	// ScopeWildcard represents a wildcard scope that matches everything
	ScopeWildcard = "*"

	// ScopeDelimiter is used to separate scope parts (e.g., "metafields.write.products")
	ScopeDelimiter = "."
)

// ParseScopes converts a space-separated string of scopes into a string slice.
// Returns nil for empty input.
//
//	scopes.ParseScopes("metafields.read.* metafields.write.products")
//	// []string{"metafields.read.*", "metafields.write.products"}
func ParseScopes(scopesStr string) []string {
	fields := strings.Fields(scopesStr)
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// Join builds a scope from its parts, e.g. Join("metafields", "write", "products").
func Join(parts ...string) string {
	return strings.Join(parts, ScopeDelimiter)
}

// ScopeMatches checks if a single scope matches a pattern.
//
// Pattern matching rules:
//   - Direct match: "metafields.read.products" matches itself
//   - Global wildcard: "*" matches any scope
//   - Namespace wildcard: "metafields.read.*" matches any scope starting with "metafields.read."
func ScopeMatches(scope, pattern string) bool {
	if scope == pattern || pattern == ScopeWildcard {
		return true
	}

	if prefix, ok := strings.CutSuffix(pattern, ScopeWildcard); ok {
		prefix = strings.TrimSuffix(prefix, ScopeDelimiter)
		return strings.HasPrefix(scope, prefix+ScopeDelimiter)
	}

	return false
}

// HasScope checks if any of scopes grants scope.
func HasScope(scopes []string, scope string) bool {
	return slices.ContainsFunc(scopes, func(pattern string) bool {
		return ScopeMatches(scope, pattern)
	})
}

// HasAllScopes checks if scopes grant every required scope.
// An empty required list is always satisfied.
func HasAllScopes(scopes, required []string) bool {
	for _, r := range required {
		if !HasScope(scopes, r) {
			return false
		}
	}
	return true
}

// ValidateScope reports whether scope is well formed: non-empty parts
// and a wildcard only as the last part.
func ValidateScope(scope string) error {
	if scope == ScopeWildcard {
		return nil
	}
	parts := strings.Split(scope, ScopeDelimiter)
	for i, part := range parts {
		if part == "" || strings.ContainsAny(part, " \t\n") {
			return ErrInvalidScope
		}
		if strings.Contains(part, ScopeWildcard) && (part != ScopeWildcard || i != len(parts)-1) {
			return ErrInvalidScope
		}
	}
	return nil
}

// NormalizeScopes returns the sorted, de-duplicated scopes.
// Returns nil for empty input.
func NormalizeScopes(scopes []string) []string {
	if len(scopes) == 0 {
		return nil
	}
	out := slices.Clone(scopes)
	slices.Sort(out)
	return slices.Compact(out)
}
