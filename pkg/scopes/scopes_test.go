package scopes_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/metafields/pkg/scopes"
)

func TestParseScopes(t *testing.T) {
	t.Parallel()

	assert.Nil(t, scopes.ParseScopes(""))
	assert.Nil(t, scopes.ParseScopes("   "))
	assert.Equal(t, []string{"metafields.read.*", "metafields.write.products"},
		scopes.ParseScopes("  metafields.read.*   metafields.write.products "))
}

func TestScopeMatches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		scope   string
		pattern string
		want    bool
	}{
		{"metafields.read.products", "metafields.read.products", true},
		{"metafields.read.products", "*", true},
		{"metafields.read.products", "metafields.read.*", true},
		{"metafields.read.products", "metafields.*", true},
		{"metafields.write.products", "metafields.read.*", false},
		{"metafields.read", "metafields.read.*", false},
		{"metafieldsx.read.products", "metafields.*", false},
	}

	for _, tt := range tests {
		t.Run(tt.scope+"~"+tt.pattern, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, scopes.ScopeMatches(tt.scope, tt.pattern))
		})
	}
}

func TestHasAllScopes(t *testing.T) {
	t.Parallel()

	granted := []string{"metafields.read.*", "metafields.write.products"}

	assert.True(t, scopes.HasAllScopes(granted, nil))
	assert.True(t, scopes.HasAllScopes(granted, []string{"metafields.read.orders", "metafields.write.products"}))
	assert.False(t, scopes.HasAllScopes(granted, []string{"metafields.write.orders"}))
	assert.False(t, scopes.HasAllScopes(nil, []string{"metafields.read.orders"}))
}

func TestValidateScope(t *testing.T) {
	t.Parallel()

	assert.NoError(t, scopes.ValidateScope("*"))
	assert.NoError(t, scopes.ValidateScope("metafields.write.*"))
	assert.NoError(t, scopes.ValidateScope(scopes.Join("metafields", "delete", "orders")))
	assert.ErrorIs(t, scopes.ValidateScope("metafields..orders"), scopes.ErrInvalidScope)
	assert.ErrorIs(t, scopes.ValidateScope("metafields.*.orders"), scopes.ErrInvalidScope)
	assert.ErrorIs(t, scopes.ValidateScope(""), scopes.ErrInvalidScope)
}

func TestNormalizeScopes(t *testing.T) {
	t.Parallel()

	assert.Nil(t, scopes.NormalizeScopes(nil))
	assert.Equal(t, []string{"a", "b", "c"}, scopes.NormalizeScopes([]string{"c", "a", "b", "a"}))
}
