package optional_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/metafields/pkg/optional"
)

type patch struct {
	Name        optional.Value[string] `json:"name"`
	Description optional.Value[string] `json:"description"`
	Pin         optional.Value[bool]   `json:"pin"`
}

func TestValue_JSON(t *testing.T) {
	t.Parallel()

	var p patch
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Color","description":null}`), &p))

	name, ok := p.Name.Get()
	assert.True(t, ok)
	assert.Equal(t, "Color", name)

	assert.True(t, p.Description.IsNull())
	assert.True(t, p.Description.Present())
	assert.True(t, p.Pin.IsUnset())
	assert.False(t, p.Pin.Present())
}

func TestValue_Apply(t *testing.T) {
	t.Parallel()

	dst := "old"
	assert.False(t, optional.Value[string]{}.Apply(&dst))
	assert.False(t, optional.Null[string]().Apply(&dst))
	assert.Equal(t, "old", dst)

	assert.True(t, optional.Of("new").Apply(&dst))
	assert.Equal(t, "new", dst)
}

func TestValue_Helpers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 5, optional.Value[int]{}.Or(5))
	assert.Equal(t, 7, optional.Of(7).Or(5))

	var nilPtr *int
	assert.True(t, optional.FromPtr(nilPtr).IsUnset())
	v := 3
	assert.Equal(t, 3, optional.FromPtr(&v).Or(0))

	out, err := json.Marshal(optional.Of("x"))
	require.NoError(t, err)
	assert.JSONEq(t, `"x"`, string(out))
}
