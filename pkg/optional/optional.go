// Package optional provides a tri-state value for partial update requests:
// a field can be absent, explicitly null, or set to a value.
package optional

import (
	"bytes"
	"encoding/json"
)

type state uint8

const (
	unset state = iota
	null
	set
)

// Value is Unset by default. Decoding JSON null yields Null, any other JSON
// value yields Set. A struct field that is missing from the payload stays Unset.
type Value[T any] struct {
	v     T
	state state
}

// Of returns a Set value.
func Of[T any](v T) Value[T] {
	return Value[T]{v: v, state: set}
}

// Null returns an explicitly null value.
func Null[T any]() Value[T] {
	return Value[T]{state: null}
}

// FromPtr maps nil to Unset and anything else to Set.
func FromPtr[T any](p *T) Value[T] {
	if p == nil {
		return Value[T]{}
	}
	return Of(*p)
}

func (o Value[T]) IsSet() bool   { return o.state == set }
func (o Value[T]) IsNull() bool  { return o.state == null }
func (o Value[T]) IsUnset() bool { return o.state == unset }

// Present reports whether the field was supplied at all, null included.
func (o Value[T]) Present() bool { return o.state != unset }

// Get returns the value and whether it is Set.
func (o Value[T]) Get() (T, bool) {
	return o.v, o.state == set
}

// Or returns the value when Set, fallback otherwise.
func (o Value[T]) Or(fallback T) T {
	if o.state == set {
		return o.v
	}
	return fallback
}

// Apply writes the value into dst when Set. Null and Unset leave dst untouched.
func (o Value[T]) Apply(dst *T) bool {
	if o.state != set {
		return false
	}
	*dst = o.v
	return true
}

func (o Value[T]) MarshalJSON() ([]byte, error) {
	if o.state != set {
		return []byte("null"), nil
	}
	return json.Marshal(o.v)
}

func (o *Value[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		o.v, o.state = zero, null
		return nil
	}
	if err := json.Unmarshal(data, &o.v); err != nil {
		return err
	}
	o.state = set
	return nil
}
