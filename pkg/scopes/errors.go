package scopes

import "errors"

// ErrInvalidScope is returned when a scope is not valid
var ErrInvalidScope = errors.New("scopes: invalid scope format")
