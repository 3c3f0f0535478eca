package validator

import "errors"

// Stable error codes carried by ValidationError.Code.
const (
	CodeInvalid         = "invalid"
	CodeBlank           = "blank"
	CodeTooLong         = "too_long"
	CodeTaken           = "taken"
	CodeLimitExceeded   = "resource_type_limit_exceeded"
	CodeInvalidOption   = "invalid_option"
	CodeDuplicateOption = "duplicate_option"
	CodeImmutable       = "immutable"
	CodeInclusion       = "inclusion"
)

// ErrInvalidPattern is returned when a regular expression does not compile.
var ErrInvalidPattern = errors.New("invalid pattern")
