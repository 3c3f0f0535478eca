package validator

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure.
// Fields is the path to the offending input, e.g. ["metafields", "0", "value"].
type ValidationError struct {
	Code              string
	Fields            []string
	Message           string
	TranslationKey    string
	TranslationValues map[string]any
}

// Field returns the dotted form of the error path.
func (e ValidationError) Field() string {
	return strings.Join(e.Fields, ".")
}

// NewError builds a ValidationError for the given path.
func NewError(code, message string, fields ...string) ValidationError {
	return ValidationError{
		Code:           code,
		Fields:         slices.Clone(fields),
		Message:        message,
		TranslationKey: "validation." + code,
	}
}

// ValidationErrors represents a collection of validation errors.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}

	parts := make([]string, 0, len(ve))
	for _, err := range ve {
		parts = append(parts, fmt.Sprintf("%s: %s", err.Field(), err.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (ve *ValidationErrors) Add(err ValidationError) {
	*ve = append(*ve, err)
}

// Merge appends every error from other.
func (ve *ValidationErrors) Merge(other ValidationErrors) {
	*ve = append(*ve, other...)
}

// Has reports whether any error points at the given path.
func (ve ValidationErrors) Has(fields ...string) bool {
	for _, err := range ve {
		if slices.Equal(err.Fields, fields) {
			return true
		}
	}
	return false
}

// Get returns the messages recorded for the given path.
func (ve ValidationErrors) Get(fields ...string) []string {
	var messages []string
	for _, err := range ve {
		if slices.Equal(err.Fields, fields) {
			messages = append(messages, err.Message)
		}
	}
	return messages
}

// HasCode reports whether any error carries the given code.
func (ve ValidationErrors) HasCode(code string) bool {
	return slices.ContainsFunc(ve, func(err ValidationError) bool {
		return err.Code == code
	})
}

// Fields returns the distinct dotted paths in insertion order.
func (ve ValidationErrors) Fields() []string {
	var fields []string
	seen := make(map[string]bool)
	for _, err := range ve {
		f := err.Field()
		if !seen[f] {
			fields = append(fields, f)
			seen[f] = true
		}
	}
	return fields
}

func (ve ValidationErrors) IsEmpty() bool {
	return len(ve) == 0
}

// Prefixed returns a copy with every path re-rooted under prefix.
func (ve ValidationErrors) Prefixed(prefix ...string) ValidationErrors {
	if len(ve) == 0 {
		return nil
	}
	out := make(ValidationErrors, len(ve))
	for i, err := range ve {
		err.Fields = append(slices.Clone(prefix), err.Fields...)
		out[i] = err
	}
	return out
}

// Err returns nil for an empty collection so callers can return it directly.
func (ve ValidationErrors) Err() error {
	if len(ve) == 0 {
		return nil
	}
	return ve
}

// Rule represents a single validation rule.
type Rule struct {
	Check func() bool
	Error ValidationError
}

// WithMessage returns a copy of the rule reporting msg on failure.
func (r Rule) WithMessage(msg string) Rule {
	r.Error.Message = msg
	return r
}

// At returns a copy of the rule reporting failures at the given path.
func (r Rule) At(fields ...string) Rule {
	r.Error.Fields = slices.Clone(fields)
	return r
}

// Apply executes all rules and returns every failure.
func Apply(rules ...Rule) error {
	return Collect(rules...).Err()
}

// Collect executes all rules and returns the failures as a collection.
func Collect(rules ...Rule) ValidationErrors {
	var errs ValidationErrors
	for _, rule := range rules {
		if !rule.Check() {
			errs = append(errs, rule.Error)
		}
	}
	return errs
}

// First executes rules in order and stops at the first failure.
func First(rules ...Rule) (ValidationError, bool) {
	for _, rule := range rules {
		if !rule.Check() {
			return rule.Error, false
		}
	}
	return ValidationError{}, true
}

// ExtractValidationErrors extracts ValidationErrors from an error.
func ExtractValidationErrors(err error) ValidationErrors {
	if err == nil {
		return nil
	}

	var validationErr ValidationErrors
	if errors.As(err, &validationErr) {
		return validationErr
	}

	return nil
}

func IsValidationError(err error) bool {
	if err == nil {
		return false
	}

	var validationErr ValidationErrors
	return errors.As(err, &validationErr)
}
