package validator

import (
	"fmt"
	"slices"
	"strings"
)

// InList validates that value equals one of allowedValues.
func InList[T comparable](field string, value T, allowedValues []T) Rule {
	return Rule{
		Check: func() bool {
			return slices.Contains(allowedValues, value)
		},
		Error: ValidationError{
			Code:           CodeInclusion,
			Fields:         []string{field},
			Message:        fmt.Sprintf("must be one of: %v", allowedValues),
			TranslationKey: "validation.in_list",
			TranslationValues: map[string]any{
				"field":          field,
				"allowed_values": allowedValues,
			},
		},
	}
}

// InListString is InList with a human friendly message for strings.
func InListString(field, value string, allowedValues []string) Rule {
	rule := InList(field, value, allowedValues)
	rule.Error.Message = "must be one of: " + strings.Join(allowedValues, ", ")
	return rule
}

// UniqueStrings validates that values holds no duplicates. Comparison is case-sensitive.
func UniqueStrings(field string, values []string) Rule {
	return Rule{
		Check: func() bool {
			seen := make(map[string]struct{}, len(values))
			for _, v := range values {
				if _, ok := seen[v]; ok {
					return false
				}
				seen[v] = struct{}{}
			}
			return true
		},
		Error: ValidationError{
			Code:           CodeDuplicateOption,
			Fields:         []string{field},
			Message:        "can't contain duplicates",
			TranslationKey: "validation.unique",
			TranslationValues: map[string]any{
				"field": field,
			},
		},
	}
}

// MaxItems validates the length of a slice.
func MaxItems[T any](field string, values []T, max int) Rule {
	return Rule{
		Check: func() bool {
			return len(values) <= max
		},
		Error: ValidationError{
			Code:           CodeInvalidOption,
			Fields:         []string{field},
			Message:        fmt.Sprintf("can't have more than %d entries", max),
			TranslationKey: "validation.max_items",
			TranslationValues: map[string]any{
				"field": field,
				"max":   max,
			},
		},
	}
}

// NotEmptyItems validates that a slice has at least one element.
func NotEmptyItems[T any](field string, values []T) Rule {
	return Rule{
		Check: func() bool {
			return len(values) > 0
		},
		Error: ValidationError{
			Code:           CodeInvalidOption,
			Fields:         []string{field},
			Message:        "can't be empty",
			TranslationKey: "validation.not_empty",
			TranslationValues: map[string]any{
				"field": field,
			},
		},
	}
}
