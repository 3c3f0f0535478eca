package validator

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Required validates that a string is not empty after trimming whitespace.
func Required(field, value string) Rule {
	return Rule{
		Check: func() bool {
			return strings.TrimSpace(value) != ""
		},
		Error: ValidationError{
			Code:           CodeBlank,
			Fields:         []string{field},
			Message:        "can't be blank",
			TranslationKey: "validation.required",
			TranslationValues: map[string]any{
				"field": field,
			},
		},
	}
}

// MaxBytes validates the UTF-8 encoded size of a string.
func MaxBytes(field, value string, max int) Rule {
	return Rule{
		Check: func() bool {
			return len(value) <= max
		},
		Error: ValidationError{
			Code:           CodeTooLong,
			Fields:         []string{field},
			Message:        fmt.Sprintf("can't exceed %d bytes", max),
			TranslationKey: "validation.max_bytes",
			TranslationValues: map[string]any{
				"field": field,
				"max":   max,
			},
		},
	}
}

// MaxLen validates the number of characters in a string.
func MaxLen(field, value string, max int) Rule {
	return Rule{
		Check: func() bool {
			return utf8.RuneCountInString(value) <= max
		},
		Error: ValidationError{
			Code:           CodeTooLong,
			Fields:         []string{field},
			Message:        fmt.Sprintf("is too long (maximum is %d characters)", max),
			TranslationKey: "validation.max_length",
			TranslationValues: map[string]any{
				"field": field,
				"max":   max,
			},
		},
	}
}

// MinLen validates the minimum number of characters in a string.
func MinLen(field, value string, min int) Rule {
	return Rule{
		Check: func() bool {
			return utf8.RuneCountInString(value) >= min
		},
		Error: ValidationError{
			Code:           CodeInvalid,
			Fields:         []string{field},
			Message:        fmt.Sprintf("is too short (minimum is %d characters)", min),
			TranslationKey: "validation.min_length",
			TranslationValues: map[string]any{
				"field": field,
				"min":   min,
			},
		},
	}
}

// SingleLine validates that a string has no line breaks.
func SingleLine(field, value string) Rule {
	return Rule{
		Check: func() bool {
			return !strings.ContainsAny(value, "\r\n")
		},
		Error: ValidationError{
			Code:           CodeInvalid,
			Fields:         []string{field},
			Message:        "can't contain newlines",
			TranslationKey: "validation.single_line",
			TranslationValues: map[string]any{
				"field": field,
			},
		},
	}
}
