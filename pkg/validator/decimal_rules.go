package validator

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MinDecimal validates that value is greater than or equal to min.
func MinDecimal(field string, value, min decimal.Decimal) Rule {
	return Rule{
		Check: func() bool {
			return value.GreaterThanOrEqual(min)
		},
		Error: ValidationError{
			Code:           CodeInvalid,
			Fields:         []string{field},
			Message:        fmt.Sprintf("is below minimum of %s", min.String()),
			TranslationKey: "validation.min",
			TranslationValues: map[string]any{
				"field": field,
				"min":   min.String(),
			},
		},
	}
}

// MaxDecimal validates that value is less than or equal to max.
func MaxDecimal(field string, value, max decimal.Decimal) Rule {
	return Rule{
		Check: func() bool {
			return value.LessThanOrEqual(max)
		},
		Error: ValidationError{
			Code:           CodeInvalid,
			Fields:         []string{field},
			Message:        fmt.Sprintf("exceeds maximum of %s", max.String()),
			TranslationKey: "validation.max",
			TranslationValues: map[string]any{
				"field": field,
				"max":   max.String(),
			},
		},
	}
}

// DecimalBetween validates that value lies within [min, max].
func DecimalBetween(field string, value, min, max decimal.Decimal) Rule {
	return Rule{
		Check: func() bool {
			return value.GreaterThanOrEqual(min) && value.LessThanOrEqual(max)
		},
		Error: ValidationError{
			Code:           CodeInvalid,
			Fields:         []string{field},
			Message:        fmt.Sprintf("must be between %s and %s", min.String(), max.String()),
			TranslationKey: "validation.between",
			TranslationValues: map[string]any{
				"field": field,
				"min":   min.String(),
				"max":   max.String(),
			},
		},
	}
}

// MaxFractionDigits validates the number of characters after the decimal point
// of the literal as written, so "1.50" counts two digits.
func MaxFractionDigits(field, literal string, max int) Rule {
	return Rule{
		Check: func() bool {
			return FractionDigits(literal) <= max
		},
		Error: ValidationError{
			Code:           CodeInvalid,
			Fields:         []string{field},
			Message:        fmt.Sprintf("can't exceed %d digits after the decimal point", max),
			TranslationKey: "validation.max_precision",
			TranslationValues: map[string]any{
				"field": field,
				"max":   max,
			},
		},
	}
}

// FractionDigits counts the characters following the first '.' in literal.
func FractionDigits(literal string) int {
	_, frac, ok := strings.Cut(strings.TrimSpace(literal), ".")
	if !ok {
		return 0
	}
	return len(frac)
}
