package validator

import (
	"fmt"
	"time"
)

// NotBefore validates that value is equal to or later than min.
func NotBefore(field string, value, min time.Time, layout string) Rule {
	return Rule{
		Check: func() bool {
			return !value.Before(min)
		},
		Error: ValidationError{
			Code:           CodeInvalid,
			Fields:         []string{field},
			Message:        fmt.Sprintf("is below minimum of %s", min.Format(layout)),
			TranslationKey: "validation.date_min",
			TranslationValues: map[string]any{
				"field": field,
				"min":   min.Format(layout),
			},
		},
	}
}

// NotAfter validates that value is equal to or earlier than max.
func NotAfter(field string, value, max time.Time, layout string) Rule {
	return Rule{
		Check: func() bool {
			return !value.After(max)
		},
		Error: ValidationError{
			Code:           CodeInvalid,
			Fields:         []string{field},
			Message:        fmt.Sprintf("exceeds maximum of %s", max.Format(layout)),
			TranslationKey: "validation.date_max",
			TranslationValues: map[string]any{
				"field": field,
				"max":   max.Format(layout),
			},
		},
	}
}
