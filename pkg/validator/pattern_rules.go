package validator

import (
	"errors"
	"fmt"
	"regexp"
)

// CompileFull compiles pattern so that it only matches an entire string.
func CompileFull(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return nil, errors.Join(ErrInvalidPattern, err)
	}
	return re, nil
}

// Matches validates value against re. Use CompileFull for whole-string semantics.
func Matches(field, value string, re *regexp.Regexp, description string) Rule {
	return Rule{
		Check: func() bool {
			return re.MatchString(value)
		},
		Error: ValidationError{
			Code:           CodeInvalid,
			Fields:         []string{field},
			Message:        fmt.Sprintf("must match %s", description),
			TranslationKey: "validation.regex_pattern",
			TranslationValues: map[string]any{
				"field":       field,
				"pattern":     re.String(),
				"description": description,
			},
		},
	}
}
