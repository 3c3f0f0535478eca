package metafield

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmitrymomot/metafields/pkg/validator"
)

// DateTimeLayout is the accepted date_time format. A trailing "Z" is allowed.
const DateTimeLayout = "2006-01-02T15:04:05"

var (
	decimalLowerBound = decimal.RequireFromString("-99999999999999.999999999")
	decimalUpperBound = decimal.RequireFromString("99999999999999.999999999")
)

// User-facing messages. Each is complete and ends with a period.
const (
	msgBoolean  = "Value must be true or false."
	msgDateTime = "Value must be in the format yyyy-MM-ddTHH:mm:ss."
	msgDecimal  = "Value must be a decimal number."
)

// valueMessage turns a rule failure like "exceeds maximum of 10" into "Value exceeds maximum of 10.".
func valueMessage(e validator.ValidationError) string {
	return "Value " + e.Message + "."
}

func validateBoolean(value string) string {
	switch value {
	case "true", "false", "1", "0":
		return ""
	}
	return msgBoolean
}

// parseDateTime parses s strictly: the formatted result must reproduce the input.
func parseDateTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	body, zulu := strings.CutSuffix(s, "Z")
	t, err := time.Parse(DateTimeLayout, body)
	if err != nil {
		return time.Time{}, false
	}
	formatted := t.Format(DateTimeLayout)
	if zulu {
		formatted += "Z"
	}
	if formatted != s {
		return time.Time{}, false
	}
	return t, true
}

func validateDateTime(value string, rules Rules) string {
	t, ok := parseDateTime(value)
	if !ok {
		return msgDateTime
	}

	var checks []validator.Rule
	if raw, ok := rules.Get(RuleMin); ok {
		if minT, ok := parseDateTime(raw); ok {
			checks = append(checks, validator.NotBefore(fieldValue, t, minT, DateTimeLayout))
		}
	}
	if raw, ok := rules.Get(RuleMax); ok {
		if maxT, ok := parseDateTime(raw); ok {
			checks = append(checks, validator.NotAfter(fieldValue, t, maxT, DateTimeLayout))
		}
	}
	if e, ok := validator.First(checks...); !ok {
		return valueMessage(e)
	}
	return ""
}

func parseDecimal(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

func validateDecimal(value string, rules Rules) string {
	d, ok := parseDecimal(value)
	if !ok {
		return msgDecimal
	}

	checks := []validator.Rule{
		validator.DecimalBetween(fieldValue, d, decimalLowerBound, decimalUpperBound),
	}
	if raw, ok := rules.Get(RuleMin); ok {
		if minV, ok := parseDecimal(raw); ok {
			checks = append(checks, validator.MinDecimal(fieldValue, d, minV))
		}
	}
	if raw, ok := rules.Get(RuleMax); ok {
		if maxV, ok := parseDecimal(raw); ok {
			checks = append(checks, validator.MaxDecimal(fieldValue, d, maxV))
		}
	}
	if raw, ok := rules.Get(RuleMaxPrecision); ok {
		if p, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && p >= 0 {
			checks = append(checks, validator.MaxFractionDigits(fieldValue, strings.TrimSpace(value), p))
		}
	}
	if e, ok := validator.First(checks...); !ok {
		return valueMessage(e)
	}
	return ""
}

// textValidator checks single_line_text_field values. Patterns are compiled once per rule value.
type textValidator struct {
	maxBytes int
	compile  func(pattern string) (*regexp.Regexp, error)
}

func (v textValidator) validate(value string, rules Rules) string {
	checks := []validator.Rule{
		validator.MaxBytes(fieldValue, value, v.maxBytes),
		validator.SingleLine(fieldValue, value),
	}
	if e, ok := validator.First(checks...); !ok {
		return valueMessage(e)
	}

	if raw, ok := rules.Get(RuleChoices); ok {
		choices, err := parseChoices(raw)
		if err == nil {
			rule := validator.InListString(fieldValue, strings.TrimSpace(value), choices).
				WithMessage("must be one of: " + strings.Join(choices, ", "))
			if e, ok := validator.First(rule); !ok {
				return valueMessage(e)
			}
		}
	}

	checks = checks[:0]
	if raw, ok := rules.Get(RuleRegex); ok {
		if re, err := v.compile(raw); err == nil {
			checks = append(checks, validator.Matches(fieldValue, value, re, fmt.Sprintf("the pattern %s", raw)))
		}
	}
	if raw, ok := rules.Get(RuleMin); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
			checks = append(checks, validator.MinLen(fieldValue, value, n))
		}
	}
	if raw, ok := rules.Get(RuleMax); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
			checks = append(checks, validator.MaxLen(fieldValue, value, n))
		}
	}
	if e, ok := validator.First(checks...); !ok {
		return valueMessage(e)
	}
	return ""
}

func referenceMessage(owner OwnerResource) string {
	return fmt.Sprintf("Value must be a valid %s reference.", owner)
}

// parseReference extracts the owner id from a reference value.
func parseReference(value string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
