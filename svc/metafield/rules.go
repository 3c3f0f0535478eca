package metafield

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dmitrymomot/metafields/pkg/validator"
)

// allowedRules lists the rule names each base type accepts. Reference types accept none.
var allowedRules = map[ValueType][]RuleName{
	TypeBoolean:        nil,
	TypeDateTime:       {RuleMin, RuleMax},
	TypeNumberDecimal:  {RuleMin, RuleMax, RuleMaxPrecision},
	TypeSingleLineText: {RuleMin, RuleMax, RuleRegex, RuleChoices},
}

// RuleSetValidator checks a definition's rule set against its type.
type RuleSetValidator struct {
	maxChoices   int
	maxPrecision int
}

// NewRuleSetValidator builds a validator using the choice and precision ceilings of cfg.
func NewRuleSetValidator(cfg Config) RuleSetValidator {
	cfg = cfg.withDefaults()
	return RuleSetValidator{maxChoices: cfg.MaxChoices, maxPrecision: cfg.MaxPrecision}
}

// Validate returns every problem found in rules, each rooted at "validations".
func (v RuleSetValidator) Validate(t ValueType, rules Rules) ValidationErrors {
	var errs ValidationErrors

	// checked keeps the original indexes; rejected rules are left zero so
	// the per-type checks skip them.
	allowed := allowedRules[t]
	checked := make(Rules, len(rules))
	seen := make(map[RuleName]bool, len(rules))
	for i, rule := range rules {
		idx := strconv.Itoa(i)
		switch {
		case !slices.Contains(allowed, rule.Name):
			errs.Add(validator.NewError(validator.CodeInvalidOption,
				fmt.Sprintf("%s is not a valid option for %s", rule.Name, t),
				fieldValidations, idx, fieldName))
		case seen[rule.Name]:
			errs.Add(validator.NewError(validator.CodeDuplicateOption,
				fmt.Sprintf("%s can't be specified more than once", rule.Name),
				fieldValidations, idx, fieldName))
		default:
			checked[i] = rule
		}
		seen[rule.Name] = true
	}
	rules = checked

	switch t {
	case TypeDateTime:
		errs.Merge(v.validateRange(rules, func(s string) (decimal.Decimal, bool) {
			ts, ok := parseDateTime(s)
			if !ok {
				return decimal.Decimal{}, false
			}
			return decimal.NewFromInt(ts.Unix()), true
		}, "must be a date and time in the format yyyy-MM-ddTHH:mm:ss"))
	case TypeNumberDecimal:
		errs.Merge(v.validateRange(rules, parseDecimal, "must be a decimal number"))
		errs.Merge(v.validatePrecision(rules))
	case TypeSingleLineText:
		errs.Merge(v.validateText(rules))
	}
	return errs
}

// validateRange checks that min and max parse and that min <= max.
func (v RuleSetValidator) validateRange(rules Rules, parse func(string) (decimal.Decimal, bool), invalidMsg string) ValidationErrors {
	var errs ValidationErrors
	bounds := make(map[RuleName]decimal.Decimal, 2)
	for i, rule := range rules {
		if rule.Name != RuleMin && rule.Name != RuleMax {
			continue
		}
		d, ok := parse(rule.Value)
		if !ok {
			errs.Add(validator.NewError(validator.CodeInvalidOption,
				fmt.Sprintf("%s %s", rule.Name, invalidMsg),
				fieldValidations, strconv.Itoa(i), fieldValue))
			continue
		}
		bounds[rule.Name] = d
	}
	minV, hasMin := bounds[RuleMin]
	maxV, hasMax := bounds[RuleMax]
	if hasMin && hasMax && minV.GreaterThan(maxV) {
		errs.Add(validator.NewError(validator.CodeInvalidOption,
			"min can't be greater than max", fieldValidations))
	}
	return errs
}

func (v RuleSetValidator) validatePrecision(rules Rules) ValidationErrors {
	var errs ValidationErrors
	for i, rule := range rules {
		if rule.Name != RuleMaxPrecision {
			continue
		}
		path := []string{fieldValidations, strconv.Itoa(i), fieldValue}
		n, err := strconv.Atoi(strings.TrimSpace(rule.Value))
		switch {
		case err != nil:
			errs.Add(validator.NewError(validator.CodeInvalidOption, "max_precision must be an integer", path...))
		case n < 0:
			errs.Add(validator.NewError(validator.CodeInvalidOption, "max_precision can't be negative", path...))
		case n > v.maxPrecision:
			errs.Add(validator.NewError(validator.CodeInvalidOption,
				fmt.Sprintf("max_precision can't exceed %d", v.maxPrecision), path...))
		}
	}
	return errs
}

func (v RuleSetValidator) validateText(rules Rules) ValidationErrors {
	var errs ValidationErrors

	named := 0
	for _, rule := range rules {
		if rule.Name != "" {
			named++
		}
	}
	if _, ok := rules.Get(RuleChoices); ok && named > 1 {
		errs.Add(validator.NewError(validator.CodeInvalidOption,
			"choices can't be combined with other validations", fieldValidations))
		return errs
	}

	for i, rule := range rules {
		path := []string{fieldValidations, strconv.Itoa(i), fieldValue}
		switch rule.Name {
		case RuleChoices:
			choices, err := parseChoices(rule.Value)
			if err != nil {
				errs.Add(validator.NewError(validator.CodeInvalidOption, "choices must be a list of strings", path...))
				continue
			}
			errs.Merge(validator.Collect(
				validator.NotEmptyItems(fieldValue, choices).At(path...),
				validator.MaxItems(fieldValue, choices, v.maxChoices).At(path...),
				validator.UniqueStrings(fieldValue, choices).At(path...),
			))
			for _, c := range choices {
				if c == "" {
					errs.Add(validator.NewError(validator.CodeInvalidOption, "choices can't contain blank entries", path...))
					break
				}
			}
		case RuleRegex:
			if _, err := validator.CompileFull(rule.Value); err != nil {
				errs.Add(validator.NewError(validator.CodeInvalidOption, "regex is not a valid regular expression", path...))
			}
		}
	}

	errs.Merge(v.validateRange(rules, func(s string) (decimal.Decimal, bool) {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || n < 0 {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromInt(int64(n)), true
	}, "must be a non-negative integer"))
	return errs
}

// parseChoices decodes a JSON list of strings and trims each entry.
func parseChoices(raw string) ([]string, error) {
	var choices []string
	if err := json.Unmarshal([]byte(raw), &choices); err != nil {
		return nil, err
	}
	for i := range choices {
		choices[i] = strings.TrimSpace(choices[i])
	}
	return choices, nil
}
