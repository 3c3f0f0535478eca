package metafield_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/metafields/pkg/validator"
	"github.com/dmitrymomot/metafields/svc/metafield"
)

func TestRuleSetValidator(t *testing.T) {
	t.Parallel()

	v := metafield.NewRuleSetValidator(metafield.DefaultConfig())

	t.Run("allows empty rules for every type", func(t *testing.T) {
		t.Parallel()
		for _, typ := range append(metafield.BaseTypes, metafield.ReferenceType(metafield.OwnerProduct)) {
			assert.Empty(t, v.Validate(typ, nil), typ)
		}
	})

	t.Run("rejects rules outside the allow-list", func(t *testing.T) {
		t.Parallel()
		errs := v.Validate(metafield.TypeBoolean, metafield.Rules{{Name: metafield.RuleMin, Value: "1"}})
		assert.True(t, errs.Has("validations", "0", "name"))
		assert.True(t, errs.HasCode(validator.CodeInvalidOption))

		errs = v.Validate(metafield.TypeSingleLineText, metafield.Rules{{Name: metafield.RuleMaxPrecision, Value: "2"}})
		assert.Equal(t, []string{"max_precision is not a valid option for single_line_text_field"}, errs.Get("validations", "0", "name"))

		errs = v.Validate(metafield.ReferenceType(metafield.OwnerOrder), metafield.Rules{{Name: metafield.RuleRegex, Value: ".*"}})
		assert.False(t, errs.IsEmpty())
	})

	t.Run("rejects duplicate rule names", func(t *testing.T) {
		t.Parallel()
		errs := v.Validate(metafield.TypeNumberDecimal, metafield.Rules{
			{Name: metafield.RuleMin, Value: "1"},
			{Name: metafield.RuleMin, Value: "2"},
		})
		assert.True(t, errs.Has("validations", "1", "name"))
		assert.True(t, errs.HasCode(validator.CodeDuplicateOption))
	})

	t.Run("min greater than max", func(t *testing.T) {
		t.Parallel()
		errs := v.Validate(metafield.TypeNumberDecimal, metafield.Rules{
			{Name: metafield.RuleMin, Value: "10"},
			{Name: metafield.RuleMax, Value: "1"},
		})
		assert.Equal(t, []string{"min can't be greater than max"}, errs.Get("validations"))

		errs = v.Validate(metafield.TypeDateTime, metafield.Rules{
			{Name: metafield.RuleMin, Value: "2023-01-01T00:00:00"},
			{Name: metafield.RuleMax, Value: "2022-01-01T00:00:00"},
		})
		assert.True(t, errs.Has("validations"))

		errs = v.Validate(metafield.TypeSingleLineText, metafield.Rules{
			{Name: metafield.RuleMin, Value: "5"},
			{Name: metafield.RuleMax, Value: "5"},
		})
		assert.Empty(t, errs)
	})

	t.Run("unparseable bounds", func(t *testing.T) {
		t.Parallel()
		errs := v.Validate(metafield.TypeDateTime, metafield.Rules{{Name: metafield.RuleMin, Value: "yesterday"}})
		assert.True(t, errs.Has("validations", "0", "value"))

		errs = v.Validate(metafield.TypeSingleLineText, metafield.Rules{{Name: metafield.RuleMax, Value: "-1"}})
		assert.True(t, errs.Has("validations", "0", "value"))
	})

	t.Run("max precision ceiling", func(t *testing.T) {
		t.Parallel()
		errs := v.Validate(metafield.TypeNumberDecimal, metafield.Rules{{Name: metafield.RuleMaxPrecision, Value: "10"}})
		assert.Equal(t, []string{"max_precision can't exceed 9"}, errs.Get("validations", "0", "value"))

		assert.Empty(t, v.Validate(metafield.TypeNumberDecimal, metafield.Rules{{Name: metafield.RuleMaxPrecision, Value: "9"}}))
	})

	t.Run("choices must stand alone", func(t *testing.T) {
		t.Parallel()
		errs := v.Validate(metafield.TypeSingleLineText, metafield.Rules{
			{Name: metafield.RuleChoices, Value: `["a"]`},
			{Name: metafield.RuleMax, Value: "5"},
		})
		assert.True(t, errs.Has("validations"))
	})

	t.Run("choices content", func(t *testing.T) {
		t.Parallel()
		cases := map[string]string{
			"not json":   `a,b`,
			"empty":      `[]`,
			"duplicates": `["a", " a"]`,
			"blank":      `["a", "  "]`,
		}
		for name, raw := range cases {
			errs := v.Validate(metafield.TypeSingleLineText, metafield.Rules{{Name: metafield.RuleChoices, Value: raw}})
			assert.True(t, errs.Has("validations", "0", "value"), name)
		}

		errs := v.Validate(metafield.TypeSingleLineText, metafield.Rules{{Name: metafield.RuleChoices, Value: `["a", " a"]`}})
		assert.True(t, errs.HasCode(validator.CodeDuplicateOption))
	})

	t.Run("choices ceiling", func(t *testing.T) {
		t.Parallel()
		choices := make([]string, 129)
		for i := range choices {
			choices[i] = fmt.Sprintf("c%d", i)
		}
		raw, _ := json.Marshal(choices)
		errs := v.Validate(metafield.TypeSingleLineText, metafield.Rules{{Name: metafield.RuleChoices, Value: string(raw)}})
		assert.True(t, errs.HasCode(validator.CodeInvalidOption))

		raw, _ = json.Marshal(choices[:128])
		assert.Empty(t, v.Validate(metafield.TypeSingleLineText, metafield.Rules{{Name: metafield.RuleChoices, Value: string(raw)}}))
	})

	t.Run("invalid regex", func(t *testing.T) {
		t.Parallel()
		errs := v.Validate(metafield.TypeSingleLineText, metafield.Rules{{Name: metafield.RuleRegex, Value: "[a-"}})
		assert.Equal(t, []string{"regex is not a valid regular expression"}, errs.Get("validations", "0", "value"))
	})

	t.Run("reports every problem at once", func(t *testing.T) {
		t.Parallel()
		errs := v.Validate(metafield.TypeNumberDecimal, metafield.Rules{
			{Name: metafield.RuleRegex, Value: "x"},
			{Name: metafield.RuleMaxPrecision, Value: "10"},
			{Name: metafield.RuleMin, Value: "abc"},
		})
		assert.Len(t, errs, 3)
		assert.Equal(t, []string{"regex is not a valid option for number_decimal"}, errs.Get("validations", "0", "name"))
		assert.Equal(t, []string{"max_precision can't exceed 9"}, errs.Get("validations", "1", "value"))
		assert.Equal(t, []string{"min must be a decimal number"}, errs.Get("validations", "2", "value"))
	})

	t.Run("skips rejected rules in type checks", func(t *testing.T) {
		t.Parallel()
		errs := v.Validate(metafield.TypeSingleLineText, metafield.Rules{
			{Name: metafield.RuleChoices, Value: `["a"]`},
			{Name: metafield.RuleMaxPrecision, Value: "2"},
		})
		assert.Len(t, errs, 1)
		assert.True(t, errs.Has("validations", "1", "name"))
	})
}
