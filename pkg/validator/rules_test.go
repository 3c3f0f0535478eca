package validator_test

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/metafields/pkg/validator"
)

func TestStringRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rule validator.Rule
		want bool
	}{
		{"required passes", validator.Required("f", "x"), true},
		{"required fails on whitespace", validator.Required("f", " \t"), false},
		{"max bytes counts bytes", validator.MaxBytes("f", "é", 1), false},
		{"max bytes at limit", validator.MaxBytes("f", strings.Repeat("a", 8), 8), true},
		{"max len counts runes", validator.MaxLen("f", "ééé", 3), true},
		{"min len", validator.MinLen("f", "ab", 3), false},
		{"single line rejects LF", validator.SingleLine("f", "a\nb"), false},
		{"single line rejects CR", validator.SingleLine("f", "a\rb"), false},
		{"single line passes", validator.SingleLine("f", "a b"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.rule.Check())
		})
	}
}

func TestPatternRules(t *testing.T) {
	t.Parallel()

	re, err := validator.CompileFull(`[a-z]+`)
	require.NoError(t, err)

	assert.True(t, validator.Matches("f", "abc", re, "letters").Check())
	assert.False(t, validator.Matches("f", "abc1", re, "letters").Check(), "partial match must fail")

	alt, err := validator.CompileFull(`a|ab`)
	require.NoError(t, err)
	assert.True(t, validator.Matches("f", "ab", alt, "alt").Check())

	_, err = validator.CompileFull(`(`)
	assert.ErrorIs(t, err, validator.ErrInvalidPattern)
}

func TestChoiceRules(t *testing.T) {
	t.Parallel()

	assert.True(t, validator.InListString("f", "red", []string{"red", "blue"}).Check())
	assert.False(t, validator.InListString("f", "Red", []string{"red", "blue"}).Check())
	assert.Equal(t, "must be one of: red, blue", validator.InListString("f", "x", []string{"red", "blue"}).Error.Message)

	assert.True(t, validator.UniqueStrings("f", []string{"a", "A"}).Check())
	dup := validator.UniqueStrings("f", []string{"a", "b", "a"})
	assert.False(t, dup.Check())
	assert.Equal(t, validator.CodeDuplicateOption, dup.Error.Code)

	assert.False(t, validator.MaxItems("f", []int{1, 2, 3}, 2).Check())
	assert.False(t, validator.NotEmptyItems("f", []string{}).Check())
}

func TestDecimalRules(t *testing.T) {
	t.Parallel()

	v := decimal.RequireFromString("10.5")
	assert.True(t, validator.MinDecimal("f", v, decimal.NewFromInt(10)).Check())
	assert.False(t, validator.MaxDecimal("f", v, decimal.NewFromInt(10)).Check())
	assert.Equal(t, "exceeds maximum of 10", validator.MaxDecimal("f", v, decimal.NewFromInt(10)).Error.Message)
	assert.True(t, validator.DecimalBetween("f", v, decimal.NewFromInt(0), decimal.NewFromInt(11)).Check())

	assert.Equal(t, 0, validator.FractionDigits("12"))
	assert.Equal(t, 2, validator.FractionDigits("1.50"))
	assert.Equal(t, 3, validator.FractionDigits(" -0.125 "))
	assert.False(t, validator.MaxFractionDigits("f", "1.123", 2).Check())
	assert.Equal(t, "can't exceed 2 digits after the decimal point", validator.MaxFractionDigits("f", "1.123", 2).Error.Message)
}

func TestDateRules(t *testing.T) {
	t.Parallel()

	layout := "2006-01-02T15:04:05"
	min := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	max := time.Date(2022, 12, 31, 0, 0, 0, 0, time.UTC)

	assert.True(t, validator.NotBefore("f", min, min, layout).Check())
	assert.False(t, validator.NotBefore("f", min.Add(-time.Second), min, layout).Check())
	assert.False(t, validator.NotAfter("f", max.Add(time.Second), max, layout).Check())
	assert.Equal(t, "exceeds maximum of 2022-12-31T00:00:00", validator.NotAfter("f", max, max, layout).Error.Message)
}
