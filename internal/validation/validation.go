package validation

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Violations - нарушения по именам полей.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Required проверяет, что строка не пустая.
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func NonNegative(field string, val decimal.Decimal, v Violations) {
	if val.IsNegative() {
		v[field] = "must_not_be_negative"
	}
}

func Positive(field string, val decimal.Decimal, v Violations) {
	if !val.IsPositive() {
		v[field] = "must_be_positive"
	}
}

// RangeExclusiveMin проверяет min < val <= max.
func RangeExclusiveMin(field string, val, minVal, maxVal decimal.Decimal, v Violations) {
	if val.LessThanOrEqual(minVal) || val.GreaterThan(maxVal) {
		v[field] = "out_of_range"
	}
}

// OneOf проверяет, что значение входит в список допустимых.
func OneOf[T comparable](field string, val T, allowed []T, v Violations) {
	for _, a := range allowed {
		if a == val {
			return
		}
	}
	v[field] = "invalid_value"
}
