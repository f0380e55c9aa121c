// Package money converts between decimal major-unit amounts and int64 minor units.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MinorExponent is the number of fractional digits carried by minor units.
const MinorExponent = 2

var ErrInvalidAmount = errors.New("money: invalid amount")

// ParseMinor parses a major-unit string such as "199.99" into minor units.
// More than two fractional digits are rejected rather than rounded.
func ParseMinor(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	return FromDecimal(d)
}

// FromDecimal converts a major-unit decimal into minor units.
func FromDecimal(d decimal.Decimal) (int64, error) {
	shifted := d.Shift(MinorExponent)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidAmount, d.String(), MinorExponent)
	}
	return shifted.IntPart(), nil
}

// Format renders minor units as a fixed two-place major-unit string.
func Format(minor int64) string {
	return decimal.New(minor, -MinorExponent).StringFixed(MinorExponent)
}

// ApplyRate multiplies amount by rate and rounds to the nearest minor unit, half away from zero.
func ApplyRate(amount int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(amount).Mul(rate).Round(0).IntPart()
}
