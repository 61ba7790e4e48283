// Package money represents currency amounts as integer counts of minor units.
//
// Amounts stay integral inside the engine so that split and balance sums are
// exact. Decimal strings are only produced or accepted at the API boundary,
// through a Policy describing the configured currency.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when a decimal string cannot be represented
// in the policy's minor units.
var ErrInvalidAmount = errors.New("invalid amount")

// Money is an amount in minor units (cents for a two-digit currency).
type Money int64

// MaxAmount bounds every amount accepted at the boundary. Sums of many bounded
// amounts stay far from the int64 limit.
const MaxAmount Money = 1_000_000_000_000_000

// Policy is the currency and rounding policy supplied by configuration.
type Policy struct {
	// Code is the ISO 4217 currency code, used for display only.
	Code string

	// MinorUnits is the number of decimal digits of the currency (2 for USD, 0 for JPY).
	MinorUnits int32
}

// DefaultPolicy is used when no currency is configured.
var DefaultPolicy = Policy{Code: "USD", MinorUnits: 2}

// Parse converts a decimal string such as "33.34" into minor units.
// Strings with more fractional digits than the policy allows are rejected
// rather than rounded.
func (p Policy) Parse(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	scaled := d.Shift(p.MinorUnits)
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("%w: %q has more than %d decimal places", ErrInvalidAmount, s, p.MinorUnits)
	}
	if scaled.Abs().GreaterThan(decimal.NewFromInt(int64(MaxAmount))) {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidAmount, s)
	}

	return Money(scaled.IntPart()), nil
}

// Format renders m with exactly MinorUnits fractional digits.
func (p Policy) Format(m Money) string {
	return decimal.New(int64(m), -p.MinorUnits).StringFixed(p.MinorUnits)
}

// Split divides a non-negative amount into n parts whose sum is exactly m.
// Parts differ by at most one minor unit; the leftover units go to the first
// parts in order.
func (m Money) Split(n int) []Money {
	if n <= 0 {
		return nil
	}
	base := m / Money(n)
	rem := int(m % Money(n))

	parts := make([]Money, n)
	for i := range parts {
		parts[i] = base
		if i < rem {
			parts[i]++
		}
	}
	return parts
}

// Abs returns the absolute value of m.
func (m Money) Abs() Money {
	if m < 0 {
		return -m
	}
	return m
}

// Add returns m + o and false if the sum overflows int64.
func (m Money) Add(o Money) (Money, bool) {
	sum := m + o
	if (o > 0 && sum < m) || (o < 0 && sum > m) {
		return 0, false
	}
	return sum, true
}

// Sum adds up amounts.
func Sum(amounts ...Money) Money {
	var total Money
	for _, a := range amounts {
		total += a
	}
	return total
}
