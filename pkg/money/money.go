// Package money provides fixed two-decimal monetary arithmetic for billing.
// All amounts are decimal.Decimal internally and render as exact two-decimal
// strings on the wire. float64 must never carry a monetary value.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Zero is the canonical zero amount.
var Zero = decimal.Zero

// Parse converts a decimal string (e.g. "150.00") into an amount.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// MustParse is Parse that panics on invalid input. Intended for tests and
// fixed tariff constants only.
func MustParse(s string) decimal.Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Round2 rounds half away from zero to two decimal places.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Format renders an amount with exactly two decimal places.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// PercentOf returns pct percent of base, rounded to two decimals.
func PercentOf(base, pct decimal.Decimal) decimal.Decimal {
	return Round2(base.Mul(pct).Div(decimal.NewFromInt(100)))
}

// PercentFrom returns what percentage part is of base, rounded to two
// decimals. Returns zero when base is zero or negative.
func PercentFrom(part, base decimal.Decimal) decimal.Decimal {
	if base.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return Round2(part.Mul(decimal.NewFromInt(100)).Div(base))
}
