/*
Package generic provides the domain-agnostic building blocks shared by the
calculation engine and the HR process service.

KEY CONCEPTS:
  - Money helpers over decimal.Decimal (BRL, centavo precision)
  - TimePoint: a calendar date with tenure arithmetic (time.go)
  - Sentinel and structured errors (errors.go)

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Rounding happens once, at the edge of each computed component
  3. Dates carry no clock or zone; everything is normalized to UTC midnight

SEE ALSO:
  - tax/bracket.go: Bracket evaluation over these helpers
  - calculation/: Termination and leave computations
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// CentPlaces is the number of decimal places money is rounded to.
const CentPlaces = 2

// RoundCents rounds half away from zero to two decimal places.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(CentPlaces)
}

// MustParseDecimal panics on malformed input; only for compile-time constants.
func MustParseDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// NonNegative clamps d at zero.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// MinDecimal returns the smaller of a and b.
func MinDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}
