/*
bracket.go - Bracket tables and the two withholding schemes built on them

PURPOSE:
  Evaluates levies over an ordered table of brackets. Two schemes exist:

  PROGRESSIVE (INSS style):
    Each bracket taxes a slice of the remaining amount at its own rate.
    The slice is min(remaining, bracket limit). Remaining is decremented
    and the walk stops when nothing is left or brackets run out. An
    amount beyond the final finite limit is not taxed further (cap).

  BRACKETED DEDUCTION (IR style):
    The first bracket whose limit covers the amount is selected and the
    result is amount*rate - deduction. Not additive across brackets.

UNBOUNDED BRACKETS:
  Limit is a decimal.NullDecimal. Limit.Valid == false means "no upper
  bound"; only the last bracket may be unbounded.

SEE ALSO:
  - tables.go: Default INSS and IR tables
  - factory/tables.go: Loads tables from YAML/JSON
*/
package tax

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/severance-engine/generic"
)

// =============================================================================
// BRACKET / TABLE
// =============================================================================

// Bracket is one row of a table.
type Bracket struct {
	Limit     decimal.NullDecimal `json:"limit"`
	Rate      decimal.Decimal     `json:"rate"`
	Deduction decimal.Decimal     `json:"deduction"`
}

// Unbounded reports whether the bracket has no upper limit.
func (b Bracket) Unbounded() bool { return !b.Limit.Valid }

// covers reports whether amount falls at or below the bracket's limit.
func (b Bracket) covers(amount decimal.Decimal) bool {
	return b.Unbounded() || b.Limit.Decimal.GreaterThanOrEqual(amount)
}

// Upto builds a bounded bracket.
func Upto(limit string, rate string, deduction string) Bracket {
	return Bracket{
		Limit:     decimal.NewNullDecimal(generic.MustParseDecimal(limit)),
		Rate:      generic.MustParseDecimal(rate),
		Deduction: generic.MustParseDecimal(deduction),
	}
}

// Above builds the unbounded top bracket.
func Above(rate string, deduction string) Bracket {
	return Bracket{
		Rate:      generic.MustParseDecimal(rate),
		Deduction: generic.MustParseDecimal(deduction),
	}
}

// Table is an ordered (ascending by limit) list of brackets.
type Table struct {
	Name     string    `json:"name"`
	Brackets []Bracket `json:"brackets"`
}

// Validate checks ordering, rates and the position of the unbounded bracket.
func (t Table) Validate() error {
	if len(t.Brackets) == 0 {
		return generic.InvalidArgument(t.field(), "table has no brackets")
	}
	one := decimal.NewFromInt(1)
	var prev decimal.Decimal
	for i, b := range t.Brackets {
		if b.Rate.IsNegative() || b.Rate.GreaterThan(one) {
			return generic.InvalidArgument(t.field(), fmt.Sprintf("bracket %d: rate %s outside [0, 1]", i, b.Rate))
		}
		if b.Deduction.IsNegative() {
			return generic.InvalidArgument(t.field(), fmt.Sprintf("bracket %d: negative deduction", i))
		}
		if b.Unbounded() {
			if i != len(t.Brackets)-1 {
				return generic.InvalidArgument(t.field(), fmt.Sprintf("bracket %d: only the last bracket may be unbounded", i))
			}
			continue
		}
		if !b.Limit.Decimal.IsPositive() {
			return generic.InvalidArgument(t.field(), fmt.Sprintf("bracket %d: limit must be positive", i))
		}
		if i > 0 && !b.Limit.Decimal.GreaterThan(prev) {
			return generic.InvalidArgument(t.field(), fmt.Sprintf("bracket %d: limits must be strictly ascending", i))
		}
		prev = b.Limit.Decimal
	}
	return nil
}

// ValidateUnbounded is Validate plus the requirement that the table covers
// [0, ∞), as deduction tables must.
func (t Table) ValidateUnbounded() error {
	if err := t.Validate(); err != nil {
		return err
	}
	if !t.Brackets[len(t.Brackets)-1].Unbounded() {
		return generic.InvalidArgument(t.field(), "last bracket must have no upper limit")
	}
	return nil
}

func (t Table) field() string {
	if t.Name == "" {
		return "table"
	}
	return t.Name
}

// =============================================================================
// EVALUATION
// =============================================================================

// ProgressiveTax taxes successive slices of amount, each at its bracket's
// rate. Result is never negative.
func ProgressiveTax(amount decimal.Decimal, t Table) decimal.Decimal {
	if !amount.IsPositive() {
		return decimal.Zero
	}

	total := decimal.Zero
	remaining := amount
	for _, b := range t.Brackets {
		if !remaining.IsPositive() {
			break
		}
		slice := remaining
		if !b.Unbounded() {
			slice = generic.MinDecimal(remaining, b.Limit.Decimal)
		}
		total = total.Add(slice.Mul(b.Rate))
		remaining = remaining.Sub(slice)
	}
	return total
}

// BracketedDeduction applies the rate and deduction of the first bracket
// covering amount. Amounts beyond every finite limit use the last bracket.
// Result is clamped at zero.
func BracketedDeduction(amount decimal.Decimal, t Table) decimal.Decimal {
	if !amount.IsPositive() || len(t.Brackets) == 0 {
		return decimal.Zero
	}

	selected := t.Brackets[len(t.Brackets)-1]
	for _, b := range t.Brackets {
		if b.covers(amount) {
			selected = b
			break
		}
	}
	return generic.NonNegative(amount.Mul(selected.Rate).Sub(selected.Deduction))
}
