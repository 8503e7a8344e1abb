package domain

import "github.com/shopspring/decimal"

// Epsilon is the settlement tolerance: residual balances at or below one
// cent are treated as fully paid. All computed amounts must be rounded to
// cents before being compared against it.
var Epsilon = decimal.New(1, -2)

func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Settled reports whether a remaining balance is within Epsilon of zero.
func Settled(remaining decimal.Decimal) bool {
	return remaining.LessThanOrEqual(Epsilon)
}

func MinDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}
