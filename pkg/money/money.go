// Package money holds the marketplace rounding policy: every price and
// total carries two decimal places, halves rounded away from zero.
package money

import "github.com/shopspring/decimal"

const Places = 2

// Round applies the policy to a single amount. decimal.Round rounds half
// away from zero, which is what the marketplace uses (not banker's).
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// LineTotal is unit price times quantity, rounded once at the line level.
// Totals are always built from rounded line totals, never from raw
// intermediate products.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return Round(unitPrice.Mul(decimal.NewFromInt(int64(quantity))))
}

// Sum adds already-rounded amounts and rounds the result.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return Round(total)
}
