// Package money provides the fixed-point arithmetic used for all currency
// amounts. Persisted values stay float64 for JSON compatibility, but every
// computation that could drift routes through shopspring/decimal at
// 2-decimal precision.
package money

import "github.com/shopspring/decimal"

// Tolerance is the maximum absolute difference at which two amounts are
// considered equal. Half a cent: tighter than display precision, loose
// enough to absorb float representation noise.
const Tolerance = 0.005

// Round2 rounds to 2 decimal places (half away from zero).
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// Add returns a+b at 2-decimal precision.
func Add(a, b float64) float64 {
	f, _ := decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).Round(2).Float64()
	return f
}

// Sub returns a-b at 2-decimal precision.
func Sub(a, b float64) float64 {
	f, _ := decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Round(2).Float64()
	return f
}

// Sum totals a series at 2-decimal precision without intermediate drift.
func Sum(values ...float64) float64 {
	acc := decimal.Zero
	for _, v := range values {
		acc = acc.Add(decimal.NewFromFloat(v))
	}
	f, _ := acc.Round(2).Float64()
	return f
}

// Equal reports whether two amounts agree within Tolerance.
func Equal(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff <= Tolerance
}

// IsZero reports whether v is zero within Tolerance.
func IsZero(v float64) bool {
	return Equal(v, 0)
}

// Format renders an amount with exactly two decimals ("55.00").
func Format(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// Accumulator totals amounts exactly; use it wherever a report sums many
// lines before display.
type Accumulator struct {
	total decimal.Decimal
}

// Add folds v into the running total.
func (a *Accumulator) Add(v float64) {
	a.total = a.total.Add(decimal.NewFromFloat(v))
}

// Total returns the 2-decimal rounded total.
func (a *Accumulator) Total() float64 {
	f, _ := a.total.Round(2).Float64()
	return f
}
