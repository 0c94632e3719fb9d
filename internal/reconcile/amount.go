package reconcile

import "github.com/shopspring/decimal"

// Tolerance is the accepted gap between an order amount and what the bank
// reports: the larger of Min and Percent of the expected amount.
type Tolerance struct {
	Min     decimal.Decimal
	Percent decimal.Decimal
}

// Band returns the absolute tolerance for an expected amount.
func (t Tolerance) Band(expected decimal.Decimal) decimal.Decimal {
	return decimal.Max(t.Min, expected.Abs().Mul(t.Percent))
}

// Accepts reports whether received is close enough to expected. Over and
// underpayment are treated the same.
func (t Tolerance) Accepts(expected, received decimal.Decimal) bool {
	return received.Sub(expected).Abs().LessThanOrEqual(t.Band(expected))
}
