// Package report aggregates ledger data into category, net-worth and
// ins/outs views, normalizing across currencies. Everything here is pure:
// callers fetch rows through the repositories and pass slices in, so the
// aggregation logic is testable without a database.
package report

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Rates is the stored exchange-rate table keyed by currency code. Each
// value is the currency's rate relative to the fixed base currency; the
// base itself carries rate 1.
type Rates map[string]decimal.Decimal

// ConversionRate returns the multiplier that converts amounts from one
// currency into another: to.rate / from.rate.
func (r Rates) ConversionRate(from, to string) (decimal.Decimal, error) {
	fromRate, ok := r[from]
	if !ok || fromRate.IsZero() {
		return decimal.Zero, fmt.Errorf("no usable rate for currency %q", from)
	}
	toRate, ok := r[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("no rate for currency %q", to)
	}
	return toRate.Div(fromRate), nil
}

// Convert converts an amount between currencies using the stored rates.
func (r Rates) Convert(amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}
	rate, err := r.ConversionRate(from, to)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(rate), nil
}
