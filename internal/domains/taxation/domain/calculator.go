package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// RateCalculator computes tax amounts in integer minor units.
type RateCalculator struct{}

// Calculate implements the calculator port by delegating to Calculate.
func (RateCalculator) Calculate(amount int64, rate TaxRate) (int64, error) {
	return Calculate(amount, rate)
}

// Calculate returns the tax carried by amount under rate.
//
// When the rate is included in the price the tax is extracted from the amount
// (amount - amount/(1+rate)); otherwise it is added on top (amount*rate).
// The result is rounded to the nearest integer, ties away from zero.
func Calculate(amount int64, rate TaxRate) (int64, error) {
	if err := rate.Validate(); err != nil {
		return 0, err
	}
	if amount < 0 {
		return 0, fmt.Errorf("%w: %d", ErrNegativeTaxableBase, amount)
	}
	switch rate.Calculator {
	case CalculatorDefault:
		return calculateDefault(amount, rate), nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCalculator, rate.Calculator)
	}
}

func calculateDefault(amount int64, rate TaxRate) int64 {
	base := decimal.NewFromInt(amount)
	var tax decimal.Decimal
	if rate.IncludedInPrice {
		tax = base.Sub(base.Div(one.Add(rate.Amount)))
	} else {
		tax = base.Mul(rate.Amount)
	}
	// decimal.Round rounds half away from zero.
	return tax.Round(0).IntPart()
}
