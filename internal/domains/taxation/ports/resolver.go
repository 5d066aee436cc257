package ports

import (
	"context"

	"github.com/Apurer/go-gin-order-taxes/internal/domains/taxation/domain"
)

// RateResolver decides whether a rate applies in a given scope.
type RateResolver interface {
	// Resolve returns the rate to apply, or nil when it does not apply.
	Resolve(ctx context.Context, rate domain.TaxRate, scope domain.Scope) (*domain.TaxRate, error)
}

// Calculator turns an amount in minor units and a rate into a rounded tax amount.
type Calculator interface {
	Calculate(amount int64, rate domain.TaxRate) (int64, error)
}

var _ Calculator = domain.RateCalculator{}
