package application

import (
	"context"

	"github.com/Apurer/go-gin-order-taxes/internal/domains/taxation/domain"
	"github.com/Apurer/go-gin-order-taxes/internal/domains/taxation/ports"
)

var _ ports.RateResolver = ZoneRateResolver{}

// ZoneRateResolver keeps rates whose jurisdiction matches the order zone.
type ZoneRateResolver struct{}

func (ZoneRateResolver) Resolve(_ context.Context, rate domain.TaxRate, scope domain.Scope) (*domain.TaxRate, error) {
	if !rate.AppliesIn(scope.Zone) {
		return nil, nil
	}
	resolved := rate
	return &resolved, nil
}
