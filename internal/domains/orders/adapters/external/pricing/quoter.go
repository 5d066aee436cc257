package pricing

import (
	"context"
	"errors"
	"fmt"

	pricingclient "github.com/Apurer/go-gin-order-taxes/internal/clients/http/pricing"
	"github.com/Apurer/go-gin-order-taxes/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-order-taxes/internal/domains/orders/ports"
)

// DeliveryQuoter is the client surface the adapter needs.
type DeliveryQuoter interface {
	QuoteDelivery(ctx context.Context, req pricingclient.QuoteRequest) (*pricingclient.Quote, error)
}

// Pricer implements the delivery pricing port over the pricing HTTP API.
type Pricer struct {
	client DeliveryQuoter
}

// NewPricer wires a pricing HTTP client into a delivery pricer.
func NewPricer(client DeliveryQuoter) *Pricer {
	return &Pricer{client: client}
}

// Quote prices delivery for the order's zone and items subtotal.
func (p *Pricer) Quote(ctx context.Context, order *domain.Order) (int64, error) {
	if p == nil || p.client == nil {
		return 0, errors.New("delivery pricer not configured")
	}
	if order == nil {
		return 0, errors.New("order is nil")
	}
	quote, err := p.client.QuoteDelivery(ctx, ToQuoteRequest(order))
	if err != nil {
		return 0, err
	}
	if quote.Currency != "" && quote.Currency != order.Currency {
		return 0, fmt.Errorf("delivery quoted in %s for an order in %s", quote.Currency, order.Currency)
	}
	return quote.Amount, nil
}

// ToQuoteRequest maps the cart onto a pricing request.
func ToQuoteRequest(order *domain.Order) pricingclient.QuoteRequest {
	return pricingclient.QuoteRequest{
		Zone:     order.Zone,
		Currency: order.Currency,
		Subtotal: order.ItemsTotal(),
		Items:    len(order.Units),
	}
}

var _ ports.DeliveryPricer = (*Pricer)(nil)
