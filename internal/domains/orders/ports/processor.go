package ports

import (
	"context"

	"github.com/Apurer/go-gin-order-taxes/internal/domains/orders/domain"
)

// OrderProcessor recomputes derived adjustments of an order in place.
type OrderProcessor interface {
	Process(ctx context.Context, order *domain.Order) error
}

// AdjustmentFactory constructs new adjustment records.
type AdjustmentFactory interface {
	Create(t domain.AdjustmentType, amount int64, neutral bool, label string) domain.Adjustment
}

var _ AdjustmentFactory = domain.AdjustmentFactory{}

// DeliveryPricer quotes the delivery charge for an order.
type DeliveryPricer interface {
	Quote(ctx context.Context, order *domain.Order) (int64, error)
}

// EventPublisher delivers domain events to other systems.
type EventPublisher interface {
	Publish(ctx context.Context, events ...domain.Event) error
}
