package types

import (
	"time"

	"github.com/Apurer/go-gin-order-taxes/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-order-taxes/internal/shared/projection"
)

// OrderProjection transports an order together with its persistence metadata.
type OrderProjection = projection.Projection[*domain.Order]

// NewOrderProjection wraps an aggregate with persistence metadata.
func NewOrderProjection(order *domain.Order, createdAt, updatedAt time.Time) *OrderProjection {
	if order == nil {
		return nil
	}
	return &OrderProjection{
		Entity: order,
		Metadata: projection.Metadata{
			CreatedAt: createdAt,
			UpdatedAt: updatedAt,
		},
	}
}
