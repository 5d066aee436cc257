package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-gin-order-taxes/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-order-taxes/internal/shared/projection"
)

var ErrNotFound = errors.New("order not found")

// ErrStaleOrder is returned by Save when the stored order changed since it was loaded.
var ErrStaleOrder = errors.New("order was modified concurrently")

// Repository persists order aggregates. Save assigns an identifier when the
// order has none and bumps Version; saving an order whose Version differs from
// the stored one fails with ErrStaleOrder.
type Repository interface {
	Save(ctx context.Context, order *domain.Order) (*projection.Projection[*domain.Order], error)
	GetByID(ctx context.Context, id int64) (*projection.Projection[*domain.Order], error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*projection.Projection[*domain.Order], error)
}
