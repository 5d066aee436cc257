package ports

import (
	"context"

	ordertypes "github.com/Apurer/go-gin-order-taxes/internal/domains/orders/application/types"
)

// Service defines the orders use cases exposed to adapters (inbound/driving port).
type Service interface {
	CreateOrder(ctx context.Context, input ordertypes.CreateOrderInput) (*ordertypes.OrderProjection, error)
	GetOrder(ctx context.Context, input ordertypes.OrderIdentifier) (*ordertypes.OrderProjection, error)
	ListOrders(ctx context.Context) ([]*ordertypes.OrderProjection, error)
	DeleteOrder(ctx context.Context, input ordertypes.OrderIdentifier) error
	AddItem(ctx context.Context, input ordertypes.AddItemInput) (*ordertypes.OrderProjection, error)
	UpdateItemQuantity(ctx context.Context, input ordertypes.UpdateItemQuantityInput) (*ordertypes.OrderProjection, error)
	RemoveItem(ctx context.Context, input ordertypes.ItemIdentifier) (*ordertypes.OrderProjection, error)
	SetDelivery(ctx context.Context, input ordertypes.SetDeliveryInput) (*ordertypes.OrderProjection, error)
	AddAdjustment(ctx context.Context, input ordertypes.AddAdjustmentInput) (*ordertypes.OrderProjection, error)
	RemoveAdjustments(ctx context.Context, input ordertypes.RemoveAdjustmentsInput) (*ordertypes.OrderProjection, error)
	RecalculateTaxes(ctx context.Context, input ordertypes.OrderIdentifier) (*ordertypes.OrderProjection, error)
	FinalizeOrder(ctx context.Context, input ordertypes.OrderIdentifier) (*ordertypes.OrderProjection, error)
}
