package ports

import (
	"context"

	ordertypes "github.com/Apurer/go-gin-order-taxes/internal/domains/orders/application/types"
)

// WorkflowOrchestrator exposes durable workflow operations required by the orders bounded context.
type WorkflowOrchestrator interface {
	FinalizeOrder(ctx context.Context, input ordertypes.OrderIdentifier) (*ordertypes.OrderProjection, error)
}
