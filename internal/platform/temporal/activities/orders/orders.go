package orders

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	ordersapp "github.com/Apurer/go-gin-order-taxes/internal/domains/orders/application"
	ordertypes "github.com/Apurer/go-gin-order-taxes/internal/domains/orders/application/types"
	ordersports "github.com/Apurer/go-gin-order-taxes/internal/domains/orders/ports"
)

const (
	// RecalculateTaxesActivityName reruns the tax processor on a cart.
	RecalculateTaxesActivityName = "orders.activities.RecalculateTaxes"
	// FinalizeOrderActivityName freezes an order once its taxes are settled.
	FinalizeOrderActivityName = "orders.activities.FinalizeOrder"
)

// Application error types carried across the workflow boundary.
const (
	ErrTypeInvalidInput = "InvalidInput"
	ErrTypeNotFound     = "NotFound"
	ErrTypeConflict     = "Conflict"
)

// Activities groups activities that operate on the orders bounded context.
type Activities struct {
	service ordersports.Service
}

// NewActivities wires the orders service into the Temporal activities bundle.
func NewActivities(service ordersports.Service) *Activities {
	return &Activities{service: service}
}

// RecalculateTaxes replaces the processor-owned tax adjustments of an order.
func (a *Activities) RecalculateTaxes(ctx context.Context, input ordertypes.OrderIdentifier) (*ordertypes.OrderProjection, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		logger.Error("recalculate taxes activity not initialized", "orderId", input.ID)
		return nil, errors.New("recalculate taxes activity not initialized")
	}
	logger.Info("RecalculateTaxes activity started", "orderId", input.ID)
	projection, err := a.service.RecalculateTaxes(ctx, input)
	if err != nil {
		logger.Error("RecalculateTaxes activity failed", "orderId", input.ID, "error", err)
		return nil, classify(err)
	}
	logger.Info("RecalculateTaxes activity completed", "orderId", input.ID, "taxTotal", projection.Entity.TaxTotal())
	return projection, nil
}

// FinalizeOrder marks the order finalized.
func (a *Activities) FinalizeOrder(ctx context.Context, input ordertypes.OrderIdentifier) (*ordertypes.OrderProjection, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		logger.Error("finalize order activity not initialized", "orderId", input.ID)
		return nil, errors.New("finalize order activity not initialized")
	}
	logger.Info("FinalizeOrder activity started", "orderId", input.ID)
	projection, err := a.service.FinalizeOrder(ctx, input)
	if err != nil {
		logger.Error("FinalizeOrder activity failed", "orderId", input.ID, "error", err)
		return nil, classify(err)
	}
	logger.Info("FinalizeOrder activity completed", "orderId", input.ID, "total", projection.Entity.Total())
	return projection, nil
}

// classify turns business failures into non-retryable application errors.
// Anything else is left to the retry policy.
func classify(err error) error {
	switch {
	case errors.Is(err, ordersapp.ErrInvalidInput):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalidInput, err)
	case errors.Is(err, ordersports.ErrNotFound), errors.Is(err, ordersapp.ErrNotFound):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeNotFound, err)
	case errors.Is(err, ordersapp.ErrConflict):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeConflict, err)
	default:
		return err
	}
}
