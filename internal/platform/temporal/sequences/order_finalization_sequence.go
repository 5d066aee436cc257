package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	ordertypes "github.com/Apurer/go-gin-order-taxes/internal/domains/orders/application/types"
	orderactivities "github.com/Apurer/go-gin-order-taxes/internal/platform/temporal/activities/orders"
)

// RunOrderFinalizationSequence settles the taxes of an order and then freezes it.
func RunOrderFinalizationSequence(ctx workflow.Context, input ordertypes.OrderIdentifier) (*ordertypes.OrderProjection, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("order finalization sequence started", "orderId", input.ID)
	recalculateOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    5,
		},
	}
	finalizeOptions := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    5,
		},
	}

	var recalculated ordertypes.OrderProjection
	err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, recalculateOptions), orderactivities.RecalculateTaxesActivityName, input).Get(ctx, &recalculated)
	if err != nil {
		logger.Error("order finalization sequence recalculation failed", "orderId", input.ID, "error", err)
		return nil, err
	}
	if recalculated.Entity != nil {
		logger.Info("order finalization sequence recalculated", "orderId", input.ID, "taxTotal", recalculated.Entity.TaxTotal())
	}

	var finalized ordertypes.OrderProjection
	err = workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, finalizeOptions), orderactivities.FinalizeOrderActivityName, input).Get(ctx, &finalized)
	if err != nil {
		logger.Error("order finalization sequence failed", "orderId", input.ID, "error", err)
		return nil, err
	}
	logger.Info("order finalization sequence completed", "orderId", input.ID)
	return &finalized, nil
}
