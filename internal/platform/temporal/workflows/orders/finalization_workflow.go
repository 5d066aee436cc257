package orders

import (
	"go.temporal.io/sdk/workflow"

	ordertypes "github.com/Apurer/go-gin-order-taxes/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-order-taxes/internal/platform/temporal/sequences"
)

const (
	// OrderFinalizationWorkflowName is the public identifier for registering the workflow.
	OrderFinalizationWorkflowName = "orders.workflows.Finalization"
	// OrderFinalizationTaskQueue is the queue consumed by the worker processing order workflows.
	OrderFinalizationTaskQueue = "ORDER_FINALIZATION"
)

// OrderFinalizationWorkflowInput identifies the order to finalize.
type OrderFinalizationWorkflowInput struct {
	Command ordertypes.OrderIdentifier
	TraceID string
}

// OrderFinalizationWorkflow recalculates taxes one last time and finalizes the order.
func OrderFinalizationWorkflow(ctx workflow.Context, input OrderFinalizationWorkflowInput) (*ordertypes.OrderProjection, error) {
	logger := workflow.GetLogger(ctx)
	orderID := input.Command.ID
	logger.Info("OrderFinalizationWorkflow started", withTraceID(input.TraceID, "orderId", orderID)...)
	projection, err := sequences.RunOrderFinalizationSequence(ctx, input.Command)
	if err != nil {
		logger.Error("OrderFinalizationWorkflow failed", withTraceID(input.TraceID, "orderId", orderID, "error", err)...)
		return nil, err
	}
	logger.Info("OrderFinalizationWorkflow completed", withTraceID(input.TraceID, "orderId", orderID)...)
	return projection, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
