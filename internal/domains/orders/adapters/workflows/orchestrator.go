package workflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"

	ordersapp "github.com/Apurer/go-gin-order-taxes/internal/domains/orders/application"
	ordertypes "github.com/Apurer/go-gin-order-taxes/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-order-taxes/internal/domains/orders/ports"
	orderactivities "github.com/Apurer/go-gin-order-taxes/internal/platform/temporal/activities/orders"
	orderworkflows "github.com/Apurer/go-gin-order-taxes/internal/platform/temporal/workflows/orders"
)

var (
	_ ports.WorkflowOrchestrator = (*TemporalOrderWorkflows)(nil)
	_ ports.WorkflowOrchestrator = (*InlineOrderWorkflows)(nil)
)

// TemporalOrderWorkflows starts order workflows on a Temporal cluster.
type TemporalOrderWorkflows struct {
	client    client.Client
	taskQueue string
}

// NewTemporalOrderWorkflows wires a Temporal client into the orchestrator.
func NewTemporalOrderWorkflows(c client.Client) *TemporalOrderWorkflows {
	return &TemporalOrderWorkflows{client: c, taskQueue: orderworkflows.OrderFinalizationTaskQueue}
}

// FinalizeOrder runs the finalization workflow and waits for its result.
// One finalization per order may run at a time; a concurrent request joins the
// running execution.
func (o *TemporalOrderWorkflows) FinalizeOrder(ctx context.Context, input ordertypes.OrderIdentifier) (*ordertypes.OrderProjection, error) {
	if o == nil || o.client == nil {
		return nil, errors.New("temporal order workflows not configured")
	}
	workflowID := buildFinalizationWorkflowID(input)
	options := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: o.taskQueue,
	}
	run, err := o.client.ExecuteWorkflow(
		ctx,
		options,
		orderworkflows.OrderFinalizationWorkflow,
		orderworkflows.OrderFinalizationWorkflowInput{Command: input, TraceID: workflowTraceComponent(ctx)},
	)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if !errors.As(err, &alreadyStarted) {
			return nil, err
		}
		run = o.client.GetWorkflow(ctx, workflowID, alreadyStarted.RunId)
	}
	var projection ordertypes.OrderProjection
	if err := run.Get(ctx, &projection); err != nil {
		return nil, unwrapWorkflowError(err)
	}
	return &projection, nil
}

// InlineOrderWorkflows executes the service directly without Temporal, useful for tests or dev fallbacks.
type InlineOrderWorkflows struct {
	service ports.Service
}

// NewInlineOrderWorkflows wraps the orders service for synchronous execution.
func NewInlineOrderWorkflows(service ports.Service) *InlineOrderWorkflows {
	return &InlineOrderWorkflows{service: service}
}

// FinalizeOrder delegates to the application service without durable orchestration.
func (o *InlineOrderWorkflows) FinalizeOrder(ctx context.Context, input ordertypes.OrderIdentifier) (*ordertypes.OrderProjection, error) {
	if o == nil || o.service == nil {
		return nil, errors.New("inline order workflows not configured")
	}
	return o.service.FinalizeOrder(ctx, input)
}

// unwrapWorkflowError restores the domain sentinel carried by a non-retryable
// activity failure so callers can map it like a direct service error.
func unwrapWorkflowError(err error) error {
	var appErr *temporal.ApplicationError
	if !errors.As(err, &appErr) {
		return err
	}
	switch appErr.Type() {
	case orderactivities.ErrTypeInvalidInput:
		return fmt.Errorf("%w: %s", ordersapp.ErrInvalidInput, appErr.Message())
	case orderactivities.ErrTypeNotFound:
		return fmt.Errorf("%w: %s", ports.ErrNotFound, appErr.Message())
	case orderactivities.ErrTypeConflict:
		return fmt.Errorf("%w: %s", ordersapp.ErrConflict, appErr.Message())
	default:
		return err
	}
}

func buildFinalizationWorkflowID(input ordertypes.OrderIdentifier) string {
	return fmt.Sprintf("order-finalization-%d", input.ID)
}

func workflowTraceComponent(ctx context.Context) string {
	if traceID := workflowTraceID(ctx); traceID != "" {
		return traceID
	}
	return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
}

func workflowTraceID(ctx context.Context) string {
	spanCtx := oteltrace.SpanFromContext(ctx).SpanContext()
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}
