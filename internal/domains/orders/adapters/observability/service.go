package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	ordertypes "github.com/Apurer/go-gin-order-taxes/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-order-taxes/internal/domains/orders/ports"
)

const tracerName = "github.com/Apurer/go-gin-order-taxes/internal/domains/orders/adapters/observability/service"

// Service decorates the orders application port with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

// WithMeter injects the meter used to create service metrics instruments.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wires a decorator around the core service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  defaultLogger(),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = defaultLogger()
	}
	return s
}

func (s *Service) CreateOrder(ctx context.Context, input ordertypes.CreateOrderInput) (*ordertypes.OrderProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.CreateOrder",
		attribute.Int("order.items", len(input.Items)),
		attribute.Bool("order.idempotent", input.IdempotencyKey != ""))
	defer span.End()

	s.logInfo(ctx, "creating order", slog.Int("items", len(input.Items)), slog.String("zone", input.Zone))
	result, err := s.inner.CreateOrder(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to create order")
	}
	s.recordRecalculation(ctx, span, "create", result)
	return result, nil
}

func (s *Service) GetOrder(ctx context.Context, input ordertypes.OrderIdentifier) (*ordertypes.OrderProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.GetOrder", attribute.Int64("order.id", input.ID))
	defer span.End()

	result, err := s.inner.GetOrder(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to get order", slog.Int64("order.id", input.ID))
	}
	return result, nil
}

func (s *Service) ListOrders(ctx context.Context) ([]*ordertypes.OrderProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.ListOrders")
	defer span.End()

	result, err := s.inner.ListOrders(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders")
	}
	span.SetAttributes(attribute.Int("order.count", len(result)))
	return result, nil
}

func (s *Service) DeleteOrder(ctx context.Context, input ordertypes.OrderIdentifier) error {
	ctx, span := s.startSpan(ctx, "Service.DeleteOrder", attribute.Int64("order.id", input.ID))
	defer span.End()

	s.logInfo(ctx, "deleting order", slog.Int64("order.id", input.ID))
	if err := s.inner.DeleteOrder(ctx, input); err != nil {
		return s.handleError(ctx, span, err, "failed to delete order", slog.Int64("order.id", input.ID))
	}
	return nil
}

func (s *Service) AddItem(ctx context.Context, input ordertypes.AddItemInput) (*ordertypes.OrderProjection, error) {
	return s.mutation(ctx, "AddItem", input.OrderID, func(ctx context.Context) (*ordertypes.OrderProjection, error) {
		return s.inner.AddItem(ctx, input)
	}, attribute.String("variant.code", input.VariantCode), attribute.Int("item.quantity", input.Quantity))
}

func (s *Service) UpdateItemQuantity(ctx context.Context, input ordertypes.UpdateItemQuantityInput) (*ordertypes.OrderProjection, error) {
	return s.mutation(ctx, "UpdateItemQuantity", input.OrderID, func(ctx context.Context) (*ordertypes.OrderProjection, error) {
		return s.inner.UpdateItemQuantity(ctx, input)
	}, attribute.Int64("item.id", input.ItemID), attribute.Int("item.quantity", input.Quantity))
}

func (s *Service) RemoveItem(ctx context.Context, input ordertypes.ItemIdentifier) (*ordertypes.OrderProjection, error) {
	return s.mutation(ctx, "RemoveItem", input.OrderID, func(ctx context.Context) (*ordertypes.OrderProjection, error) {
		return s.inner.RemoveItem(ctx, input)
	}, attribute.Int64("item.id", input.ItemID))
}

func (s *Service) SetDelivery(ctx context.Context, input ordertypes.SetDeliveryInput) (*ordertypes.OrderProjection, error) {
	return s.mutation(ctx, "SetDelivery", input.OrderID, func(ctx context.Context) (*ordertypes.OrderProjection, error) {
		return s.inner.SetDelivery(ctx, input)
	}, attribute.Bool("delivery.quoted", input.Amount == nil))
}

func (s *Service) AddAdjustment(ctx context.Context, input ordertypes.AddAdjustmentInput) (*ordertypes.OrderProjection, error) {
	return s.mutation(ctx, "AddAdjustment", input.OrderID, func(ctx context.Context) (*ordertypes.OrderProjection, error) {
		return s.inner.AddAdjustment(ctx, input)
	}, attribute.String("adjustment.type", input.Type))
}

func (s *Service) RemoveAdjustments(ctx context.Context, input ordertypes.RemoveAdjustmentsInput) (*ordertypes.OrderProjection, error) {
	return s.mutation(ctx, "RemoveAdjustments", input.OrderID, func(ctx context.Context) (*ordertypes.OrderProjection, error) {
		return s.inner.RemoveAdjustments(ctx, input)
	}, attribute.String("adjustment.type", input.Type))
}

func (s *Service) RecalculateTaxes(ctx context.Context, input ordertypes.OrderIdentifier) (*ordertypes.OrderProjection, error) {
	return s.mutation(ctx, "RecalculateTaxes", input.ID, func(ctx context.Context) (*ordertypes.OrderProjection, error) {
		return s.inner.RecalculateTaxes(ctx, input)
	})
}

func (s *Service) FinalizeOrder(ctx context.Context, input ordertypes.OrderIdentifier) (*ordertypes.OrderProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.FinalizeOrder", attribute.Int64("order.id", input.ID))
	defer span.End()

	s.logInfo(ctx, "finalizing order", slog.Int64("order.id", input.ID))
	result, err := s.inner.FinalizeOrder(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to finalize order", slog.Int64("order.id", input.ID))
	}
	s.metrics.recordFinalized(ctx)
	s.recordRecalculation(ctx, span, "finalize", result)
	return result, nil
}

// mutation instruments every cart change, each of which reprocesses taxes.
func (s *Service) mutation(ctx context.Context, op string, orderID int64, call func(context.Context) (*ordertypes.OrderProjection, error), attrs ...attribute.KeyValue) (*ordertypes.OrderProjection, error) {
	attrs = append(attrs, attribute.Int64("order.id", orderID))
	ctx, span := s.startSpan(ctx, "Service."+op, attrs...)
	defer span.End()

	result, err := call(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "order mutation failed", slog.String("operation", op), slog.Int64("order.id", orderID))
	}
	s.recordRecalculation(ctx, span, op, result)
	return result, nil
}

func (s *Service) recordRecalculation(ctx context.Context, span trace.Span, op string, result *ordertypes.OrderProjection) {
	if result == nil || result.Entity == nil {
		return
	}
	order := result.Entity
	total, taxTotal := order.Total(), order.TaxTotal()
	span.SetAttributes(
		attribute.Int64("order.id", order.ID),
		attribute.Int64("order.total", total),
		attribute.Int64("order.tax_total", taxTotal),
	)
	s.metrics.recordRecalculation(ctx, op, order.Currency, taxTotal)
	s.logInfo(ctx, "order taxes recalculated",
		slog.String("operation", op),
		slog.Int64("order.id", order.ID),
		slog.Int64("total", total),
		slog.Int64("tax_total", taxTotal),
		slog.String("state", string(order.State)))
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := s.tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serviceMetrics struct {
	recalculations metric.Int64Counter
	taxTotal       metric.Int64Counter
	finalized      metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	recalculations, _ := m.Int64Counter("orders.service.recalculations", metric.WithDescription("Number of order tax recalculations"))
	taxTotal, _ := m.Int64Counter("orders.service.tax_total", metric.WithDescription("Tax amount computed, in minor currency units"))
	finalized, _ := m.Int64Counter("orders.service.finalized", metric.WithDescription("Number of orders finalized"))
	return serviceMetrics{recalculations: recalculations, taxTotal: taxTotal, finalized: finalized}
}

func (m serviceMetrics) recordRecalculation(ctx context.Context, op, currency string, taxTotal int64) {
	addCounter(ctx, m.recalculations, 1, attribute.String("operation", op))
	addCounter(ctx, m.taxTotal, taxTotal, attribute.String("currency", currency))
}

func (m serviceMetrics) recordFinalized(ctx context.Context) {
	addCounter(ctx, m.finalized, 1)
}

func addCounter(ctx context.Context, counter metric.Int64Counter, value int64, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

var _ ports.Service = (*Service)(nil)
