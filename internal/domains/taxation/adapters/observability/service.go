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

	taxdomain "github.com/Apurer/go-gin-order-taxes/internal/domains/taxation/domain"
	taxports "github.com/Apurer/go-gin-order-taxes/internal/domains/taxation/ports"
)

const tracerName = "github.com/Apurer/go-gin-order-taxes/internal/domains/taxation/adapters/observability/service"

// Service decorates the tax configuration service with tracing, logging, and metrics.
type Service struct {
	inner   taxports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wraps the core tax configuration service.
func New(inner taxports.Service, opts ...Option) taxports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
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
	return s
}

func (s *Service) SaveCategory(ctx context.Context, input taxports.SaveCategoryInput) (*taxdomain.TaxCategory, error) {
	ctx, span := s.tracer.Start(ctx, "TaxationService.SaveCategory",
		trace.WithAttributes(attribute.String("tax_category.code", input.Code), attribute.Int("tax_category.rates", len(input.Rates))))
	defer span.End()

	s.logInfo(ctx, "saving tax category", slog.String("tax_category.code", input.Code), slog.Int("rates", len(input.Rates)))
	result, err := s.inner.SaveCategory(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to save tax category", slog.String("tax_category.code", input.Code))
	}
	s.metrics.recordSaved(ctx)
	s.logInfo(ctx, "tax category saved", slog.String("tax_category.code", result.Code))
	return result, nil
}

func (s *Service) GetCategory(ctx context.Context, code string) (*taxdomain.TaxCategory, error) {
	ctx, span := s.tracer.Start(ctx, "TaxationService.GetCategory", trace.WithAttributes(attribute.String("tax_category.code", code)))
	defer span.End()

	result, err := s.inner.GetCategory(ctx, code)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load tax category", slog.String("tax_category.code", code))
	}
	return result, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]*taxdomain.TaxCategory, error) {
	ctx, span := s.tracer.Start(ctx, "TaxationService.ListCategories")
	defer span.End()

	result, err := s.inner.ListCategories(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list tax categories")
	}
	span.SetAttributes(attribute.Int("tax_category.count", len(result)))
	return result, nil
}

func (s *Service) DeleteCategory(ctx context.Context, code string) error {
	ctx, span := s.tracer.Start(ctx, "TaxationService.DeleteCategory", trace.WithAttributes(attribute.String("tax_category.code", code)))
	defer span.End()

	s.logInfo(ctx, "deleting tax category", slog.String("tax_category.code", code))
	if err := s.inner.DeleteCategory(ctx, code); err != nil {
		return s.handleError(ctx, span, err, "failed to delete tax category", slog.String("tax_category.code", code))
	}
	return nil
}

func (s *Service) DefaultCategory(ctx context.Context) (string, error) {
	ctx, span := s.tracer.Start(ctx, "TaxationService.DefaultCategory")
	defer span.End()

	code, err := s.inner.DefaultCategory(ctx)
	if err != nil {
		return "", s.handleError(ctx, span, err, "failed to read default tax category")
	}
	if code == "" {
		s.logWarn(ctx, "default tax category is not configured; order-level charges will not be taxed")
	}
	return code, nil
}

func (s *Service) SetDefaultCategory(ctx context.Context, code string) error {
	ctx, span := s.tracer.Start(ctx, "TaxationService.SetDefaultCategory", trace.WithAttributes(attribute.String("tax_category.code", code)))
	defer span.End()

	if err := s.inner.SetDefaultCategory(ctx, code); err != nil {
		return s.handleError(ctx, span, err, "failed to set default tax category", slog.String("tax_category.code", code))
	}
	s.logInfo(ctx, "default tax category updated", slog.String("tax_category.code", code))
	return nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logWarn(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelWarn, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if s.logger != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
	}
	return err
}

type serviceMetrics struct {
	categoriesSaved metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	saved, _ := m.Int64Counter("taxation.service.categories_saved", metric.WithDescription("Number of tax categories saved"))
	return serviceMetrics{categoriesSaved: saved}
}

func (m serviceMetrics) recordSaved(ctx context.Context) {
	if m.categoriesSaved != nil {
		m.categoriesSaved.Add(ctx, 1)
	}
}

var _ taxports.Service = (*Service)(nil)
