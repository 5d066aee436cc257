package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	ordertypes "github.com/Apurer/go-gin-order-taxes/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-order-taxes/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-order-taxes/internal/domains/orders/ports"
)

// ManualSource tags adjustments entered through the API.
const ManualSource = "manual"

// maxSaveAttempts bounds reload-and-retry after ports.ErrStaleOrder.
const maxSaveAttempts = 3

var errDeliveryAmountRequired = errors.New("delivery amount is required when no delivery pricer is configured")

// Service orchestrates the orders bounded context use cases. Every cart
// mutation runs the tax processor before the order is saved.
type Service struct {
	repo        ports.Repository
	processor   ports.OrderProcessor
	idempotency ports.IdempotencyStore
	publisher   ports.EventPublisher
	pricer      ports.DeliveryPricer
	factory     ports.AdjustmentFactory
	locker      *Locker
	logger      *slog.Logger
	now         func() time.Time
}

type ServiceOption func(*Service)

// WithIdempotencyStore enables Idempotency-Key handling on order creation.
func WithIdempotencyStore(store ports.IdempotencyStore) ServiceOption {
	return func(s *Service) {
		s.idempotency = store
	}
}

func WithEventPublisher(publisher ports.EventPublisher) ServiceOption {
	return func(s *Service) {
		s.publisher = publisher
	}
}

func WithDeliveryPricer(pricer ports.DeliveryPricer) ServiceOption {
	return func(s *Service) {
		s.pricer = pricer
	}
}

func WithLocker(locker *Locker) ServiceOption {
	return func(s *Service) {
		if locker != nil {
			s.locker = locker
		}
	}
}

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the orders service with its dependencies.
func NewService(repo ports.Repository, processor ports.OrderProcessor, opts ...ServiceOption) *Service {
	s := &Service{
		repo:      repo,
		processor: processor,
		factory:   domain.NewAdjustmentFactory(),
		locker:    NewLocker(),
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// CreateOrder opens a cart with its initial items. Retries carrying the same
// idempotency key and payload return the first order.
func (s *Service) CreateOrder(ctx context.Context, input ordertypes.CreateOrderInput) (*ordertypes.OrderProjection, error) {
	key := strings.TrimSpace(input.IdempotencyKey)
	var fingerprint string
	if key != "" && s.idempotency != nil {
		hash, err := FingerprintCreateOrder(input)
		if err != nil {
			return nil, err
		}
		fingerprint = hash
		existing, err := s.idempotency.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return s.replay(ctx, *existing, fingerprint)
		}
	}

	order := domain.NewOrder(0, input.Zone, input.Currency)
	for _, item := range input.Items {
		if _, err := order.AddItem(variantOf(item), item.UnitPrice, item.Quantity); err != nil {
			return nil, mapError(err)
		}
	}
	if err := s.processor.Process(ctx, order); err != nil {
		return nil, mapError(err)
	}
	saved, err := s.repo.Save(ctx, order)
	if err != nil {
		return nil, mapError(err)
	}

	if fingerprint != "" {
		now := s.now().UTC()
		stored, err := s.idempotency.Save(ctx, ports.IdempotencyRecord{
			Key:         key,
			RequestHash: fingerprint,
			OrderID:     saved.Entity.ID,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if errors.Is(err, ports.ErrIdempotencyConflict) && stored != nil {
			// A concurrent request with the same key won the race.
			return s.replay(ctx, *stored, fingerprint)
		}
		if err != nil {
			return nil, err
		}
	}
	s.publish(ctx, domain.NewTaxesRecalculated(saved.Entity, s.now()))
	return saved, nil
}

func (s *Service) replay(ctx context.Context, record ports.IdempotencyRecord, fingerprint string) (*ordertypes.OrderProjection, error) {
	if record.RequestHash != fingerprint {
		return nil, fmt.Errorf("%w: key %s was used with a different payload", ports.ErrIdempotencyConflict, record.Key)
	}
	return s.repo.GetByID(ctx, record.OrderID)
}

// GetOrder loads a single order.
func (s *Service) GetOrder(ctx context.Context, input ordertypes.OrderIdentifier) (*ordertypes.OrderProjection, error) {
	projection, err := s.repo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, mapError(err)
	}
	return projection, nil
}

func (s *Service) ListOrders(ctx context.Context) ([]*ordertypes.OrderProjection, error) {
	result, err := s.repo.List(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return result, nil
}

// DeleteOrder removes an order.
func (s *Service) DeleteOrder(ctx context.Context, input ordertypes.OrderIdentifier) error {
	unlock := s.locker.Lock(input.ID)
	defer unlock()
	return mapError(s.repo.Delete(ctx, input.ID))
}

// AddItem appends an item to the cart.
func (s *Service) AddItem(ctx context.Context, input ordertypes.AddItemInput) (*ordertypes.OrderProjection, error) {
	return s.mutate(ctx, input.OrderID, func(order *domain.Order) error {
		_, err := order.AddItem(variantOf(input), input.UnitPrice, input.Quantity)
		return err
	})
}

// UpdateItemQuantity changes the number of units of an item.
func (s *Service) UpdateItemQuantity(ctx context.Context, input ordertypes.UpdateItemQuantityInput) (*ordertypes.OrderProjection, error) {
	return s.mutate(ctx, input.OrderID, func(order *domain.Order) error {
		return order.SetItemQuantity(input.ItemID, input.Quantity)
	})
}

func (s *Service) RemoveItem(ctx context.Context, input ordertypes.ItemIdentifier) (*ordertypes.OrderProjection, error) {
	return s.mutate(ctx, input.OrderID, func(order *domain.Order) error {
		return order.RemoveItem(input.ItemID)
	})
}

// SetDelivery replaces the delivery charge, quoting it when no amount is given.
func (s *Service) SetDelivery(ctx context.Context, input ordertypes.SetDeliveryInput) (*ordertypes.OrderProjection, error) {
	return s.mutate(ctx, input.OrderID, func(order *domain.Order) error {
		var amount int64
		switch {
		case input.Amount != nil:
			amount = *input.Amount
		case s.pricer != nil:
			quoted, err := s.pricer.Quote(ctx, order)
			if err != nil {
				return fmt.Errorf("quote delivery: %w", err)
			}
			amount = quoted
		default:
			return fmt.Errorf("%w: %w", ErrInvalidInput, errDeliveryAmountRequired)
		}
		label := strings.TrimSpace(input.Label)
		if label == "" {
			label = "Delivery"
		}
		if _, err := order.RemoveAdjustments(domain.AdjustmentDelivery); err != nil {
			return err
		}
		adj := s.factory.Create(domain.AdjustmentDelivery, amount, false, label)
		adj.Source = ManualSource
		return order.AddAdjustment(adj)
	})
}

// AddAdjustment attaches a manual adjustment directly to the order.
func (s *Service) AddAdjustment(ctx context.Context, input ordertypes.AddAdjustmentInput) (*ordertypes.OrderProjection, error) {
	t, err := domain.ParseAdjustmentType(input.Type)
	if err != nil {
		return nil, mapError(err)
	}
	return s.mutate(ctx, input.OrderID, func(order *domain.Order) error {
		adj := s.factory.Create(t, input.Amount, input.Neutral, strings.TrimSpace(input.Label))
		adj.Source = ManualSource
		return order.AddAdjustment(adj)
	})
}

// RemoveAdjustments drops every direct adjustment of a type.
func (s *Service) RemoveAdjustments(ctx context.Context, input ordertypes.RemoveAdjustmentsInput) (*ordertypes.OrderProjection, error) {
	t, err := domain.ParseAdjustmentType(input.Type)
	if err != nil {
		return nil, mapError(err)
	}
	return s.mutate(ctx, input.OrderID, func(order *domain.Order) error {
		_, err := order.RemoveAdjustments(t)
		return err
	})
}

// RecalculateTaxes reruns the tax processor without changing the cart.
func (s *Service) RecalculateTaxes(ctx context.Context, input ordertypes.OrderIdentifier) (*ordertypes.OrderProjection, error) {
	return s.mutate(ctx, input.ID, nil)
}

// FinalizeOrder recalculates taxes one last time and makes the order read-only.
func (s *Service) FinalizeOrder(ctx context.Context, input ordertypes.OrderIdentifier) (*ordertypes.OrderProjection, error) {
	saved, err := s.update(ctx, input.ID, func(order *domain.Order) error {
		if err := s.processor.Process(ctx, order); err != nil {
			return err
		}
		return order.Finalize()
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, domain.NewFinalized(saved.Entity, s.now()))
	return saved, nil
}

// mutate applies change to a cart, reprocesses taxes and saves.
func (s *Service) mutate(ctx context.Context, orderID int64, change func(*domain.Order) error) (*ordertypes.OrderProjection, error) {
	saved, err := s.update(ctx, orderID, func(order *domain.Order) error {
		if change != nil {
			if err := change(order); err != nil {
				return err
			}
		}
		return s.processor.Process(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, domain.NewTaxesRecalculated(saved.Entity, s.now()))
	return saved, nil
}

// update loads the order under its lock, rejects finalized orders, applies
// apply to a copy and saves it. The locker only serializes this process; a
// save that loses a version race with another process is retried from a
// fresh load. The stored order is untouched when any step fails.
func (s *Service) update(ctx context.Context, orderID int64, apply func(*domain.Order) error) (*ordertypes.OrderProjection, error) {
	unlock := s.locker.Lock(orderID)
	defer unlock()

	var err error
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		var saved *ordertypes.OrderProjection
		saved, err = s.loadApplySave(ctx, orderID, apply)
		if !errors.Is(err, ports.ErrStaleOrder) {
			return saved, mapError(err)
		}
		s.logger.LogAttrs(ctx, slog.LevelDebug, "order changed concurrently, retrying",
			slog.Int64("order.id", orderID), slog.Int("attempt", attempt+1))
	}
	return nil, mapError(err)
}

func (s *Service) loadApplySave(ctx context.Context, orderID int64, apply func(*domain.Order) error) (*ordertypes.OrderProjection, error) {
	projection, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order := projection.Entity.Clone()
	if order.Finalized() {
		return nil, domain.ErrOrderFinalized
	}
	if err := apply(order); err != nil {
		return nil, err
	}
	return s.repo.Save(ctx, order)
}

// publish is best effort: the order is already saved.
func (s *Service) publish(ctx context.Context, events ...domain.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "failed to publish order events",
			slog.Int("events", len(events)), slog.String("error", err.Error()))
	}
}

func variantOf(input ordertypes.AddItemInput) domain.ProductVariant {
	return domain.ProductVariant{
		Code:            input.VariantCode,
		Name:            input.VariantName,
		TaxCategoryCode: input.TaxCategoryCode,
	}
}

var _ ports.Service = (*Service)(nil)
