// Package taxes attaches tax adjustments to orders.
//
// The processor is synchronous and keeps no state between calls, so it may be
// shared across goroutines as long as each order is processed by one caller at
// a time.
package taxes

import (
	"context"
	"errors"
	"fmt"

	"github.com/Apurer/go-gin-order-taxes/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-order-taxes/internal/domains/orders/ports"
	taxdomain "github.com/Apurer/go-gin-order-taxes/internal/domains/taxation/domain"
	taxports "github.com/Apurer/go-gin-order-taxes/internal/domains/taxation/ports"
)

// Source tags the adjustments produced by the processor.
const Source = "order_taxes"

var (
	// ErrInvalidInput is returned when the order or a rate cannot be taxed.
	ErrInvalidInput = errors.New("invalid order for tax processing")
	ErrNilOrder     = errors.New("order is nil")
)

// Processor computes per-unit and order-level tax adjustments.
type Processor struct {
	categories      taxports.CategoryRepository
	resolver        taxports.RateResolver
	calculator      taxports.Calculator
	factory         ports.AdjustmentFactory
	defaultCategory string
	defaultLookup   func(context.Context) (string, error)
}

type Option func(*Processor)

func WithCalculator(calculator taxports.Calculator) Option {
	return func(p *Processor) {
		if calculator != nil {
			p.calculator = calculator
		}
	}
}

func WithAdjustmentFactory(factory ports.AdjustmentFactory) Option {
	return func(p *Processor) {
		if factory != nil {
			p.factory = factory
		}
	}
}

// WithDefaultTaxCategory sets the category used to tax order-level charges
// such as delivery. Without it those charges are not taxed.
func WithDefaultTaxCategory(code string) Option {
	return func(p *Processor) {
		p.defaultCategory = code
	}
}

// WithDefaultCategoryLookup resolves the default category whenever an
// order-level charge needs taxing, so a changed setting applies without a
// restart. An empty result falls back to WithDefaultTaxCategory.
func WithDefaultCategoryLookup(lookup func(context.Context) (string, error)) Option {
	return func(p *Processor) {
		p.defaultLookup = lookup
	}
}

// NewProcessor wires the processor with its collaborators.
func NewProcessor(categories taxports.CategoryRepository, resolver taxports.RateResolver, opts ...Option) *Processor {
	p := &Processor{
		categories: categories,
		resolver:   resolver,
		calculator: taxdomain.RateCalculator{},
		factory:    domain.NewAdjustmentFactory(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// DefaultTaxCategory returns the configured default category code.
func (p *Processor) DefaultTaxCategory() string {
	return p.defaultCategory
}

// Process replaces the tax adjustments previously produced for order.
// The order is only mutated once every adjustment has been computed, so any
// error leaves it as it was.
func (p *Processor) Process(ctx context.Context, order *domain.Order) error {
	if order == nil {
		return ErrNilOrder
	}
	if err := order.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	run := &run{Processor: p, scope: taxdomain.Scope{Zone: order.Zone}, memo: map[string]*taxdomain.TaxCategory{}}
	var planned []domain.Adjustment
	itemTaxes, err := run.planItems(ctx, order)
	if err != nil {
		return err
	}
	planned = append(planned, itemTaxes...)
	orderTaxes, err := run.planOrderAdjustments(ctx, order)
	if err != nil {
		return err
	}
	planned = append(planned, orderTaxes...)

	if err := order.ReplaceAdjustments(ProducedTax, planned); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return nil
}

// ProducedTax reports whether adj is a tax adjustment written by the processor.
func ProducedTax(adj domain.Adjustment) bool {
	return adj.Type == domain.AdjustmentTax && adj.Source == Source
}

// run holds the per-call state, a category lookup memo.
type run struct {
	*Processor
	scope taxdomain.Scope
	memo  map[string]*taxdomain.TaxCategory
}

func (r *run) planItems(ctx context.Context, order *domain.Order) ([]domain.Adjustment, error) {
	var planned []domain.Adjustment
	for _, item := range order.Items {
		category, err := r.category(ctx, item.Variant.TaxCategoryCode)
		if err != nil {
			return nil, err
		}
		if category == nil {
			continue
		}
		units := order.UnitsOf(item.ID)
		for _, rate := range category.Rates {
			resolved, err := r.resolver.Resolve(ctx, rate, r.scope)
			if err != nil {
				return nil, fmt.Errorf("resolve tax rate %s: %w", rate.Code, err)
			}
			if resolved == nil {
				continue
			}
			amount, err := r.compute(item.UnitPrice, *resolved)
			if err != nil {
				return nil, err
			}
			for _, unit := range units {
				adj := r.newTax(amount, *resolved)
				adj.Owner = domain.UnitOwner(unit.ID)
				planned = append(planned, adj)
			}
		}
	}
	return planned, nil
}

func (r *run) planOrderAdjustments(ctx context.Context, order *domain.Order) ([]domain.Adjustment, error) {
	var taxable []domain.Adjustment
	for _, adj := range order.AdjustmentsOf("") {
		if adj.Type != domain.AdjustmentTax && adj.Type.Taxable() && !adj.Neutral {
			taxable = append(taxable, adj)
		}
	}
	if len(taxable) == 0 {
		return nil, nil
	}
	code, err := r.defaultCode(ctx)
	if err != nil {
		return nil, err
	}
	category, err := r.category(ctx, code)
	if err != nil || category == nil {
		return nil, err
	}

	var planned []domain.Adjustment
	for _, base := range taxable {
		for _, rate := range category.Rates {
			resolved, err := r.resolver.Resolve(ctx, rate, r.scope)
			if err != nil {
				return nil, fmt.Errorf("resolve tax rate %s: %w", rate.Code, err)
			}
			if resolved == nil {
				continue
			}
			amount, err := r.compute(base.Amount, *resolved)
			if err != nil {
				return nil, err
			}
			adj := r.newTax(amount, *resolved)
			adj.Owner = domain.OrderOwner()
			planned = append(planned, adj)
		}
	}
	return planned, nil
}

func (r *run) defaultCode(ctx context.Context) (string, error) {
	if r.defaultLookup == nil {
		return r.defaultCategory, nil
	}
	code, err := r.defaultLookup(ctx)
	if err != nil {
		return "", fmt.Errorf("load default tax category: %w", err)
	}
	if code == "" {
		return r.defaultCategory, nil
	}
	return code, nil
}

// category returns nil without error when code is empty or unknown.
func (r *run) category(ctx context.Context, code string) (*taxdomain.TaxCategory, error) {
	if code == "" {
		return nil, nil
	}
	if category, ok := r.memo[code]; ok {
		return category, nil
	}
	category, err := r.categories.FindByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("load tax category %s: %w", code, err)
	}
	r.memo[code] = category
	return category, nil
}

func (r *run) compute(amount int64, rate taxdomain.TaxRate) (int64, error) {
	tax, err := r.calculator.Calculate(amount, rate)
	if err == nil {
		return tax, nil
	}
	if errors.Is(err, taxdomain.ErrInvalidRateAmount) ||
		errors.Is(err, taxdomain.ErrUnknownCalculator) ||
		errors.Is(err, taxdomain.ErrEmptyRateCode) ||
		errors.Is(err, taxdomain.ErrNegativeTaxableBase) {
		return 0, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return 0, fmt.Errorf("calculate tax rate %s: %w", rate.Code, err)
}

func (r *run) newTax(amount int64, rate taxdomain.TaxRate) domain.Adjustment {
	adj := r.factory.Create(domain.AdjustmentTax, amount, rate.IncludedInPrice, rate.Label())
	adj.OriginCode = rate.Code
	adj.Source = Source
	return adj
}

var _ ports.OrderProcessor = (*Processor)(nil)
