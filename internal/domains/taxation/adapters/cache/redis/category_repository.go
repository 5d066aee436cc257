package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-order-taxes/internal/domains/taxation/domain"
	"github.com/Apurer/go-gin-order-taxes/internal/domains/taxation/ports"
)

const (
	categoryKeyPrefix = "tax_category:"
	DefaultCacheTTL   = 5 * time.Minute
)

var _ ports.CategoryRepository = (*CategoryRepository)(nil)

// CategoryRepository is a read-through Redis cache in front of another category repository.
// Cache failures are logged and never fail the lookup.
type CategoryRepository struct {
	inner  ports.CategoryRepository
	client goredis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

// NewCategoryRepository wraps inner with a Redis cache.
func NewCategoryRepository(inner ports.CategoryRepository, client goredis.Cmdable, ttl time.Duration, logger *slog.Logger) *CategoryRepository {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CategoryRepository{inner: inner, client: client, ttl: ttl, logger: logger}
}

type cachedRate struct {
	Code            string          `json:"code"`
	Name            string          `json:"name"`
	Amount          decimal.Decimal `json:"amount"`
	IncludedInPrice bool            `json:"included_in_price"`
	Zone            string          `json:"zone,omitempty"`
	Calculator      string          `json:"calculator"`
}

type cachedCategory struct {
	Code  string       `json:"code"`
	Name  string       `json:"name"`
	Rates []cachedRate `json:"rates"`
}

func (r *CategoryRepository) FindByCode(ctx context.Context, code string) (*domain.TaxCategory, error) {
	key := categoryKeyPrefix + code
	data, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached cachedCategory
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached.toDomain(), nil
		}
		r.logger.WarnContext(ctx, "discarding undecodable cached tax category", slog.String("code", code))
	case !errors.Is(err, goredis.Nil):
		r.logger.WarnContext(ctx, "tax category cache get failed", slog.String("code", code), slog.String("error", err.Error()))
	}

	category, err := r.inner.FindByCode(ctx, code)
	if err != nil || category == nil {
		return category, err
	}
	r.store(ctx, category)
	return category, nil
}

func (r *CategoryRepository) Save(ctx context.Context, category *domain.TaxCategory) (*domain.TaxCategory, error) {
	saved, err := r.inner.Save(ctx, category)
	if err != nil {
		return nil, err
	}
	r.evict(ctx, saved.Code)
	return saved, nil
}

func (r *CategoryRepository) Delete(ctx context.Context, code string) error {
	if err := r.inner.Delete(ctx, code); err != nil {
		return err
	}
	r.evict(ctx, code)
	return nil
}

func (r *CategoryRepository) List(ctx context.Context) ([]*domain.TaxCategory, error) {
	return r.inner.List(ctx)
}

func (r *CategoryRepository) store(ctx context.Context, category *domain.TaxCategory) {
	data, err := json.Marshal(fromDomain(category))
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, categoryKeyPrefix+category.Code, data, r.ttl).Err(); err != nil {
		r.logger.WarnContext(ctx, "tax category cache set failed", slog.String("code", category.Code), slog.String("error", err.Error()))
	}
}

func (r *CategoryRepository) evict(ctx context.Context, code string) {
	if err := r.client.Del(ctx, categoryKeyPrefix+code).Err(); err != nil {
		r.logger.WarnContext(ctx, "tax category cache delete failed", slog.String("code", code), slog.String("error", err.Error()))
	}
}

func fromDomain(category *domain.TaxCategory) cachedCategory {
	cached := cachedCategory{Code: category.Code, Name: category.Name, Rates: make([]cachedRate, 0, len(category.Rates))}
	for _, rate := range category.Rates {
		cached.Rates = append(cached.Rates, cachedRate{
			Code:            rate.Code,
			Name:            rate.Name,
			Amount:          rate.Amount,
			IncludedInPrice: rate.IncludedInPrice,
			Zone:            rate.Zone,
			Calculator:      string(rate.Calculator),
		})
	}
	return cached
}

func (c cachedCategory) toDomain() *domain.TaxCategory {
	category := &domain.TaxCategory{Code: c.Code, Name: c.Name}
	for _, rate := range c.Rates {
		category.Rates = append(category.Rates, domain.TaxRate{
			Code:            rate.Code,
			Name:            rate.Name,
			Amount:          rate.Amount,
			IncludedInPrice: rate.IncludedInPrice,
			Zone:            rate.Zone,
			Calculator:      domain.CalculatorKind(rate.Calculator),
		})
	}
	return category
}
