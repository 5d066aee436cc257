package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-order-taxes/internal/domains/taxation/domain"
	"github.com/Apurer/go-gin-order-taxes/internal/domains/taxation/ports"
)

// Service manages tax categories and the default category setting.
type Service struct {
	repo     ports.CategoryRepository
	settings ports.SettingsStore
}

func NewService(repo ports.CategoryRepository, settings ports.SettingsStore) *Service {
	return &Service{repo: repo, settings: settings}
}

// SaveCategory replaces a category and all its rates.
func (s *Service) SaveCategory(ctx context.Context, input ports.SaveCategoryInput) (*domain.TaxCategory, error) {
	rates := make([]domain.TaxRate, 0, len(input.Rates))
	for _, in := range input.Rates {
		rate, err := buildRate(in)
		if err != nil {
			return nil, mapError(err)
		}
		rates = append(rates, rate)
	}
	category, err := domain.NewTaxCategory(input.Code, input.Name, rates...)
	if err != nil {
		return nil, mapError(err)
	}
	return s.repo.Save(ctx, category)
}

// GetCategory loads a category by code.
func (s *Service) GetCategory(ctx context.Context, code string) (*domain.TaxCategory, error) {
	category, err := s.repo.FindByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ports.ErrNotFound
	}
	return category, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]*domain.TaxCategory, error) {
	return s.repo.List(ctx)
}

func (s *Service) DeleteCategory(ctx context.Context, code string) error {
	return s.repo.Delete(ctx, strings.TrimSpace(code))
}

// DefaultCategory returns the configured default category code, or "" when unset.
func (s *Service) DefaultCategory(ctx context.Context) (string, error) {
	value, ok, err := s.settings.Get(ctx, ports.SettingDefaultTaxCategory)
	if err != nil || !ok {
		return "", err
	}
	return value, nil
}

// SetDefaultCategory points the default setting at an existing category.
func (s *Service) SetDefaultCategory(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return mapError(domain.ErrEmptyCategoryCode)
	}
	if _, err := s.GetCategory(ctx, code); err != nil {
		return err
	}
	return s.settings.Set(ctx, ports.SettingDefaultTaxCategory, code)
}

func buildRate(in ports.RateInput) (domain.TaxRate, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(in.Amount))
	if err != nil {
		return domain.TaxRate{}, fmt.Errorf("%w: %q", domain.ErrInvalidRateAmount, in.Amount)
	}
	return domain.NewTaxRate(in.Code, in.Name, amount, in.IncludedInPrice, in.Zone, domain.CalculatorKind(in.Calculator))
}

var _ ports.Service = (*Service)(nil)
