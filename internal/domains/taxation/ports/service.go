package ports

import (
	"context"

	"github.com/Apurer/go-gin-order-taxes/internal/domains/taxation/domain"
)

// RateInput carries the raw rate attributes received from adapters.
type RateInput struct {
	Code            string
	Name            string
	Amount          string
	IncludedInPrice bool
	Zone            string
	Calculator      string
}

// SaveCategoryInput describes a full replacement of a category and its rates.
type SaveCategoryInput struct {
	Code  string
	Name  string
	Rates []RateInput
}

// Service exposes tax configuration use cases to adapters.
type Service interface {
	SaveCategory(ctx context.Context, input SaveCategoryInput) (*domain.TaxCategory, error)
	GetCategory(ctx context.Context, code string) (*domain.TaxCategory, error)
	ListCategories(ctx context.Context) ([]*domain.TaxCategory, error)
	DeleteCategory(ctx context.Context, code string) error
	DefaultCategory(ctx context.Context) (string, error)
	SetDefaultCategory(ctx context.Context, code string) error
}
