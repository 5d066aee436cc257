package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-gin-order-taxes/internal/domains/taxation/domain"
)

var ErrNotFound = errors.New("tax category not found")

// CategoryRepository persists tax categories with their rates.
type CategoryRepository interface {
	// FindByCode returns the category for code, or nil when none is stored.
	FindByCode(ctx context.Context, code string) (*domain.TaxCategory, error)
	Save(ctx context.Context, category *domain.TaxCategory) (*domain.TaxCategory, error)
	Delete(ctx context.Context, code string) error
	List(ctx context.Context) ([]*domain.TaxCategory, error)
}
