package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/Apurer/go-gin-order-taxes/internal/domains/taxation/domain"
	"github.com/Apurer/go-gin-order-taxes/internal/domains/taxation/ports"
)

var _ ports.CategoryRepository = (*CategoryRepository)(nil)

// CategoryRepository is an in-memory tax category persistence adapter.
type CategoryRepository struct {
	mu         sync.RWMutex
	categories map[string]*domain.TaxCategory
}

func NewCategoryRepository(seed ...*domain.TaxCategory) *CategoryRepository {
	repo := &CategoryRepository{categories: map[string]*domain.TaxCategory{}}
	for _, category := range seed {
		if category != nil {
			repo.categories[category.Code] = category.Clone()
		}
	}
	return repo
}

func (r *CategoryRepository) FindByCode(_ context.Context, code string) (*domain.TaxCategory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	category, ok := r.categories[code]
	if !ok {
		return nil, nil
	}
	return category.Clone(), nil
}

func (r *CategoryRepository) Save(_ context.Context, category *domain.TaxCategory) (*domain.TaxCategory, error) {
	if category == nil {
		return nil, errors.New("tax category is nil")
	}
	if err := category.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories[category.Code] = category.Clone()
	return category.Clone(), nil
}

func (r *CategoryRepository) Delete(_ context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[code]; !ok {
		return ports.ErrNotFound
	}
	delete(r.categories, code)
	return nil
}

func (r *CategoryRepository) List(_ context.Context) ([]*domain.TaxCategory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*domain.TaxCategory, 0, len(r.categories))
	for _, category := range r.categories {
		list = append(list, category.Clone())
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	return list, nil
}
