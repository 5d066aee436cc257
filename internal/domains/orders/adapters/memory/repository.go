package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Apurer/go-gin-order-taxes/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-order-taxes/internal/domains/orders/ports"
	"github.com/Apurer/go-gin-order-taxes/internal/shared/projection"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory implementation used for demos/tests.
type Repository struct {
	mu     sync.RWMutex
	orders map[int64]*storedOrder
	nextID int64
	now    func() time.Time
}

type storedOrder struct {
	order    *domain.Order
	metadata projection.Metadata
}

// NewRepository constructs an empty in-memory store.
func NewRepository() *Repository {
	return &Repository{
		orders: map[int64]*storedOrder{},
		now:    time.Now,
	}
}

// WithClock overrides the time source for deterministic testing.
func (r *Repository) WithClock(now func() time.Time) {
	if now != nil {
		r.now = now
	}
}

// Save inserts or replaces an order while maintaining metadata. Orders
// without an identifier get the next one. Replacing requires the caller's
// Version to match the stored one.
func (r *Repository) Save(_ context.Context, order *domain.Order) (*projection.Projection[*domain.Order], error) {
	if order == nil {
		return nil, errors.New("cannot save nil order")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	clone := order.Clone()
	var metadata projection.Metadata
	if entry, ok := r.orders[clone.ID]; ok && clone.ID != 0 {
		if entry.order.Version != clone.Version {
			return nil, ports.ErrStaleOrder
		}
		metadata = entry.metadata
	} else if clone.Version != 0 {
		return nil, ports.ErrStaleOrder
	}
	if clone.ID == 0 {
		r.nextID++
		clone.ID = r.nextID
	} else if clone.ID > r.nextID {
		r.nextID = clone.ID
	}
	clone.Version++
	stored := &storedOrder{order: clone, metadata: metadata.Touched(r.now())}
	r.orders[clone.ID] = stored
	return projectionCopy(stored), nil
}

// GetByID fetches an order if present.
func (r *Repository) GetByID(_ context.Context, id int64) (*projection.Projection[*domain.Order], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return projectionCopy(entry), nil
}

// Delete removes an order.
func (r *Repository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return ports.ErrNotFound
	}
	delete(r.orders, id)
	return nil
}

// List returns every order sorted by identifier.
func (r *Repository) List(_ context.Context) ([]*projection.Projection[*domain.Order], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*projection.Projection[*domain.Order], 0, len(r.orders))
	for _, entry := range r.orders {
		result = append(result, projectionCopy(entry))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Entity.ID < result[j].Entity.ID })
	return result, nil
}

func projectionCopy(entry *storedOrder) *projection.Projection[*domain.Order] {
	return &projection.Projection[*domain.Order]{
		Entity:   entry.order.Clone(),
		Metadata: entry.metadata,
	}
}
