//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"github.com/Apurer/go-gin-order-taxes/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-order-taxes/internal/domains/orders/ports"
	"github.com/Apurer/go-gin-order-taxes/internal/platform/migrations"
	platformpostgres "github.com/Apurer/go-gin-order-taxes/internal/platform/postgres"
)

func setupOrdersPostgresContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("orders_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := platformpostgres.Connect(ctx, dsn, platformpostgres.WithPool(4, 2, 0))
	require.NoError(t, err)

	err = migrations.Run(db)
	require.NoError(t, err)

	cleanup := func() {
		_ = platformpostgres.Close(db)
		_ = pgContainer.Terminate(ctx)
	}

	return db, cleanup
}

func sampleOrder(t *testing.T) *domain.Order {
	t.Helper()
	order := domain.NewOrder(0, "ca-bc", "CAD")
	itemID, err := order.AddItem(domain.ProductVariant{Code: "chair", Name: "Chair", TaxCategoryCode: "goods"}, 1000, 2)
	require.NoError(t, err)
	factory := domain.NewAdjustmentFactory()
	for _, unit := range order.UnitsOf(itemID) {
		adj := factory.Create(domain.AdjustmentTax, 50, false, "GST")
		adj.OriginCode = "gst"
		adj.Source = "order_taxes"
		require.NoError(t, order.AddUnitAdjustment(unit.ID, adj))
	}
	require.NoError(t, order.AddAdjustment(factory.Create(domain.AdjustmentDelivery, 350, false, "Delivery")))
	return order
}

func TestRepository_SaveAssignsIDAndRoundTrips(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()
	order := sampleOrder(t)

	saved, err := repo.Save(ctx, order)
	require.NoError(t, err)
	require.NotZero(t, saved.Entity.ID)
	assert.False(t, saved.Metadata.CreatedAt.IsZero())

	fetched, err := repo.GetByID(ctx, saved.Entity.ID)
	require.NoError(t, err)
	assert.Equal(t, "ca-bc", fetched.Entity.Zone)
	assert.Equal(t, 2, fetched.Entity.Quantity(fetched.Entity.Items[0].ID))
	assert.Len(t, fetched.Entity.AdjustmentsRecursively(domain.AdjustmentTax), 2)
	assert.Equal(t, order.Total(), fetched.Entity.Total())
	assert.Equal(t, order.TaxTotal(), fetched.Entity.TaxTotal())
	assert.Equal(t, order.Adjustments, fetched.Entity.Adjustments)
}

func TestRepository_SaveReplacesChildren(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()
	saved, err := repo.Save(ctx, sampleOrder(t))
	require.NoError(t, err)

	order := saved.Entity
	require.NoError(t, order.RemoveItem(order.Items[0].ID))
	_, err = order.RemoveAdjustments(domain.AdjustmentDelivery)
	require.NoError(t, err)
	require.NoError(t, order.Finalize())

	updated, err := repo.Save(ctx, order)
	require.NoError(t, err)
	assert.Equal(t, saved.Entity.ID, updated.Entity.ID)
	assert.Empty(t, updated.Entity.Items)
	assert.Empty(t, updated.Entity.Adjustments)
	assert.Equal(t, domain.StateFinalized, updated.Entity.State)
	assert.Equal(t, saved.Metadata.CreatedAt.Unix(), updated.Metadata.CreatedAt.Unix())
}

func TestRepository_SaveRejectsStaleVersion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()
	saved, err := repo.Save(ctx, sampleOrder(t))
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.Entity.Version)
	stale := saved.Entity.Clone()

	finalized := saved.Entity.Clone()
	require.NoError(t, finalized.Finalize())
	updated, err := repo.Save(ctx, finalized)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Entity.Version)

	require.NoError(t, stale.RemoveItem(stale.Items[0].ID))
	_, err = repo.Save(ctx, stale)
	require.ErrorIs(t, err, ports.ErrStaleOrder)

	fetched, err := repo.GetByID(ctx, saved.Entity.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateFinalized, fetched.Entity.State)
	assert.Len(t, fetched.Entity.Items, 1)
}

func TestRepository_ListAndDelete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()
	var ids []int64
	for i := 0; i < 3; i++ {
		saved, err := repo.Save(ctx, sampleOrder(t))
		require.NoError(t, err)
		ids = append(ids, saved.Entity.ID)
	}

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, ids[0], list[0].Entity.ID)

	require.NoError(t, repo.Delete(ctx, ids[1]))
	_, err = repo.GetByID(ctx, ids[1])
	assert.ErrorIs(t, err, ports.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, ids[1]), ports.ErrNotFound)
}

func TestIdempotencyStore_SaveConflictAndPurge(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupOrdersPostgresContainer(t)
	defer cleanup()

	store := NewIdempotencyStore(db)
	ctx := context.Background()
	old := time.Now().Add(-48 * time.Hour).UTC()

	saved, err := store.Save(ctx, ports.IdempotencyRecord{Key: "k1", RequestHash: "h1", OrderID: 1, CreatedAt: old, UpdatedAt: old})
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.OrderID)

	again, err := store.Save(ctx, ports.IdempotencyRecord{Key: "k1", RequestHash: "h1", OrderID: 1})
	require.NoError(t, err)
	assert.Equal(t, "h1", again.RequestHash)

	conflict, err := store.Save(ctx, ports.IdempotencyRecord{Key: "k1", RequestHash: "h2", OrderID: 2})
	require.ErrorIs(t, err, ports.ErrIdempotencyConflict)
	assert.Equal(t, int64(1), conflict.OrderID)

	_, err = store.Save(ctx, ports.IdempotencyRecord{Key: "k2", RequestHash: "h", OrderID: 3})
	require.NoError(t, err)

	removed, err := store.PurgeBefore(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	missing, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
