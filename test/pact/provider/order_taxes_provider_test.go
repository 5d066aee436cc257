//go:build pact
// +build pact

package provider_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	pacttest "github.com/Apurer/go-gin-order-taxes/test/pact"

	"github.com/gin-gonic/gin"
	"github.com/pact-foundation/pact-go/v2/models"
	pactprovider "github.com/pact-foundation/pact-go/v2/provider"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	ordersserver "github.com/Apurer/go-gin-order-taxes/go"
	ordersmemory "github.com/Apurer/go-gin-order-taxes/internal/domains/orders/adapters/memory"
	ordersobs "github.com/Apurer/go-gin-order-taxes/internal/domains/orders/adapters/observability"
	ordersworkflows "github.com/Apurer/go-gin-order-taxes/internal/domains/orders/adapters/workflows"
	ordersapp "github.com/Apurer/go-gin-order-taxes/internal/domains/orders/application"
	"github.com/Apurer/go-gin-order-taxes/internal/domains/orders/application/taxes"
	orderdomain "github.com/Apurer/go-gin-order-taxes/internal/domains/orders/domain"
	taxmemory "github.com/Apurer/go-gin-order-taxes/internal/domains/taxation/adapters/memory"
	taxobs "github.com/Apurer/go-gin-order-taxes/internal/domains/taxation/adapters/observability"
	taxapp "github.com/Apurer/go-gin-order-taxes/internal/domains/taxation/application"
	taxdomain "github.com/Apurer/go-gin-order-taxes/internal/domains/taxation/domain"
)

func TestOrderTaxesProviderPact(t *testing.T) {
	gin.SetMode(gin.TestMode)

	app := newContractProviderApp(t)
	pactFile := filepath.ToSlash(pacttest.PactFile(t))
	if _, err := os.Stat(pactFile); errors.Is(err, os.ErrNotExist) {
		t.Fatalf("pact file not found at %s - run the pact consumer tests first", pactFile)
	} else {
		require.NoError(t, err)
	}

	verifier := pactprovider.NewVerifier()
	stateHandlers := models.StateHandlers{
		pacttest.StateOrderExists: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.resetOrders(t)
			if setup {
				app.seedOrder(t, pacttest.ExistingOrderID)
			}
			return nil, nil
		},
		pacttest.StateOrderMissing: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.resetOrders(t)
			return nil, nil
		},
	}

	err := verifier.VerifyProvider(t, pactprovider.VerifyRequest{
		ProviderBaseURL: app.server.URL,
		Provider:        pacttest.ProviderName,
		PactFiles:       []string{pactFile},
		StateHandlers:   stateHandlers,
		BeforeEach: func() error {
			app.resetOrders(t)
			return nil
		},
	})
	require.NoError(t, err)
}

type contractProviderApp struct {
	orders *ordersmemory.Repository
	server *httptest.Server
}

func newContractProviderApp(t testing.TB) *contractProviderApp {
	t.Helper()

	categories := taxmemory.NewCategoryRepository(exampleCategory(t))
	taxService := taxobs.New(taxapp.NewService(categories, taxmemory.NewSettingsStore(nil)))

	orderRepo := ordersmemory.NewRepository()
	processor := taxes.NewProcessor(categories, taxapp.ZoneRateResolver{},
		taxes.WithDefaultCategoryLookup(taxService.DefaultCategory))
	orderService := ordersobs.New(ordersapp.NewService(
		orderRepo,
		processor,
		ordersapp.WithIdempotencyStore(ordersmemory.NewIdempotencyStore()),
	))

	handlers := ordersserver.ApiHandleFunctions{
		OrderAPI:       ordersserver.NewOrderAPI(orderService, ordersworkflows.NewInlineOrderWorkflows(orderService)),
		TaxCategoryAPI: ordersserver.NewTaxCategoryAPI(taxService),
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router = ordersserver.NewRouterWithGinEngine(router, handlers)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &contractProviderApp{orders: orderRepo, server: server}
}

func exampleCategory(t testing.TB) *taxdomain.TaxCategory {
	t.Helper()
	gst, err := taxdomain.NewTaxRate("gst", "GST", decimal.RequireFromString("0.05"), false, "ca", taxdomain.CalculatorDefault)
	require.NoError(t, err)
	pst, err := taxdomain.NewTaxRate("pst", "PST", decimal.RequireFromString("0.07"), false, pacttest.ExampleZone, taxdomain.CalculatorDefault)
	require.NoError(t, err)
	category, err := taxdomain.NewTaxCategory(pacttest.ExampleCategoryCode, "Goods", gst, pst)
	require.NoError(t, err)
	return category
}

func (a *contractProviderApp) resetOrders(t testing.TB) {
	t.Helper()
	orders, err := a.orders.List(context.Background())
	require.NoError(t, err)
	for _, projection := range orders {
		_ = a.orders.Delete(context.Background(), projection.Entity.ID)
	}
}

func (a *contractProviderApp) seedOrder(t testing.TB, id int64) {
	t.Helper()
	order := orderdomain.NewOrder(id, pacttest.ExampleZone, pacttest.ExampleCurrency)
	_, err := order.AddItem(orderdomain.ProductVariant{
		Code:            pacttest.ExampleVariantCode,
		Name:            "Pact Tee",
		TaxCategoryCode: pacttest.ExampleCategoryCode,
	}, pacttest.ExampleUnitPrice, 1)
	require.NoError(t, err)
	_, err = a.orders.Save(context.Background(), order)
	require.NoError(t, err)
}
