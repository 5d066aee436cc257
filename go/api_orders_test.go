package ordersserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ordermapper "github.com/Apurer/go-gin-order-taxes/internal/domains/orders/adapters/http/mapper"
	ordersmemory "github.com/Apurer/go-gin-order-taxes/internal/domains/orders/adapters/memory"
	ordersobs "github.com/Apurer/go-gin-order-taxes/internal/domains/orders/adapters/observability"
	ordersworkflows "github.com/Apurer/go-gin-order-taxes/internal/domains/orders/adapters/workflows"
	ordersapp "github.com/Apurer/go-gin-order-taxes/internal/domains/orders/application"
	"github.com/Apurer/go-gin-order-taxes/internal/domains/orders/application/taxes"
	taxmapper "github.com/Apurer/go-gin-order-taxes/internal/domains/taxation/adapters/http/mapper"
	taxmemory "github.com/Apurer/go-gin-order-taxes/internal/domains/taxation/adapters/memory"
	taxobs "github.com/Apurer/go-gin-order-taxes/internal/domains/taxation/adapters/observability"
	taxapp "github.com/Apurer/go-gin-order-taxes/internal/domains/taxation/application"
	apierrors "github.com/Apurer/go-gin-order-taxes/internal/shared/errors"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	categories := taxmemory.NewCategoryRepository()
	settings := taxmemory.NewSettingsStore(nil)
	taxService := taxobs.New(taxapp.NewService(categories, settings))

	processor := taxes.NewProcessor(categories, taxapp.ZoneRateResolver{},
		taxes.WithDefaultCategoryLookup(taxService.DefaultCategory))
	orderService := ordersobs.New(ordersapp.NewService(
		ordersmemory.NewRepository(),
		processor,
		ordersapp.WithIdempotencyStore(ordersmemory.NewIdempotencyStore()),
	))

	handlers := ApiHandleFunctions{
		OrderAPI:       NewOrderAPI(orderService, ordersworkflows.NewInlineOrderWorkflows(orderService)),
		TaxCategoryAPI: NewTaxCategoryAPI(taxService),
	}
	return NewRouterWithGinEngine(gin.New(), handlers)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequestWithContext(context.Background(), method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeOrder(t *testing.T, rec *httptest.ResponseRecorder) ordermapper.Order {
	t.Helper()
	var order ordermapper.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	return order
}

func seedCanadianTaxes(t *testing.T, router http.Handler) {
	t.Helper()
	goods := taxmapper.TaxCategory{Name: "Goods", Rates: []taxmapper.TaxRate{
		{Code: "gst", Name: "GST", Amount: "0.05", Zone: "ca"},
		{Code: "pst", Name: "PST", Amount: "0.07", Zone: "ca-bc"},
	}}
	rec := doJSON(t, router, http.MethodPut, "/v1/tax-categories/goods", goods)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodPut, "/v1/settings/default-tax-category", taxmapper.DefaultCategory{Code: "goods"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestOrderAPI_CartLifecycle(t *testing.T) {
	router := newTestRouter(t)
	seedCanadianTaxes(t, router)

	create := ordermapper.CreateOrderRequest{Zone: "CA-BC", Currency: "cad", Items: []ordermapper.ItemRequest{
		{VariantCode: "chair", TaxCategoryCode: "goods", UnitPrice: 1000, Quantity: 1},
	}}
	rec := doJSON(t, router, http.MethodPost, "/v1/orders", create)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decodeOrder(t, rec)
	assert.Equal(t, "ca-bc", order.Zone)
	assert.Equal(t, "CAD", order.Currency)
	assert.Equal(t, int64(120), order.TaxTotal)
	assert.Equal(t, int64(1120), order.Total)
	require.Len(t, order.Items, 1)
	require.Len(t, order.Items[0].Units, 1)
	assert.Len(t, order.Items[0].Units[0].Adjustments, 2)

	base := fmt.Sprintf("/v1/orders/%d", order.ID)
	amount := int64(500)
	rec = doJSON(t, router, http.MethodPut, base+"/delivery", ordermapper.DeliveryRequest{Amount: &amount})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	order = decodeOrder(t, rec)
	assert.Equal(t, int64(180), order.TaxTotal)
	assert.Equal(t, int64(1680), order.Total)

	itemPath := fmt.Sprintf("%s/items/%d", base, order.Items[0].ID)
	rec = doJSON(t, router, http.MethodPut, itemPath, ordermapper.QuantityRequest{Quantity: 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	order = decodeOrder(t, rec)
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.Equal(t, int64(300), order.TaxTotal)

	rec = doJSON(t, router, http.MethodDelete, base+"/adjustments/delivery", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	order = decodeOrder(t, rec)
	assert.Equal(t, int64(240), order.TaxTotal)
	assert.Equal(t, int64(2240), order.Total)

	rec = doJSON(t, router, http.MethodPost, base+"/finalize", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "finalized", decodeOrder(t, rec).State)

	rec = doJSON(t, router, http.MethodPost, base+"/items", ordermapper.ItemRequest{VariantCode: "lamp", UnitPrice: 100, Quantity: 1})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apierrors.ContentTypeProblemJSON, rec.Header().Get("Content-Type"))
}

func TestOrderAPI_TipIsNotTaxed(t *testing.T) {
	router := newTestRouter(t)
	seedCanadianTaxes(t, router)

	rec := doJSON(t, router, http.MethodPost, "/v1/orders", ordermapper.CreateOrderRequest{Zone: "ca-bc", Currency: "CAD"})
	require.Equal(t, http.StatusCreated, rec.Code)
	base := fmt.Sprintf("/v1/orders/%d", decodeOrder(t, rec).ID)

	rec = doJSON(t, router, http.MethodPost, base+"/adjustments", ordermapper.AdjustmentRequest{Type: "tip", Amount: 300, Label: "Tip"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	order := decodeOrder(t, rec)
	assert.Zero(t, order.TaxTotal)
	assert.Equal(t, int64(300), order.Total)

	rec = doJSON(t, router, http.MethodPost, base+"/adjustments", ordermapper.AdjustmentRequest{Type: "tax", Amount: -10})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, base+"/adjustments", ordermapper.AdjustmentRequest{Type: "bogus", Amount: 10})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderAPI_IdempotentCreate(t *testing.T) {
	router := newTestRouter(t)
	create := ordermapper.CreateOrderRequest{Zone: "fr", Currency: "EUR"}

	first := doJSON(t, router, http.MethodPost, "/v1/orders", create, IdempotencyKeyHeader, "abc")
	require.Equal(t, http.StatusCreated, first.Code)
	second := doJSON(t, router, http.MethodPost, "/v1/orders", create, IdempotencyKeyHeader, "abc")
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, decodeOrder(t, first).ID, decodeOrder(t, second).ID)

	create.Zone = "de"
	conflict := doJSON(t, router, http.MethodPost, "/v1/orders", create, IdempotencyKeyHeader, "abc")
	require.Equal(t, http.StatusConflict, conflict.Code)
	var problem apierrors.ProblemDetail
	require.NoError(t, json.Unmarshal(conflict.Body.Bytes(), &problem))
	assert.Equal(t, "abc", problem.Extensions["idempotencyKey"])

	rec := doJSON(t, router, http.MethodGet, "/v1/orders", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []ordermapper.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestOrderAPI_Errors(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/orders/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/v1/orders/404", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var problem apierrors.ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, apierrors.TypeNotFound, problem.Type)
	assert.Equal(t, "/v1/orders/404", problem.Instance)

	rec = doJSON(t, router, http.MethodPost, "/v1/orders", ordermapper.CreateOrderRequest{Items: []ordermapper.ItemRequest{{VariantCode: "x", UnitPrice: 10, Quantity: 0}}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/v1/orders", ordermapper.CreateOrderRequest{})
	require.Equal(t, http.StatusCreated, rec.Code)
	base := fmt.Sprintf("/v1/orders/%d", decodeOrder(t, rec).ID)

	rec = doJSON(t, router, http.MethodPut, base+"/delivery", ordermapper.DeliveryRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPut, base+"/items/999", ordermapper.QuantityRequest{Quantity: 2})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, apierrors.TypeNotFound, problem.Type)
	rec = doJSON(t, router, http.MethodDelete, base+"/items/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = doJSON(t, router, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTaxCategoryAPI(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPut, "/v1/tax-categories/food", taxmapper.TaxCategory{Rates: []taxmapper.TaxRate{{Code: "vat", Amount: "abc"}}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = doJSON(t, router, http.MethodPut, "/v1/tax-categories/food", taxmapper.TaxCategory{Name: "Food", Rates: []taxmapper.TaxRate{{Code: "vat", Amount: "0.0500001"}}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPut, "/v1/tax-categories/food", taxmapper.TaxCategory{Name: "Food", Rates: []taxmapper.TaxRate{{Code: "vat", Amount: "0.1", IncludedInPrice: true}}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodGet, "/v1/tax-categories/food", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var category taxmapper.TaxCategory
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &category))
	assert.Equal(t, "food", category.Code)
	require.Len(t, category.Rates, 1)
	assert.Equal(t, "0.1", category.Rates[0].Amount)
	assert.Equal(t, "default", category.Rates[0].Calculator)

	rec = doJSON(t, router, http.MethodGet, "/v1/tax-categories", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []taxmapper.TaxCategory
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rec = doJSON(t, router, http.MethodPut, "/v1/settings/default-tax-category", taxmapper.DefaultCategory{Code: "missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodPut, "/v1/settings/default-tax-category", taxmapper.DefaultCategory{Code: "food"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, router, http.MethodGet, "/v1/settings/default-tax-category", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"code":"food"}`, rec.Body.String())

	rec = doJSON(t, router, http.MethodDelete, "/v1/tax-categories/food", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = doJSON(t, router, http.MethodGet, "/v1/tax-categories/food", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
