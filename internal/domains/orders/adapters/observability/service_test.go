package observability

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	ordersmemory "github.com/Apurer/go-gin-order-taxes/internal/domains/orders/adapters/memory"
	ordersapp "github.com/Apurer/go-gin-order-taxes/internal/domains/orders/application"
	"github.com/Apurer/go-gin-order-taxes/internal/domains/orders/application/taxes"
	ordertypes "github.com/Apurer/go-gin-order-taxes/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-order-taxes/internal/domains/orders/ports"
	taxmemory "github.com/Apurer/go-gin-order-taxes/internal/domains/taxation/adapters/memory"
	taxapp "github.com/Apurer/go-gin-order-taxes/internal/domains/taxation/application"
	taxdomain "github.com/Apurer/go-gin-order-taxes/internal/domains/taxation/domain"
	platformobservability "github.com/Apurer/go-gin-order-taxes/internal/platform/observability"
)

func newObservedService(t *testing.T) (ports.Service, *platformobservability.Instruments, func() []string) {
	t.Helper()
	food, err := taxdomain.NewTaxCategory("food", "Food",
		taxdomain.TaxRate{Code: "vat", Amount: decimal.RequireFromString("0.1"), IncludedInPrice: true, Calculator: taxdomain.CalculatorDefault})
	require.NoError(t, err)
	processor := taxes.NewProcessor(taxmemory.NewCategoryRepository(food), taxapp.ZoneRateResolver{})

	instruments, spans := platformobservability.NewInMemory(nil)
	svc := New(ordersapp.NewService(ordersmemory.NewRepository(), processor),
		WithLogger(instruments.Logger),
		WithTracer(instruments.Tracer(tracerName)),
		WithMeter(instruments.Meter(tracerName)),
	)
	names := func() []string {
		var out []string
		for _, s := range spans.Ended() {
			out = append(out, s.Name())
		}
		return out
	}
	return svc, instruments, names
}

func counterValue(t *testing.T, instruments *platformobservability.Instruments, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, instruments.MetricReader.Collect(context.Background(), &rm))
	var total int64
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestService_RecordsRecalculation(t *testing.T) {
	svc, instruments, spanNames := newObservedService(t)

	_, err := svc.CreateOrder(context.Background(), ordertypes.CreateOrderInput{
		Zone:     "fr",
		Currency: "EUR",
		Items: []ordertypes.AddItemInput{
			{VariantCode: "pizza", TaxCategoryCode: "food", UnitPrice: 1000, Quantity: 2},
		},
	})
	require.NoError(t, err)

	assert.Contains(t, spanNames(), "Service.CreateOrder")
	assert.Equal(t, int64(1), counterValue(t, instruments, "orders.service.recalculations"))
	assert.Equal(t, int64(182), counterValue(t, instruments, "orders.service.tax_total"))
}

func TestService_MarksFailedSpans(t *testing.T) {
	svc, _, _ := newObservedService(t)
	instruments, spans := platformobservability.NewInMemory(nil)
	svc = New(svc, WithTracer(instruments.Tracer(tracerName)))

	_, err := svc.GetOrder(context.Background(), ordertypes.OrderIdentifier{ID: 404})
	require.ErrorIs(t, err, ports.ErrNotFound)

	ended := spans.Ended()
	require.NotEmpty(t, ended)
	last := ended[len(ended)-1]
	assert.Equal(t, "Service.GetOrder", last.Name())
	assert.Equal(t, codes.Error, last.Status().Code)
}
