package observability

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel(" WARN "))
	assert.Equal(t, slog.LevelInfo, parseLogLevel(""))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("chatty"))
}

func TestNewInMemory_RecordsSpansAndMetrics(t *testing.T) {
	instruments, spans := NewInMemory(nil)
	ctx := context.Background()

	_, span := instruments.Tracer("test").Start(ctx, "recalculate")
	span.End()
	require.Len(t, spans.Ended(), 1)
	assert.Equal(t, "recalculate", spans.Ended()[0].Name())

	counter, err := instruments.Meter("test").Int64Counter("orders.test")
	require.NoError(t, err)
	counter.Add(ctx, 3)

	var rm metricdata.ResourceMetrics
	require.NoError(t, instruments.MetricReader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	sum, ok := rm.ScopeMetrics[0].Metrics[0].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Equal(t, int64(3), sum.DataPoints[0].Value)
}

func TestNilInstrumentsFallBack(t *testing.T) {
	var instruments *Instruments
	assert.NotNil(t, instruments.Tracer("x"))
	assert.NotNil(t, instruments.Meter("x"))
}
