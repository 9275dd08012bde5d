package telemetry_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/jhoicas/inventario-ledger/internal/infrastructure/telemetry"
	"github.com/jhoicas/inventario-ledger/pkg/config"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

func TestLedgerMetrics_NegativeStock_CuentaPorProductoYAlcance(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := telemetry.NewLedgerMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.NegativeStock(ctx, "P", "", decimal.NewFromInt(-3))
	m.NegativeStock(ctx, "P", "WH/Stock", decimal.NewFromInt(-3))
	m.NegativeStock(ctx, "P", "WH/Stock", decimal.NewFromInt(-1))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	var sum metricdata.Sum[int64]
	for _, mt := range rm.ScopeMetrics[0].Metrics {
		if mt.Name == "inventory_negative_stock_total" {
			sum = mt.Data.(metricdata.Sum[int64])
		}
	}
	require.Len(t, sum.DataPoints, 2)
	byScope := map[string]int64{}
	for _, dp := range sum.DataPoints {
		scope, _ := dp.Attributes.Value(attribute.Key("scope"))
		byScope[scope.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"global": 1, "location": 2}, byScope)
}

func TestLedgerMetrics_MeterNil_UsaProveedorGlobal(t *testing.T) {
	m, err := telemetry.NewLedgerMetrics(nil)
	require.NoError(t, err)
	m.NegativeStock(context.Background(), "P", "", decimal.Zero)
	m.AuditRun(context.Background(), 0)
}

func TestSetup_SinEndpoint_NoOp(t *testing.T) {
	p, err := telemetry.Setup(context.Background(), "test", config.TelemetryConfig{}, logger.Nop())
	require.NoError(t, err)
	assert.NoError(t, p.Shutdown(context.Background()))
}
