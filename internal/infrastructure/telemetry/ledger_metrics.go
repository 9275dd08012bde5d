// Package telemetry métricas y trazas del libro de stock con OpenTelemetry.
package telemetry

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/jhoicas/inventario-ledger/ledger"

var (
	AttrProductID  = attribute.Key("product_id")
	AttrLocationID = attribute.Key("location_id")
	AttrScope      = attribute.Key("scope")
)

var _ inventory.AnomalyRecorder = (*LedgerMetrics)(nil)

// LedgerMetrics contador de saldos negativos detectados al proyectar o auditar el libro.
type LedgerMetrics struct {
	negativeStock metric.Int64Counter
	auditRuns     metric.Int64Counter
}

// NewLedgerMetrics registra los instrumentos. Con meter nil usa el MeterProvider global.
func NewLedgerMetrics(meter metric.Meter) (*LedgerMetrics, error) {
	if meter == nil {
		meter = otel.Meter(meterName)
	}
	negative, err := meter.Int64Counter(
		"inventory_negative_stock_total",
		metric.WithDescription("Saldos de stock negativos recortados a cero"),
		metric.WithUnit("{balance}"),
	)
	if err != nil {
		return nil, fmt.Errorf("crear contador de saldos negativos: %w", err)
	}
	runs, err := meter.Int64Counter(
		"inventory_ledger_audit_runs_total",
		metric.WithDescription("Ejecuciones de la auditoría del libro"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("crear contador de auditorías: %w", err)
	}
	return &LedgerMetrics{negativeStock: negative, auditRuns: runs}, nil
}

// NegativeStock cuenta un saldo negativo. location vacío = saldo global del producto.
func (m *LedgerMetrics) NegativeStock(ctx context.Context, productID, locationID string, _ decimal.Decimal) {
	scope := "location"
	if locationID == "" {
		scope = "global"
	}
	m.negativeStock.Add(ctx, 1, metric.WithAttributes(
		AttrProductID.String(productID),
		AttrLocationID.String(locationID),
		AttrScope.String(scope),
	))
}

// AuditRun cuenta una ejecución de la auditoría y cuántas anomalías encontró.
func (m *LedgerMetrics) AuditRun(ctx context.Context, anomalies int) {
	m.auditRuns.Add(ctx, 1, metric.WithAttributes(attribute.Bool("clean", anomalies == 0)))
}
