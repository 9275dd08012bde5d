package maintenance

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
	"github.com/shopspring/decimal"
)

// AuditRecorder destino de las anomalías encontradas por la auditoría.
type AuditRecorder interface {
	NegativeStock(ctx context.Context, productID, locationID string, raw decimal.Decimal)
	AuditRun(ctx context.Context, anomalies int)
}

// LedgerAuditTask busca productos cuyo saldo crudo es negativo. La proyección los recorta a cero
// al leer; la auditoría los deja visibles aunque nadie consulte ese producto.
type LedgerAuditTask struct {
	movements repository.MovementRepository
	recorder  AuditRecorder
	log       *logger.Logger
}

// NewLedgerAuditTask recorder puede ser nil.
func NewLedgerAuditTask(movements repository.MovementRepository, recorder AuditRecorder, log *logger.Logger) *LedgerAuditTask {
	if log == nil {
		log = logger.Nop()
	}
	return &LedgerAuditTask{movements: movements, recorder: recorder, log: log.Component("ledger_audit")}
}

func (t *LedgerAuditTask) Name() string { return "ledger-audit" }

func (t *LedgerAuditTask) Run(ctx context.Context) error {
	balances, err := t.movements.NegativeBalances(ctx)
	if err != nil {
		return fmt.Errorf("auditar libro: %w", err)
	}
	for _, b := range balances {
		t.log.Warn().
			Str("product_id", b.ProductID).
			Str("location_id", b.LocationID).
			Str("raw", b.Quantity.String()).
			Msg("saldo negativo en el libro")
		if t.recorder != nil {
			t.recorder.NegativeStock(ctx, b.ProductID, b.LocationID, b.Quantity)
		}
	}
	if t.recorder != nil {
		t.recorder.AuditRun(ctx, len(balances))
	}
	if len(balances) == 0 {
		t.log.Debug().Msg("libro sin saldos negativos")
	}
	return nil
}

// ExpiringStore almacén de claves con vencimiento que necesita purga explícita.
type ExpiringStore interface {
	PurgeExpired(ctx context.Context) (int, error)
}

// IdempotencyPurgeTask libera memoria de claves de idempotencia vencidas.
type IdempotencyPurgeTask struct {
	store ExpiringStore
	log   *logger.Logger
}

func NewIdempotencyPurgeTask(store ExpiringStore, log *logger.Logger) *IdempotencyPurgeTask {
	if log == nil {
		log = logger.Nop()
	}
	return &IdempotencyPurgeTask{store: store, log: log.Component("idempotency_purge")}
}

func (t *IdempotencyPurgeTask) Name() string { return "idempotency-purge" }

func (t *IdempotencyPurgeTask) Run(ctx context.Context) error {
	n, err := t.store.PurgeExpired(ctx)
	if err != nil {
		return fmt.Errorf("purgar claves de idempotencia: %w", err)
	}
	if n > 0 {
		t.log.Info().Int("purged", n).Msg("claves de idempotencia vencidas eliminadas")
	}
	return nil
}
