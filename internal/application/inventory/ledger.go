package inventory

import (
	"context"
	"iter"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
	"github.com/shopspring/decimal"
)

const defaultHistoryPageSize = 100

// LedgerConfig parámetros del libro de stock.
type LedgerConfig struct {
	StorageTimeout  time.Duration
	HistoryPageSize int
}

// StockLedger libro de movimientos: inserción validada y proyección del stock actual.
// El stock siempre se calcula desde los movimientos; no existe un total en caché que pueda divergir.
type StockLedger struct {
	movements repository.MovementRepository
	anomalies AnomalyRecorder
	log       *logger.Logger
	cfg       LedgerConfig
}

// NewStockLedger construye el libro. anomalies y log pueden ser nil.
func NewStockLedger(movements repository.MovementRepository, anomalies AnomalyRecorder, log *logger.Logger, cfg LedgerConfig) *StockLedger {
	if anomalies == nil {
		anomalies = nopAnomalies{}
	}
	if log == nil {
		log = logger.Nop()
	}
	if cfg.HistoryPageSize <= 0 {
		cfg.HistoryPageSize = defaultHistoryPageSize
	}
	return &StockLedger{movements: movements, anomalies: anomalies, log: log.Component("stock_ledger"), cfg: cfg}
}

// Append valida y agrega movimientos usando el repositorio de la transacción en curso.
// Un movimiento inválido aborta toda la operación con ErrInvalidMovement: indica un error aguas arriba.
func (l *StockLedger) Append(ctx context.Context, movRepo repository.MovementRepository, movements ...*entity.Movement) error {
	if len(movements) == 0 {
		return nil
	}
	for _, m := range movements {
		if m != nil && m.Status == "" {
			m.Status = entity.MovementStatusDone
		}
		if err := domaininv.ValidateMovement(m); err != nil {
			l.log.Error().Err(err).Str("product_id", productOf(m)).Msg("movimiento rechazado por el libro")
			return err
		}
	}
	return movRepo.AppendBatch(ctx, movements)
}

func productOf(m *entity.Movement) string {
	if m == nil {
		return ""
	}
	return m.ProductID
}

// CurrentStock stock global de un producto. Nunca negativo: un saldo crudo negativo se recorta a cero
// y se registra como anomalía.
func (l *StockLedger) CurrentStock(ctx context.Context, productID string) (decimal.Decimal, error) {
	if productID == "" {
		return decimal.Zero, domain.NewValidationError("product_id", "requerido")
	}
	ctx, cancel := withStorageTimeout(ctx, l.cfg.StorageTimeout)
	defer cancel()
	return l.stockWith(ctx, l.movements, productID, "")
}

// CurrentStockAtLocation stock de un producto en una ubicación (acreditaciones menos débitos).
func (l *StockLedger) CurrentStockAtLocation(ctx context.Context, productID, locationID string) (decimal.Decimal, error) {
	if productID == "" {
		return decimal.Zero, domain.NewValidationError("product_id", "requerido")
	}
	if locationID == "" {
		return decimal.Zero, domain.NewValidationError("location_id", "requerido")
	}
	ctx, cancel := withStorageTimeout(ctx, l.cfg.StorageTimeout)
	defer cancel()
	return l.stockWith(ctx, l.movements, productID, locationID)
}

// stockWith proyecta con el repositorio indicado (pool o transacción). locationID vacío = global.
func (l *StockLedger) stockWith(ctx context.Context, movRepo repository.MovementRepository, productID, locationID string) (decimal.Decimal, error) {
	var (
		raw decimal.Decimal
		err error
	)
	if locationID == "" {
		raw, err = movRepo.SumByProduct(ctx, productID)
	} else {
		raw, err = movRepo.SumByProductAtLocation(ctx, productID, locationID)
	}
	if err != nil {
		return decimal.Zero, storageErr(err)
	}
	qty, anomaly := domaininv.Clamp(raw)
	if anomaly {
		l.log.Warn().
			Str("product_id", productID).
			Str("location_id", locationID).
			Str("raw_quantity", raw.String()).
			Msg("saldo negativo en el libro de stock; se reporta 0")
		l.anomalies.NegativeStock(ctx, productID, locationID, raw)
	}
	return qty, nil
}

// History secuencia perezosa de movimientos del producto, más reciente primero.
// Cada iteración vuelve a consultar el almacenamiento (reiniciable); las páginas se piden bajo demanda.
func (l *StockLedger) History(ctx context.Context, productID string, f repository.MovementFilter) iter.Seq2[*entity.Movement, error] {
	return func(yield func(*entity.Movement, error) bool) {
		if productID == "" {
			yield(nil, domain.NewValidationError("product_id", "requerido"))
			return
		}
		if f.Kind != "" && !f.Kind.IsValid() {
			yield(nil, domain.NewValidationError("kind", "tipo de movimiento desconocido"))
			return
		}
		var cursor *repository.MovementCursor
		for {
			page, err := l.page(ctx, productID, f, cursor)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, m := range page {
				if !yield(m, nil) {
					return
				}
			}
			if len(page) < l.cfg.HistoryPageSize {
				return
			}
			last := page[len(page)-1]
			cursor = &repository.MovementCursor{EffectiveTime: last.EffectiveTime, ID: last.ID}
		}
	}
}

func (l *StockLedger) page(ctx context.Context, productID string, f repository.MovementFilter, cursor *repository.MovementCursor) ([]*entity.Movement, error) {
	ctx, cancel := withStorageTimeout(ctx, l.cfg.StorageTimeout)
	defer cancel()
	page, err := l.movements.ListByProduct(ctx, productID, f, cursor, l.cfg.HistoryPageSize)
	return page, storageErr(err)
}

// MovementsOf movimientos generados por un documento.
func (l *StockLedger) MovementsOf(ctx context.Context, kind entity.DocumentKind, documentID string) ([]*entity.Movement, error) {
	ctx, cancel := withStorageTimeout(ctx, l.cfg.StorageTimeout)
	defer cancel()
	list, err := l.movements.ListByOrigin(ctx, kind, documentID)
	return list, storageErr(err)
}
