package inventory

import (
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// FoldStock stock global de un producto:
// Σ entradas − Σ salidas + Σ ajustes con signo. Los traslados internos netean a cero.
// Devuelve el valor crudo (puede ser negativo si el libro es inconsistente).
func FoldStock(movements []*entity.Movement) decimal.Decimal {
	total := decimal.Zero
	for _, m := range movements {
		if m.Status != "" && m.Status != entity.MovementStatusDone {
			continue
		}
		total = total.Add(m.SignedDelta())
	}
	return total
}

// FoldStockAt stock de un producto en una ubicación: acreditaciones menos débitos.
func FoldStockAt(movements []*entity.Movement, locationID string) decimal.Decimal {
	total := decimal.Zero
	for _, m := range movements {
		if m.Status != "" && m.Status != entity.MovementStatusDone {
			continue
		}
		total = total.Add(m.DeltaAt(locationID))
	}
	return total
}

// Clamp lleva a cero un saldo negativo. El segundo valor indica si hubo anomalía;
// quien llama debe registrarla, nunca descartarla.
func Clamp(raw decimal.Decimal) (decimal.Decimal, bool) {
	if raw.IsNegative() {
		return decimal.Zero, true
	}
	return raw, false
}
