package inventory

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// Availability resultado de una verificación de disponibilidad.
type Availability struct {
	Covered   bool            `json:"covered"`
	Available decimal.Decimal `json:"available"`
	Shortage  decimal.Decimal `json:"shortage"`
}

// AvailabilityGuard verifica antes del commit que el stock cubra lo requerido.
// Devuelve el faltante estructurado en vez de fallar; la política la decide el flujo.
type AvailabilityGuard struct {
	ledger *StockLedger
}

// NewAvailabilityGuard construye la guarda sobre el libro.
func NewAvailabilityGuard(ledger *StockLedger) *AvailabilityGuard {
	return &AvailabilityGuard{ledger: ledger}
}

// Check consulta el stock global (locationID vacío) o el de la ubicación y calcula el faltante.
func (g *AvailabilityGuard) Check(ctx context.Context, productID string, required decimal.Decimal, locationID string) (Availability, error) {
	ctx, cancel := withStorageTimeout(ctx, g.ledger.cfg.StorageTimeout)
	defer cancel()
	return g.CheckWith(ctx, g.ledger.movements, productID, required, locationID)
}

// CheckWith igual que Check pero leyendo con el repositorio de la transacción del commit.
func (g *AvailabilityGuard) CheckWith(ctx context.Context, movRepo repository.MovementRepository, productID string, required decimal.Decimal, locationID string) (Availability, error) {
	if productID == "" {
		return Availability{}, domain.NewValidationError("product_id", "requerido")
	}
	if required.IsNegative() {
		return Availability{}, domain.NewValidationError("required", "no puede ser negativa")
	}
	available, err := g.ledger.stockWith(ctx, movRepo, productID, locationID)
	if err != nil {
		return Availability{}, err
	}
	out := Availability{Covered: true, Available: available, Shortage: decimal.Zero}
	if available.LessThan(required) {
		out.Covered = false
		out.Shortage = required.Sub(available)
	}
	return out, nil
}
