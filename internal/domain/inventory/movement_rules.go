// Package inventory contiene las reglas puras del libro de stock y del flujo de documentos
// (servicios de dominio sin dependencias de infraestructura).
package inventory

import (
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ValidateMovement verifica las invariantes de un movimiento antes de agregarlo al libro:
//   - cantidad > 0 (la dirección la da el tipo)
//   - origen obligatorio salvo en entradas, destino obligatorio salvo en salidas
//   - traslados internos: origen distinto de destino
//   - ajustes: exactamente una ubicación (destino = sobrante, origen = faltante)
func ValidateMovement(m *entity.Movement) error {
	if m == nil {
		return &domain.MovementError{Reason: "movimiento nulo"}
	}
	if m.ProductID == "" {
		return &domain.MovementError{Reason: "product_id requerido"}
	}
	if !m.Quantity.GreaterThan(decimal.Zero) {
		return &domain.MovementError{Reason: "la cantidad debe ser mayor que cero"}
	}
	if m.Origin.ID == "" || !m.Origin.Type.IsValid() {
		return &domain.MovementError{Reason: "documento de origen requerido"}
	}
	switch m.Kind {
	case entity.MovementKindInbound:
		if m.DestinationLocation == "" {
			return &domain.MovementError{Reason: "entrada sin ubicación destino"}
		}
	case entity.MovementKindOutbound:
		if m.SourceLocation == "" {
			return &domain.MovementError{Reason: "salida sin ubicación origen"}
		}
	case entity.MovementKindInternal:
		if m.SourceLocation == "" || m.DestinationLocation == "" {
			return &domain.MovementError{Reason: "traslado requiere origen y destino"}
		}
		if m.SourceLocation == m.DestinationLocation {
			return &domain.MovementError{Reason: "traslado con origen igual al destino"}
		}
	case entity.MovementKindAdjustment:
		hasSrc, hasDst := m.SourceLocation != "", m.DestinationLocation != ""
		if hasSrc == hasDst {
			return &domain.MovementError{Reason: "ajuste requiere exactamente una ubicación"}
		}
	default:
		return &domain.MovementError{Reason: "tipo de movimiento desconocido: " + string(m.Kind)}
	}
	if m.Status != "" && m.Status != entity.MovementStatusDone {
		return &domain.MovementError{Reason: "los movimientos se crean en estado done"}
	}
	return nil
}
