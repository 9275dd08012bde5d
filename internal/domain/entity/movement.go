package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementKind tipo de movimiento del libro de stock. La dirección la da el tipo, nunca el signo.
type MovementKind string

const (
	MovementKindInbound    MovementKind = "inbound"    // entrada (recepción)
	MovementKindOutbound   MovementKind = "outbound"   // salida (despacho)
	MovementKindInternal   MovementKind = "internal"   // traslado entre ubicaciones
	MovementKindAdjustment MovementKind = "adjustment" // ajuste de inventario
)

// IsValid indica si el tipo es conocido.
func (k MovementKind) IsValid() bool {
	switch k {
	case MovementKindInbound, MovementKindOutbound, MovementKindInternal, MovementKindAdjustment:
		return true
	}
	return false
}

// MovementStatusDone único estado de un movimiento: se crean ya validados.
const MovementStatusDone = "done"

// OriginDocument documento que generó el movimiento.
type OriginDocument struct {
	Type DocumentKind
	ID   string
}

// Movement registro inmutable del libro de stock. Nunca se actualiza ni se borra;
// las correcciones son movimientos nuevos.
type Movement struct {
	ID                  string
	ProductID           string
	SourceLocation      string // vacío en entradas
	DestinationLocation string // vacío en salidas
	Quantity            decimal.Decimal
	Kind                MovementKind
	Status              string
	EffectiveTime       time.Time
	Origin              OriginDocument
	CreatedBy           string
	CreatedAt           time.Time
}

// SignedDelta variación del stock global que aporta el movimiento.
// Los traslados internos netean a cero.
func (m *Movement) SignedDelta() decimal.Decimal {
	switch m.Kind {
	case MovementKindInbound:
		return m.Quantity
	case MovementKindOutbound:
		return m.Quantity.Neg()
	case MovementKindAdjustment:
		if m.DestinationLocation != "" {
			return m.Quantity
		}
		return m.Quantity.Neg()
	}
	return decimal.Zero
}

// DeltaAt variación del stock en una ubicación: suma si la acredita, resta si la debita.
func (m *Movement) DeltaAt(locationID string) decimal.Decimal {
	delta := decimal.Zero
	if m.DestinationLocation == locationID {
		delta = delta.Add(m.Quantity)
	}
	if m.SourceLocation == locationID {
		delta = delta.Sub(m.Quantity)
	}
	return delta
}
