package inventory

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// EmitMovements construye un movimiento por cada línea con cantidad efectiva distinta de cero:
//   - recepción: entrada hacia la ubicación destino
//   - despacho: salida desde la ubicación origen
//   - traslado: interno de origen a destino
//   - ajuste: sobrante hacia la ubicación, faltante desde la ubicación; diferencia cero no emite
func EmitMovements(doc *entity.Document, createdBy string, now time.Time) []*entity.Movement {
	out := make([]*entity.Movement, 0, len(doc.Lines))
	for i := range doc.Lines {
		l := &doc.Lines[i]
		m := &entity.Movement{
			ID:            uuid.New().String(),
			ProductID:     l.ProductID,
			Status:        entity.MovementStatusDone,
			EffectiveTime: now,
			Origin:        entity.OriginDocument{Type: doc.Kind, ID: doc.ID},
			CreatedBy:     createdBy,
			CreatedAt:     now,
		}
		switch doc.Kind {
		case entity.DocumentKindReceipt:
			m.Kind = entity.MovementKindInbound
			m.DestinationLocation = doc.DestinationLocation
			m.Quantity = actualOf(l)
		case entity.DocumentKindDelivery:
			m.Kind = entity.MovementKindOutbound
			m.SourceLocation = doc.SourceLocation
			m.Quantity = actualOf(l)
		case entity.DocumentKindTransfer:
			m.Kind = entity.MovementKindInternal
			m.SourceLocation = doc.SourceLocation
			m.DestinationLocation = doc.DestinationLocation
			m.Quantity = actualOf(l)
		case entity.DocumentKindAdjustment:
			m.Kind = entity.MovementKindAdjustment
			diff := l.Difference()
			if diff.IsPositive() {
				m.DestinationLocation = doc.Location
			} else {
				m.SourceLocation = doc.Location
			}
			m.Quantity = diff.Abs()
		}
		if m.Quantity.IsZero() {
			continue
		}
		out = append(out, m)
	}
	return out
}

func actualOf(l *entity.LineItem) decimal.Decimal {
	if l.ActualQuantity == nil {
		return decimal.Zero
	}
	return *l.ActualQuantity
}

// Requirement cantidad que debe estar disponible antes de validar un documento de salida.
type Requirement struct {
	ProductID  string
	LocationID string
	Quantity   decimal.Decimal
}

// RequiredStock requerimientos agregados por producto y ubicación.
// Recepciones y ajustes con sobrante no requieren stock.
func RequiredStock(doc *entity.Document) []Requirement {
	var location string
	switch doc.Kind {
	case entity.DocumentKindDelivery, entity.DocumentKindTransfer:
		location = doc.SourceLocation
	case entity.DocumentKindAdjustment:
		location = doc.Location
	default:
		return nil
	}
	totals := make(map[string]decimal.Decimal)
	for i := range doc.Lines {
		l := &doc.Lines[i]
		var qty decimal.Decimal
		if doc.Kind == entity.DocumentKindAdjustment {
			diff := l.Difference()
			if !diff.IsNegative() {
				continue
			}
			qty = diff.Abs()
		} else {
			qty = actualOf(l)
		}
		if qty.IsZero() {
			continue
		}
		totals[l.ProductID] = totals[l.ProductID].Add(qty)
	}
	out := make([]Requirement, 0, len(totals))
	for productID, qty := range totals {
		out = append(out, Requirement{ProductID: productID, LocationID: location, Quantity: qty})
	}
	// Orden estable: también define el orden de bloqueo por producto en el commit.
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

// IsOutboundAffecting indica si el tipo de documento puede reducir stock en alguna ubicación.
func IsOutboundAffecting(kind entity.DocumentKind) bool {
	return kind == entity.DocumentKindDelivery || kind == entity.DocumentKindTransfer || kind == entity.DocumentKindAdjustment
}
