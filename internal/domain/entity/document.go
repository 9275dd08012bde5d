package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentKind tipo de documento de inventario.
type DocumentKind string

const (
	DocumentKindReceipt    DocumentKind = "receipt"    // recepción de proveedor
	DocumentKindDelivery   DocumentKind = "delivery"   // despacho a cliente
	DocumentKindTransfer   DocumentKind = "transfer"   // traslado interno
	DocumentKindAdjustment DocumentKind = "adjustment" // ajuste por conteo físico
)

// IsValid indica si el tipo es conocido.
func (k DocumentKind) IsValid() bool {
	switch k {
	case DocumentKindReceipt, DocumentKindDelivery, DocumentKindTransfer, DocumentKindAdjustment:
		return true
	}
	return false
}

// DocumentStatus estado del flujo de trabajo.
type DocumentStatus string

const (
	StatusDraft     DocumentStatus = "draft"
	StatusWaiting   DocumentStatus = "waiting"
	StatusReady     DocumentStatus = "ready"
	StatusDone      DocumentStatus = "done"
	StatusCancelled DocumentStatus = "cancelled"
)

// IsEditable indica si el documento admite cambios de líneas o de estado.
func (s DocumentStatus) IsEditable() bool {
	return s == StatusDraft || s == StatusWaiting || s == StatusReady
}

// CanTransitionTo tabla de transiciones. done solo se alcanza vía Commit.
func (s DocumentStatus) CanTransitionTo(target DocumentStatus) bool {
	switch s {
	case StatusDraft:
		return target == StatusWaiting || target == StatusReady || target == StatusCancelled
	case StatusWaiting:
		return target == StatusReady || target == StatusCancelled
	case StatusReady:
		return target == StatusDone || target == StatusCancelled
	case StatusDone, StatusCancelled:
		return false // estados terminales
	}
	return false
}

// LineItem línea de un documento. Para ajustes, TheoreticalQuantity y ActualQuantity son obligatorios
// y la diferencia se deriva (Difference), nunca se almacena.
type LineItem struct {
	ID                  string
	ProductID           string
	PlannedQuantity     decimal.Decimal
	ActualQuantity      *decimal.Decimal // recibido / despachado / trasladado / contado
	TheoreticalQuantity *decimal.Decimal // solo ajustes: stock según sistema
	UnitPrice           *decimal.Decimal
}

// Difference actual − teórico (solo ajustes). Negativo representa merma.
func (l *LineItem) Difference() decimal.Decimal {
	if l.ActualQuantity == nil || l.TheoreticalQuantity == nil {
		return decimal.Zero
	}
	return l.ActualQuantity.Sub(*l.TheoreticalQuantity)
}

// HasActual indica si la línea ya tiene cantidad efectiva.
func (l *LineItem) HasActual() bool {
	return l.ActualQuantity != nil
}

// Document agregado de recepción, despacho, traslado o ajuste.
// Una vez done, líneas y cantidades quedan congeladas.
type Document struct {
	ID                  string
	Reference           string
	Kind                DocumentKind
	Status              DocumentStatus
	Supplier            string // recepciones
	Customer            string // despachos
	SourceLocation      string // despachos y traslados
	DestinationLocation string // recepciones y traslados
	Location            string // ajustes
	ScheduledTime       time.Time
	CompletedTime       *time.Time
	Lines               []LineItem
	CreatedBy           string
	Responsible         string
	Approver            string
	Notes               string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ReferencePrefix prefijo de referencia por tipo de documento.
func ReferencePrefix(kind DocumentKind) string {
	switch kind {
	case DocumentKindReceipt:
		return "REC"
	case DocumentKindDelivery:
		return "DEL"
	case DocumentKindTransfer:
		return "TRF"
	case DocumentKindAdjustment:
		return "ADJ"
	}
	return ""
}
