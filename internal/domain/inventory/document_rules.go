package inventory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// DocumentDraft datos de entrada para crear un documento.
type DocumentDraft struct {
	Kind                entity.DocumentKind
	Supplier            string
	Customer            string
	SourceLocation      string
	DestinationLocation string
	Location            string
	ScheduledTime       time.Time
	Lines               []entity.LineItem
	CreatedBy           string
	Responsible         string
	Notes               string
}

// NewDocument valida los campos propios de cada tipo y construye el documento en draft.
// La referencia la asigna el caso de uso dentro de la misma transacción de persistencia.
func NewDocument(d DocumentDraft, now time.Time) (*entity.Document, error) {
	if !d.Kind.IsValid() {
		return nil, domain.NewValidationError("kind", fmt.Sprintf("tipo desconocido %q", d.Kind))
	}
	if d.CreatedBy == "" {
		return nil, domain.NewValidationError("created_by", "requerido")
	}
	doc := &entity.Document{
		ID:                  uuid.New().String(),
		Kind:                d.Kind,
		Status:              entity.StatusDraft,
		Supplier:            d.Supplier,
		Customer:            d.Customer,
		SourceLocation:      d.SourceLocation,
		DestinationLocation: d.DestinationLocation,
		Location:            d.Location,
		ScheduledTime:       d.ScheduledTime,
		CreatedBy:           d.CreatedBy,
		Responsible:         d.Responsible,
		Notes:               d.Notes,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if doc.ScheduledTime.IsZero() {
		doc.ScheduledTime = now
	}
	if err := validateParties(doc); err != nil {
		return nil, err
	}
	lines, err := normalizeLines(doc.Kind, d.Lines, nil)
	if err != nil {
		return nil, err
	}
	doc.Lines = lines
	return doc, nil
}

func validateParties(doc *entity.Document) error {
	switch doc.Kind {
	case entity.DocumentKindReceipt:
		if doc.DestinationLocation == "" {
			return domain.NewValidationError("destination_location", "requerido en recepciones")
		}
		doc.SourceLocation, doc.Location, doc.Customer = "", "", ""
	case entity.DocumentKindDelivery:
		if doc.SourceLocation == "" {
			return domain.NewValidationError("source_location", "requerido en despachos")
		}
		doc.DestinationLocation, doc.Location, doc.Supplier = "", "", ""
	case entity.DocumentKindTransfer:
		if doc.SourceLocation == "" || doc.DestinationLocation == "" {
			return domain.ErrInvalidTransfer
		}
		if doc.SourceLocation == doc.DestinationLocation {
			return domain.ErrInvalidTransfer
		}
		doc.Location, doc.Supplier, doc.Customer = "", "", ""
	case entity.DocumentKindAdjustment:
		if doc.Location == "" {
			return domain.NewValidationError("location", "requerido en ajustes")
		}
		doc.SourceLocation, doc.DestinationLocation, doc.Supplier, doc.Customer = "", "", "", ""
	}
	return nil
}

// Precisión de cantidades y precios: la misma que las columnas NUMERIC(18,4) del almacenamiento.
const (
	QuantityScale         = 4
	QuantityIntegerDigits = 14
)

var maxQuantity = decimal.New(1, QuantityIntegerDigits)

// checkPrecision rechaza valores que el almacenamiento redondearía o no podría representar.
func checkPrecision(field string, d *decimal.Decimal) error {
	if d == nil {
		return nil
	}
	if !d.Round(QuantityScale).Equal(*d) {
		return domain.NewValidationError(field, fmt.Sprintf("máximo %d decimales", QuantityScale))
	}
	if d.Abs().GreaterThanOrEqual(maxQuantity) {
		return domain.NewValidationError(field, fmt.Sprintf("máximo %d dígitos enteros", QuantityIntegerDigits))
	}
	return nil
}

// normalizeLines valida las líneas y devuelve una copia. Solo conserva los IDs que ya pertenecen
// al documento (known); cualquier otro ID se reemplaza por uno nuevo. Un ID repetido es un error.
func normalizeLines(kind entity.DocumentKind, in []entity.LineItem, known map[string]struct{}) ([]entity.LineItem, error) {
	if len(in) == 0 {
		return nil, domain.NewValidationError("lines", "se requiere al menos una línea")
	}
	seen := make(map[string]struct{}, len(in))
	ids := make(map[string]struct{}, len(in))
	out := make([]entity.LineItem, 0, len(in))
	for i, l := range in {
		field := fmt.Sprintf("lines[%d]", i)
		if l.ProductID == "" {
			return nil, domain.NewValidationError(field+".product_id", "requerido")
		}
		if isNegative(l.ActualQuantity) {
			return nil, domain.NewValidationError(field+".actual_quantity", "no puede ser negativa")
		}
		if isNegative(l.UnitPrice) {
			return nil, domain.NewValidationError(field+".unit_price", "no puede ser negativo")
		}
		for _, q := range []struct {
			name  string
			value *decimal.Decimal
		}{
			{"planned_quantity", &l.PlannedQuantity},
			{"actual_quantity", l.ActualQuantity},
			{"theoretical_quantity", l.TheoreticalQuantity},
			{"unit_price", l.UnitPrice},
		} {
			if err := checkPrecision(field+"."+q.name, q.value); err != nil {
				return nil, err
			}
		}
		if kind == entity.DocumentKindAdjustment {
			if l.TheoreticalQuantity == nil || l.ActualQuantity == nil {
				return nil, domain.NewValidationError(field, "los ajustes requieren cantidad teórica y real")
			}
			if l.TheoreticalQuantity.IsNegative() {
				return nil, domain.NewValidationError(field+".theoretical_quantity", "no puede ser negativa")
			}
			if _, dup := seen[l.ProductID]; dup {
				return nil, domain.NewValidationError(field+".product_id", "producto repetido en el ajuste")
			}
			seen[l.ProductID] = struct{}{}
			l.PlannedQuantity = *l.TheoreticalQuantity
		} else {
			if l.TheoreticalQuantity != nil {
				return nil, domain.NewValidationError(field+".theoretical_quantity", "solo aplica a ajustes")
			}
			if !l.PlannedQuantity.GreaterThan(decimal.Zero) {
				return nil, domain.NewValidationError(field+".planned_quantity", "debe ser mayor que cero")
			}
		}
		if _, ok := known[l.ID]; !ok {
			l.ID = uuid.New().String()
		}
		if _, dup := ids[l.ID]; dup {
			return nil, domain.NewValidationError(field+".id", "línea repetida: "+l.ID)
		}
		ids[l.ID] = struct{}{}
		out = append(out, l)
	}
	return out, nil
}

func isNegative(d *decimal.Decimal) bool {
	return d != nil && d.IsNegative()
}

// ReplaceLines reemplaza las líneas de un documento editable.
func ReplaceLines(doc *entity.Document, lines []entity.LineItem, now time.Time) error {
	if !doc.Status.IsEditable() {
		return domain.ErrDocumentLocked
	}
	known := make(map[string]struct{}, len(doc.Lines))
	for _, l := range doc.Lines {
		known[l.ID] = struct{}{}
	}
	normalized, err := normalizeLines(doc.Kind, lines, known)
	if err != nil {
		return err
	}
	doc.Lines = normalized
	doc.UpdatedAt = now
	return nil
}

// QuantityUpdate nueva cantidad efectiva (y teórica, en ajustes) para una línea.
type QuantityUpdate struct {
	LineID              string
	ActualQuantity      decimal.Decimal
	TheoreticalQuantity *decimal.Decimal
}

// UpdateQuantities registra cantidades efectivas. En ajustes la diferencia se recalcula sola
// porque se deriva de teórico y real.
func UpdateQuantities(doc *entity.Document, updates []QuantityUpdate, now time.Time) error {
	if !doc.Status.IsEditable() {
		return domain.ErrDocumentLocked
	}
	byID := make(map[string]int, len(doc.Lines))
	for i := range doc.Lines {
		byID[doc.Lines[i].ID] = i
	}
	lines := make([]entity.LineItem, len(doc.Lines))
	copy(lines, doc.Lines)
	for _, u := range updates {
		idx, ok := byID[u.LineID]
		if !ok {
			return domain.NewValidationError("line_id", "línea inexistente: "+u.LineID)
		}
		actual := u.ActualQuantity
		lines[idx].ActualQuantity = &actual
		if u.TheoreticalQuantity != nil {
			theoretical := *u.TheoreticalQuantity
			lines[idx].TheoreticalQuantity = &theoretical
		}
	}
	return ReplaceLines(doc, lines, now)
}

// Transition aplica un cambio de estado que no genera movimientos (waiting, ready, cancelled).
// done solo se alcanza con Commit.
func Transition(doc *entity.Document, target entity.DocumentStatus, now time.Time) error {
	if target == entity.StatusDone {
		return domain.ErrInvalidTransition
	}
	if target == entity.StatusCancelled {
		if !doc.Status.CanTransitionTo(entity.StatusCancelled) {
			return domain.ErrInvalidTransition
		}
		doc.Status = target
		doc.UpdatedAt = now
		return nil
	}
	if !doc.Status.IsEditable() {
		return domain.ErrDocumentLocked
	}
	if !doc.Status.CanTransitionTo(target) {
		return domain.ErrInvalidTransition
	}
	if target == entity.StatusReady {
		if err := ReadyGuard(doc); err != nil {
			return err
		}
	}
	doc.Status = target
	doc.UpdatedAt = now
	return nil
}

// ReadyGuard todas las líneas deben tener cantidad efectiva registrada.
func ReadyGuard(doc *entity.Document) error {
	for _, l := range doc.Lines {
		if !l.HasActual() {
			return fmt.Errorf("%w: producto %s", domain.ErrMissingQuantities, l.ProductID)
		}
	}
	return nil
}

// CommitPrecondition verifica que el documento pueda validarse. Un documento ya done
// indica un doble commit y se reporta como ErrAlreadyProcessed.
func CommitPrecondition(doc *entity.Document) error {
	switch doc.Status {
	case entity.StatusDone:
		return domain.ErrAlreadyProcessed
	case entity.StatusReady:
		return ReadyGuard(doc)
	}
	return fmt.Errorf("%w: %s → done", domain.ErrInvalidTransition, doc.Status)
}
