package dto

import (
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/inventario-ledger/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// LineItemRequest línea de un documento. En ajustes theoretical_quantity y actual_quantity son obligatorios.
type LineItemRequest struct {
	ID                  string           `json:"id,omitempty"`
	ProductID           string           `json:"product_id" validate:"required,max=100"`
	PlannedQuantity     decimal.Decimal  `json:"planned_quantity"`
	ActualQuantity      *decimal.Decimal `json:"actual_quantity,omitempty"`
	TheoreticalQuantity *decimal.Decimal `json:"theoretical_quantity,omitempty"`
	UnitPrice           *decimal.Decimal `json:"unit_price,omitempty"`
}

// CreateDocumentRequest body para POST /api/documents.
type CreateDocumentRequest struct {
	Kind                string            `json:"kind" validate:"required,oneof=receipt delivery transfer adjustment"`
	Supplier            string            `json:"supplier,omitempty" validate:"max=200"`
	Customer            string            `json:"customer,omitempty" validate:"max=200"`
	SourceLocation      string            `json:"source_location,omitempty" validate:"max=100"`
	DestinationLocation string            `json:"destination_location,omitempty" validate:"max=100"`
	Location            string            `json:"location,omitempty" validate:"max=100"`
	ScheduledTime       *time.Time        `json:"scheduled_time,omitempty"`
	Responsible         string            `json:"responsible,omitempty"`
	Notes               string            `json:"notes,omitempty" validate:"max=2000"`
	Lines               []LineItemRequest `json:"lines" validate:"dive"`
}

// UpdateLinesRequest body para PUT /api/documents/:id/lines.
type UpdateLinesRequest struct {
	Lines []LineItemRequest `json:"lines" validate:"dive"`
}

// QuantityUpdateRequest cantidad efectiva (y teórica en ajustes) de una línea existente.
type QuantityUpdateRequest struct {
	LineID              string           `json:"line_id" validate:"required"`
	ActualQuantity      decimal.Decimal  `json:"actual_quantity"`
	TheoreticalQuantity *decimal.Decimal `json:"theoretical_quantity,omitempty"`
}

// UpdateQuantitiesRequest body para PUT /api/documents/:id/quantities.
type UpdateQuantitiesRequest struct {
	Updates []QuantityUpdateRequest `json:"updates" validate:"required,min=1,dive"`
}

// ListDocumentsQuery filtros de GET /api/documents.
type ListDocumentsQuery struct {
	PageRequest
	Kind   string `query:"kind" validate:"omitempty,oneof=receipt delivery transfer adjustment"`
	Status string `query:"status" validate:"omitempty,oneof=draft waiting ready done cancelled"`
}

// LineItemResponse línea en respuestas. difference solo se informa en ajustes.
type LineItemResponse struct {
	ID                  string           `json:"id"`
	ProductID           string           `json:"product_id"`
	PlannedQuantity     decimal.Decimal  `json:"planned_quantity"`
	ActualQuantity      *decimal.Decimal `json:"actual_quantity,omitempty"`
	TheoreticalQuantity *decimal.Decimal `json:"theoretical_quantity,omitempty"`
	Difference          *decimal.Decimal `json:"difference,omitempty"`
	UnitPrice           *decimal.Decimal `json:"unit_price,omitempty"`
}

// DocumentResponse documento con sus líneas.
type DocumentResponse struct {
	ID                  string             `json:"id"`
	Reference           string             `json:"reference"`
	Kind                string             `json:"kind"`
	Status              string             `json:"status"`
	Supplier            string             `json:"supplier,omitempty"`
	Customer            string             `json:"customer,omitempty"`
	SourceLocation      string             `json:"source_location,omitempty"`
	DestinationLocation string             `json:"destination_location,omitempty"`
	Location            string             `json:"location,omitempty"`
	ScheduledTime       time.Time          `json:"scheduled_time"`
	CompletedTime       *time.Time         `json:"completed_time,omitempty"`
	CreatedBy           string             `json:"created_by"`
	Responsible         string             `json:"responsible,omitempty"`
	Approver            string             `json:"approver,omitempty"`
	Notes               string             `json:"notes,omitempty"`
	Lines               []LineItemResponse `json:"lines"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

// MovementResponse movimiento del libro.
type MovementResponse struct {
	ID                  string          `json:"id"`
	ProductID           string          `json:"product_id"`
	SourceLocation      string          `json:"source_location,omitempty"`
	DestinationLocation string          `json:"destination_location,omitempty"`
	Quantity            decimal.Decimal `json:"quantity"`
	Kind                string          `json:"kind"`
	EffectiveTime       time.Time       `json:"effective_time"`
	OriginType          string          `json:"origin_type"`
	OriginID            string          `json:"origin_id"`
	CreatedBy           string          `json:"created_by"`
}

// CommitResponse resultado de POST /api/documents/:id/commit.
type CommitResponse struct {
	Document   DocumentResponse   `json:"document"`
	Movements  []MovementResponse `json:"movements"`
	Shortfalls []domain.Shortage  `json:"shortfalls,omitempty"`
}

// ToDraft convierte el body en el borrador de dominio. ScheduledTime vacío = ahora.
func (r CreateDocumentRequest) ToDraft() domaininv.DocumentDraft {
	d := domaininv.DocumentDraft{
		Kind:                entity.DocumentKind(r.Kind),
		Supplier:            r.Supplier,
		Customer:            r.Customer,
		SourceLocation:      r.SourceLocation,
		DestinationLocation: r.DestinationLocation,
		Location:            r.Location,
		Responsible:         r.Responsible,
		Notes:               r.Notes,
		Lines:               ToLineItems(r.Lines),
	}
	if r.ScheduledTime != nil {
		d.ScheduledTime = r.ScheduledTime.UTC()
	}
	return d
}

// ToLineItems convierte líneas del body en líneas de dominio.
func ToLineItems(in []LineItemRequest) []entity.LineItem {
	out := make([]entity.LineItem, 0, len(in))
	for _, l := range in {
		out = append(out, entity.LineItem{
			ID:                  l.ID,
			ProductID:           l.ProductID,
			PlannedQuantity:     l.PlannedQuantity,
			ActualQuantity:      l.ActualQuantity,
			TheoreticalQuantity: l.TheoreticalQuantity,
			UnitPrice:           l.UnitPrice,
		})
	}
	return out
}

// ToQuantityUpdates convierte el body en actualizaciones de dominio.
func (r UpdateQuantitiesRequest) ToQuantityUpdates() []domaininv.QuantityUpdate {
	out := make([]domaininv.QuantityUpdate, 0, len(r.Updates))
	for _, u := range r.Updates {
		out = append(out, domaininv.QuantityUpdate{
			LineID:              u.LineID,
			ActualQuantity:      u.ActualQuantity,
			TheoreticalQuantity: u.TheoreticalQuantity,
		})
	}
	return out
}

// FromDocument arma la respuesta de un documento.
func FromDocument(doc *entity.Document) DocumentResponse {
	out := DocumentResponse{
		ID:                  doc.ID,
		Reference:           doc.Reference,
		Kind:                string(doc.Kind),
		Status:              string(doc.Status),
		Supplier:            doc.Supplier,
		Customer:            doc.Customer,
		SourceLocation:      doc.SourceLocation,
		DestinationLocation: doc.DestinationLocation,
		Location:            doc.Location,
		ScheduledTime:       doc.ScheduledTime,
		CompletedTime:       doc.CompletedTime,
		CreatedBy:           doc.CreatedBy,
		Responsible:         doc.Responsible,
		Approver:            doc.Approver,
		Notes:               doc.Notes,
		Lines:               make([]LineItemResponse, 0, len(doc.Lines)),
		CreatedAt:           doc.CreatedAt,
		UpdatedAt:           doc.UpdatedAt,
	}
	for i := range doc.Lines {
		l := &doc.Lines[i]
		line := LineItemResponse{
			ID:                  l.ID,
			ProductID:           l.ProductID,
			PlannedQuantity:     l.PlannedQuantity,
			ActualQuantity:      l.ActualQuantity,
			TheoreticalQuantity: l.TheoreticalQuantity,
			UnitPrice:           l.UnitPrice,
		}
		if doc.Kind == entity.DocumentKindAdjustment && l.ActualQuantity != nil && l.TheoreticalQuantity != nil {
			diff := l.Difference()
			line.Difference = &diff
		}
		out.Lines = append(out.Lines, line)
	}
	return out
}

// FromMovements arma la respuesta de una lista de movimientos.
func FromMovements(movs []*entity.Movement) []MovementResponse {
	out := make([]MovementResponse, 0, len(movs))
	for _, m := range movs {
		out = append(out, MovementResponse{
			ID:                  m.ID,
			ProductID:           m.ProductID,
			SourceLocation:      m.SourceLocation,
			DestinationLocation: m.DestinationLocation,
			Quantity:            m.Quantity,
			Kind:                string(m.Kind),
			EffectiveTime:       m.EffectiveTime,
			OriginType:          string(m.Origin.Type),
			OriginID:            m.Origin.ID,
			CreatedBy:           m.CreatedBy,
		})
	}
	return out
}
