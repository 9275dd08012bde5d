package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockResponse stock actual de un producto, global o en una ubicación.
type StockResponse struct {
	ProductID  string          `json:"product_id"`
	LocationID string          `json:"location_id,omitempty"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// HistoryQuery filtros de GET /api/stock/:product_id/history.
type HistoryQuery struct {
	Kind  string     `query:"kind" validate:"omitempty,oneof=inbound outbound internal adjustment"`
	From  *time.Time `query:"-"`
	To    *time.Time `query:"-"`
	Limit int        `query:"limit" validate:"min=0,max=1000"`
}

// HistoryResponse movimientos del más reciente al más antiguo.
type HistoryResponse struct {
	ProductID string             `json:"product_id"`
	Movements []MovementResponse `json:"movements"`
}

// AvailabilityResponse resultado de la guarda de disponibilidad.
type AvailabilityResponse struct {
	ProductID  string          `json:"product_id"`
	LocationID string          `json:"location_id,omitempty"`
	Required   decimal.Decimal `json:"required"`
	Available  decimal.Decimal `json:"available"`
	Shortage   decimal.Decimal `json:"shortage"`
	Covered    bool            `json:"covered"`
}
