package repository

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// MovementFilter filtros del historial de movimientos de un producto.
type MovementFilter struct {
	From *time.Time
	To   *time.Time
	Kind entity.MovementKind // vacío = todos
}

// MovementCursor posición de paginación por clave (effective_time DESC, id DESC).
type MovementCursor struct {
	EffectiveTime time.Time
	ID            string
}

// NegativeBalance producto cuyo saldo crudo es negativo (anomalía del libro).
type NegativeBalance struct {
	ProductID  string
	LocationID string // vacío = saldo global
	Quantity   decimal.Decimal
}

// MovementRepository puerto del libro de movimientos (solo inserción, nunca update/delete).
type MovementRepository interface {
	// AppendBatch inserta movimientos ya validados; todos o ninguno.
	AppendBatch(ctx context.Context, movements []*entity.Movement) error
	// SumByProduct devuelve el saldo crudo (sin recortar) del producto.
	SumByProduct(ctx context.Context, productID string) (decimal.Decimal, error)
	// SumByProductAtLocation devuelve el saldo crudo del producto en una ubicación.
	SumByProductAtLocation(ctx context.Context, productID, locationID string) (decimal.Decimal, error)
	// ListByProduct página del historial, más reciente primero; after nil = primera página.
	ListByProduct(ctx context.Context, productID string, f MovementFilter, after *MovementCursor, limit int) ([]*entity.Movement, error)
	// ListByOrigin movimientos generados por un documento.
	ListByOrigin(ctx context.Context, kind entity.DocumentKind, documentID string) ([]*entity.Movement, error)
	// NegativeBalances saldos crudos negativos (globales y por ubicación).
	NegativeBalances(ctx context.Context) ([]NegativeBalance, error)
}
