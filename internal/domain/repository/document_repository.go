package repository

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// DocumentFilter filtros de listado de documentos.
type DocumentFilter struct {
	Kind   entity.DocumentKind
	Status entity.DocumentStatus
}

// DocumentRepository puerto de persistencia de documentos (DIP).
type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) error
	GetByID(ctx context.Context, id string) (*entity.Document, error)
	// GetForUpdate obtiene el documento y bloquea la fila hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Document, error)
	// Update persiste cabecera y líneas solo si el estado almacenado sigue siendo expectedStatus.
	// Devuelve domain.ErrAlreadyProcessed si otro proceso cambió el estado.
	Update(ctx context.Context, doc *entity.Document, expectedStatus entity.DocumentStatus) error
	List(ctx context.Context, f DocumentFilter, limit, offset int) ([]*entity.Document, error)
}

// SequenceRepository contador atómico por tipo de documento.
type SequenceRepository interface {
	// Next incrementa y devuelve el consecutivo del tipo en una sola operación.
	Next(ctx context.Context, kind entity.DocumentKind) (int64, error)
}

// StockLocker serializa validaciones de disponibilidad concurrentes sobre los mismos productos.
type StockLocker interface {
	// LockProducts bloquea los productos hasta el fin de la transacción (orden dado por quien llama).
	LockProducts(ctx context.Context, productIDs []string) error
}
