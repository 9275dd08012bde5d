package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// Repos repositorios atados a una misma transacción.
type Repos struct {
	Documents repository.DocumentRepository
	Movements repository.MovementRepository
	Sequences repository.SequenceRepository
	Locker    repository.StockLocker
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback; si no, Commit. Garantiza atomicidad para el flujo de documentos.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos Repos) error) error
}

// AnomalyRecorder registra saldos negativos detectados al proyectar el libro.
type AnomalyRecorder interface {
	NegativeStock(ctx context.Context, productID, locationID string, raw decimal.Decimal)
}

// DocumentDoneEvent señal emitida tras un commit exitoso.
type DocumentDoneEvent struct {
	DocumentID  string              `json:"document_id"`
	Reference   string              `json:"reference"`
	Kind        entity.DocumentKind `json:"kind"`
	Movements   int                 `json:"movements"`
	CommittedBy string              `json:"committed_by"`
	CompletedAt time.Time           `json:"completed_at"`
}

// Notifier despacho de notificaciones (fire-and-forget). Un error nunca revierte el commit.
type Notifier interface {
	DocumentDone(ctx context.Context, event DocumentDoneEvent) error
}

// NopNotifier no notifica.
type NopNotifier struct{}

func (NopNotifier) DocumentDone(context.Context, DocumentDoneEvent) error { return nil }

type nopAnomalies struct{}

func (nopAnomalies) NegativeStock(context.Context, string, string, decimal.Decimal) {}
