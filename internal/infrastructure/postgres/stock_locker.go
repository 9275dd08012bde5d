package postgres

import (
	"context"
	"slices"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

var (
	_ repository.StockLocker        = (*StockLocker)(nil)
	_ repository.SequenceRepository = (*SequenceRepo)(nil)
)

// StockLocker bloqueo por producto con pg_advisory_xact_lock. Se libera solo al terminar la transacción,
// así dos commits que consumen el mismo producto no pueden leer el mismo saldo.
type StockLocker struct {
	q Querier
}

// NewStockLocker construye el locker. Solo tiene efecto dentro de una tx.
func NewStockLocker(q Querier) *StockLocker {
	return &StockLocker{q: q}
}

// LockProducts toma los locks en orden lexicográfico para evitar interbloqueos.
func (l *StockLocker) LockProducts(ctx context.Context, productIDs []string) error {
	ids := slices.Clone(productIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)
	for _, id := range ids {
		if _, err := l.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended('stock:' || $1::text, 0))`, id); err != nil {
			return wrapErr("lock product", err)
		}
	}
	return nil
}

// SequenceRepo contador por tipo de documento con incremento atómico (upsert con RETURNING).
type SequenceRepo struct {
	q Querier
}

// NewSequenceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSequenceRepository(q Querier) *SequenceRepo {
	return &SequenceRepo{q: q}
}

// Next incrementa y devuelve el consecutivo. La fila queda bloqueada hasta el fin de la tx,
// así un rollback de la creación no deja huecos visibles a otros.
func (r *SequenceRepo) Next(ctx context.Context, kind entity.DocumentKind) (int64, error) {
	query := `
		INSERT INTO document_sequences (kind, last_value) VALUES ($1, 1)
		ON CONFLICT (kind) DO UPDATE SET last_value = document_sequences.last_value + 1
		RETURNING last_value`
	var n int64
	if err := r.q.QueryRow(ctx, query, string(kind)).Scan(&n); err != nil {
		return 0, wrapErr("next sequence", err)
	}
	return n, nil
}
