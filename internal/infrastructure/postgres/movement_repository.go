package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// signedDeltaSQL variación del stock global por fila; los traslados internos netean a cero.
const signedDeltaSQL = `
	CASE kind
		WHEN 'inbound' THEN quantity
		WHEN 'outbound' THEN -quantity
		WHEN 'adjustment' THEN CASE WHEN destination_location IS NOT NULL THEN quantity ELSE -quantity END
		ELSE 0
	END`

const movementColumns = `id, product_id, source_location, destination_location, quantity, kind, status,
	effective_time, origin_type, origin_id, created_by, created_at`

// MovementRepo libro de movimientos sobre PostgreSQL (usable con pool o tx). Solo INSERT y SELECT;
// un trigger rechaza UPDATE y DELETE sobre stock_movements.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// AppendBatch inserta los movimientos en un único batch; dentro de una tx es todo o nada.
func (r *MovementRepo) AppendBatch(ctx context.Context, movements []*entity.Movement) error {
	if len(movements) == 0 {
		return nil
	}
	query := `
		INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	batch := &pgx.Batch{}
	for _, m := range movements {
		batch.Queue(query,
			m.ID, m.ProductID, nullIfEmpty(m.SourceLocation), nullIfEmpty(m.DestinationLocation),
			m.Quantity, string(m.Kind), m.Status, m.EffectiveTime,
			string(m.Origin.Type), m.Origin.ID, m.CreatedBy, m.CreatedAt,
		)
	}
	br := r.q.SendBatch(ctx, batch)
	for range movements {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return wrapErr("append movements", err)
		}
	}
	return wrapErr("append movements", br.Close())
}

// SumByProduct saldo crudo global: Σ entradas − Σ salidas ± ajustes.
func (r *MovementRepo) SumByProduct(ctx context.Context, productID string) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(` + signedDeltaSQL + `), 0) FROM stock_movements WHERE product_id = $1 AND status = 'done'`
	var total decimal.Decimal
	if err := r.q.QueryRow(ctx, query, productID).Scan(&total); err != nil {
		return decimal.Zero, wrapErr("sum stock", err)
	}
	return total, nil
}

// SumByProductAtLocation saldo crudo en una ubicación: acreditaciones menos débitos.
func (r *MovementRepo) SumByProductAtLocation(ctx context.Context, productID, locationID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(
			CASE WHEN destination_location = $2 THEN quantity ELSE 0 END -
			CASE WHEN source_location = $2 THEN quantity ELSE 0 END
		), 0)
		FROM stock_movements
		WHERE product_id = $1 AND status = 'done'
		  AND (source_location = $2 OR destination_location = $2)`
	var total decimal.Decimal
	if err := r.q.QueryRow(ctx, query, productID, locationID).Scan(&total); err != nil {
		return decimal.Zero, wrapErr("sum stock at location", err)
	}
	return total, nil
}

// ListByProduct página del historial ordenada por (effective_time DESC, id DESC), paginación por clave.
func (r *MovementRepo) ListByProduct(ctx context.Context, productID string, f repository.MovementFilter, after *repository.MovementCursor, limit int) ([]*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE product_id = $1`
	args := []any{productID}
	pos := 2
	if f.Kind != "" {
		query += fmt.Sprintf(" AND kind = $%d", pos)
		args = append(args, string(f.Kind))
		pos++
	}
	if f.From != nil {
		query += fmt.Sprintf(" AND effective_time >= $%d", pos)
		args = append(args, *f.From)
		pos++
	}
	if f.To != nil {
		query += fmt.Sprintf(" AND effective_time <= $%d", pos)
		args = append(args, *f.To)
		pos++
	}
	if after != nil {
		query += fmt.Sprintf(" AND (effective_time, id) < ($%d, $%d)", pos, pos+1)
		args = append(args, after.EffectiveTime, after.ID)
		pos += 2
	}
	query += fmt.Sprintf(" ORDER BY effective_time DESC, id DESC LIMIT $%d", pos)
	args = append(args, limit)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("list by product", err)
	}
	return scanMovements(rows)
}

// ListByOrigin movimientos generados por un documento.
func (r *MovementRepo) ListByOrigin(ctx context.Context, kind entity.DocumentKind, documentID string) ([]*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements
		WHERE origin_type = $1 AND origin_id = $2 ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query, string(kind), documentID)
	if err != nil {
		return nil, wrapErr("list by origin", err)
	}
	return scanMovements(rows)
}

// NegativeBalances saldos crudos negativos, globales (location_id vacío) y por ubicación.
func (r *MovementRepo) NegativeBalances(ctx context.Context) ([]repository.NegativeBalance, error) {
	query := `
		WITH global AS (
			SELECT product_id, '' AS location_id, SUM(` + signedDeltaSQL + `) AS quantity
			FROM stock_movements WHERE status = 'done'
			GROUP BY product_id
		), per_location AS (
			SELECT product_id, location_id, SUM(delta) AS quantity
			FROM (
				SELECT product_id, destination_location AS location_id, quantity AS delta
				FROM stock_movements WHERE status = 'done' AND destination_location IS NOT NULL
				UNION ALL
				SELECT product_id, source_location, -quantity
				FROM stock_movements WHERE status = 'done' AND source_location IS NOT NULL
			) d
			GROUP BY product_id, location_id
		)
		SELECT product_id, location_id, quantity FROM global WHERE quantity < 0
		UNION ALL
		SELECT product_id, location_id, quantity FROM per_location WHERE quantity < 0
		ORDER BY product_id, location_id`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, wrapErr("negative balances", err)
	}
	defer rows.Close()
	var out []repository.NegativeBalance
	for rows.Next() {
		var nb repository.NegativeBalance
		if err := rows.Scan(&nb.ProductID, &nb.LocationID, &nb.Quantity); err != nil {
			return nil, wrapErr("scan negative balance", err)
		}
		out = append(out, nb)
	}
	return out, wrapErr("negative balances", rows.Err())
}

func scanMovements(rows pgx.Rows) ([]*entity.Movement, error) {
	defer rows.Close()
	var list []*entity.Movement
	for rows.Next() {
		var (
			m        entity.Movement
			src, dst *string
			kind     string
			origin   string
		)
		if err := rows.Scan(&m.ID, &m.ProductID, &src, &dst, &m.Quantity, &kind, &m.Status,
			&m.EffectiveTime, &origin, &m.Origin.ID, &m.CreatedBy, &m.CreatedAt); err != nil {
			return nil, wrapErr("scan movement", err)
		}
		m.SourceLocation, m.DestinationLocation = deref(src), deref(dst)
		m.Kind = entity.MovementKind(kind)
		m.Origin.Type = entity.DocumentKind(origin)
		list = append(list, &m)
	}
	return list, wrapErr("scan movements", rows.Err())
}
