package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.DocumentRepository = (*DocumentRepo)(nil)

const documentColumns = `id, reference, kind, status, supplier, customer, source_location, destination_location,
	location, scheduled_time, completed_time, created_by, responsible, approver, notes, created_at, updated_at`

// DocumentRepo documentos y sus líneas sobre PostgreSQL (usable con pool o tx).
type DocumentRepo struct {
	q Querier
}

// NewDocumentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDocumentRepository(q Querier) *DocumentRepo {
	return &DocumentRepo{q: q}
}

// Create inserta cabecera y líneas. Debe llamarse dentro de una tx para que sea atómico.
func (r *DocumentRepo) Create(ctx context.Context, doc *entity.Document) error {
	query := `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := r.q.Exec(ctx, query,
		doc.ID, doc.Reference, string(doc.Kind), string(doc.Status),
		nullIfEmpty(doc.Supplier), nullIfEmpty(doc.Customer),
		nullIfEmpty(doc.SourceLocation), nullIfEmpty(doc.DestinationLocation), nullIfEmpty(doc.Location),
		doc.ScheduledTime, doc.CompletedTime,
		doc.CreatedBy, nullIfEmpty(doc.Responsible), nullIfEmpty(doc.Approver), nullIfEmpty(doc.Notes),
		doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return wrapErr("create document", err)
	}
	return r.insertLines(ctx, doc)
}

func (r *DocumentRepo) insertLines(ctx context.Context, doc *entity.Document) error {
	if len(doc.Lines) == 0 {
		return nil
	}
	query := `
		INSERT INTO document_lines (id, document_id, position, product_id, planned_quantity,
			actual_quantity, theoretical_quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	batch := &pgx.Batch{}
	for i, l := range doc.Lines {
		batch.Queue(query, l.ID, doc.ID, i, l.ProductID, l.PlannedQuantity,
			l.ActualQuantity, l.TheoreticalQuantity, l.UnitPrice)
	}
	br := r.q.SendBatch(ctx, batch)
	for range doc.Lines {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return wrapErr("insert document lines", err)
		}
	}
	return wrapErr("insert document lines", br.Close())
}

// GetByID obtiene un documento con sus líneas; nil si no existe.
func (r *DocumentRepo) GetByID(ctx context.Context, id string) (*entity.Document, error) {
	return r.get(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
}

// GetForUpdate igual que GetByID pero bloquea la fila (SELECT FOR UPDATE) hasta el fin de la tx.
// Un segundo commit concurrente espera aquí y luego observa el estado done.
func (r *DocumentRepo) GetForUpdate(ctx context.Context, id string) (*entity.Document, error) {
	return r.get(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1 FOR UPDATE`, id)
}

func (r *DocumentRepo) get(ctx context.Context, query, id string) (*entity.Document, error) {
	doc, err := scanDocument(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get document", err)
	}
	lines, err := r.lines(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	doc.Lines = lines
	return doc, nil
}

func (r *DocumentRepo) lines(ctx context.Context, documentID string) ([]entity.LineItem, error) {
	query := `
		SELECT id, product_id, planned_quantity, actual_quantity, theoretical_quantity, unit_price
		FROM document_lines WHERE document_id = $1 ORDER BY position`
	rows, err := r.q.Query(ctx, query, documentID)
	if err != nil {
		return nil, wrapErr("list document lines", err)
	}
	defer rows.Close()
	var out []entity.LineItem
	for rows.Next() {
		var (
			l                            entity.LineItem
			actual, theoretical, unitPrc decimal.NullDecimal
		)
		if err := rows.Scan(&l.ID, &l.ProductID, &l.PlannedQuantity, &actual, &theoretical, &unitPrc); err != nil {
			return nil, wrapErr("scan document line", err)
		}
		l.ActualQuantity = fromNull(actual)
		l.TheoreticalQuantity = fromNull(theoretical)
		l.UnitPrice = fromNull(unitPrc)
		out = append(out, l)
	}
	return out, wrapErr("list document lines", rows.Err())
}

// Update persiste cabecera y líneas con UPDATE ... WHERE status = expectedStatus.
// Si no se afecta ninguna fila, el documento cambió de estado (ErrAlreadyProcessed) o no existe.
func (r *DocumentRepo) Update(ctx context.Context, doc *entity.Document, expectedStatus entity.DocumentStatus) error {
	query := `
		UPDATE documents SET
			status = $3, supplier = $4, customer = $5, source_location = $6, destination_location = $7,
			location = $8, scheduled_time = $9, completed_time = $10, responsible = $11, approver = $12,
			notes = $13, updated_at = $14
		WHERE id = $1 AND status = $2`
	tag, err := r.q.Exec(ctx, query,
		doc.ID, string(expectedStatus), string(doc.Status),
		nullIfEmpty(doc.Supplier), nullIfEmpty(doc.Customer),
		nullIfEmpty(doc.SourceLocation), nullIfEmpty(doc.DestinationLocation), nullIfEmpty(doc.Location),
		doc.ScheduledTime, doc.CompletedTime, nullIfEmpty(doc.Responsible), nullIfEmpty(doc.Approver),
		nullIfEmpty(doc.Notes), doc.UpdatedAt,
	)
	if err != nil {
		return wrapErr("update document", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM documents WHERE id = $1)`, doc.ID).Scan(&exists); err != nil {
			return wrapErr("update document", err)
		}
		if !exists {
			return domain.ErrNotFound
		}
		return fmt.Errorf("update document %s: %w", doc.Reference, domain.ErrAlreadyProcessed)
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM document_lines WHERE document_id = $1`, doc.ID); err != nil {
		return wrapErr("replace document lines", err)
	}
	return r.insertLines(ctx, doc)
}

// List lista documentos (más recientes primero) con filtros opcionales por tipo y estado.
func (r *DocumentRepo) List(ctx context.Context, f repository.DocumentFilter, limit, offset int) ([]*entity.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE 1=1`
	args := []any{}
	pos := 1
	if f.Kind != "" {
		query += fmt.Sprintf(" AND kind = $%d", pos)
		args = append(args, string(f.Kind))
		pos++
	}
	if f.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", pos)
		args = append(args, string(f.Status))
		pos++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("list documents", err)
	}
	var list []*entity.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			rows.Close()
			return nil, wrapErr("scan document", err)
		}
		list = append(list, doc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list documents", err)
	}
	// las líneas se cargan después de cerrar el cursor: una tx no admite dos consultas abiertas
	for _, doc := range list {
		if doc.Lines, err = r.lines(ctx, doc.ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func scanDocument(row pgx.Row) (*entity.Document, error) {
	var (
		d                                 entity.Document
		kind, status                      string
		supplier, customer, src, dst, loc *string
		responsible, approver, notes      *string
		completed                         *time.Time
	)
	if err := row.Scan(&d.ID, &d.Reference, &kind, &status, &supplier, &customer, &src, &dst,
		&loc, &d.ScheduledTime, &completed, &d.CreatedBy, &responsible, &approver, &notes,
		&d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.Kind = entity.DocumentKind(kind)
	d.Status = entity.DocumentStatus(status)
	d.Supplier, d.Customer = deref(supplier), deref(customer)
	d.SourceLocation, d.DestinationLocation, d.Location = deref(src), deref(dst), deref(loc)
	d.Responsible, d.Approver, d.Notes = deref(responsible), deref(approver), deref(notes)
	d.CompletedTime = completed
	return &d, nil
}

func fromNull(n decimal.NullDecimal) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	v := n.Decimal
	return &v
}
