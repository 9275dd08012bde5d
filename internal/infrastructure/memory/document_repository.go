package memory

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// DocumentRepository implementa repository.DocumentRepository.
type DocumentRepository struct {
	sc scope
}

func (r *DocumentRepository) Create(ctx context.Context, doc *entity.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := r.sc.write()
	defer unlock()
	st := r.sc.state()
	if _, exists := st.documents[doc.ID]; exists {
		return domain.ErrDuplicate
	}
	if _, exists := st.refs[doc.Reference]; exists {
		return domain.ErrDuplicate
	}
	st.documents[doc.ID] = cloneDocument(doc)
	st.refs[doc.Reference] = doc.ID
	st.order = append(st.order, doc.ID)
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*entity.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	unlock := r.sc.read()
	defer unlock()
	doc, ok := r.sc.state().documents[id]
	if !ok {
		return nil, nil
	}
	return cloneDocument(doc), nil
}

// GetForUpdate dentro de Run equivale a GetByID: el lock de la transacción ya es exclusivo.
func (r *DocumentRepository) GetForUpdate(ctx context.Context, id string) (*entity.Document, error) {
	return r.GetByID(ctx, id)
}

func (r *DocumentRepository) Update(ctx context.Context, doc *entity.Document, expectedStatus entity.DocumentStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := r.sc.write()
	defer unlock()
	st := r.sc.state()
	stored, ok := st.documents[doc.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Status != expectedStatus {
		return domain.ErrAlreadyProcessed
	}
	st.documents[doc.ID] = cloneDocument(doc)
	return nil
}

func (r *DocumentRepository) List(ctx context.Context, f repository.DocumentFilter, limit, offset int) ([]*entity.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	unlock := r.sc.read()
	defer unlock()
	st := r.sc.state()
	out := make([]*entity.Document, 0)
	// más recientes primero
	for i := len(st.order) - 1; i >= 0; i-- {
		doc := st.documents[st.order[i]]
		if f.Kind != "" && doc.Kind != f.Kind {
			continue
		}
		if f.Status != "" && doc.Status != f.Status {
			continue
		}
		out = append(out, cloneDocument(doc))
	}
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// SequenceRepository implementa repository.SequenceRepository.
type SequenceRepository struct {
	sc scope
}

func (r *SequenceRepository) Next(ctx context.Context, kind entity.DocumentKind) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	unlock := r.sc.write()
	defer unlock()
	st := r.sc.state()
	st.sequences[kind]++
	return st.sequences[kind], nil
}

func cloneDocument(doc *entity.Document) *entity.Document {
	out := *doc
	if doc.CompletedTime != nil {
		t := *doc.CompletedTime
		out.CompletedTime = &t
	}
	out.Lines = make([]entity.LineItem, len(doc.Lines))
	for i, l := range doc.Lines {
		l.ActualQuantity = cloneDecimal(l.ActualQuantity)
		l.TheoreticalQuantity = cloneDecimal(l.TheoreticalQuantity)
		l.UnitPrice = cloneDecimal(l.UnitPrice)
		out.Lines[i] = l
	}
	return &out
}

func cloneDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

var (
	_ repository.DocumentRepository = (*DocumentRepository)(nil)
	_ repository.SequenceRepository = (*SequenceRepository)(nil)
)
