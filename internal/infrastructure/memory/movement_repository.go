package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// MovementRepository implementa repository.MovementRepository. Solo inserción.
type MovementRepository struct {
	sc scope
}

func (r *MovementRepository) AppendBatch(ctx context.Context, movements []*entity.Movement) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := r.sc.write()
	defer unlock()
	st := r.sc.state()
	seen := make(map[string]struct{}, len(st.movements))
	for _, m := range st.movements {
		seen[m.ID] = struct{}{}
	}
	batch := make([]*entity.Movement, 0, len(movements))
	for _, m := range movements {
		if _, dup := seen[m.ID]; dup {
			return domain.ErrDuplicate
		}
		seen[m.ID] = struct{}{}
		cp := *m
		batch = append(batch, &cp)
	}
	st.movements = append(st.movements, batch...)
	return nil
}

func (r *MovementRepository) SumByProduct(ctx context.Context, productID string) (decimal.Decimal, error) {
	list, err := r.byProduct(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}
	return domaininv.FoldStock(list), nil
}

func (r *MovementRepository) SumByProductAtLocation(ctx context.Context, productID, locationID string) (decimal.Decimal, error) {
	list, err := r.byProduct(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}
	return domaininv.FoldStockAt(list, locationID), nil
}

func (r *MovementRepository) byProduct(ctx context.Context, productID string) ([]*entity.Movement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	unlock := r.sc.read()
	defer unlock()
	var out []*entity.Movement
	for _, m := range r.sc.state().movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *MovementRepository) ListByProduct(ctx context.Context, productID string, f repository.MovementFilter, after *repository.MovementCursor, limit int) ([]*entity.Movement, error) {
	list, err := r.byProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	filtered := make([]*entity.Movement, 0, len(list))
	for _, m := range list {
		if f.Kind != "" && m.Kind != f.Kind {
			continue
		}
		if f.From != nil && m.EffectiveTime.Before(*f.From) {
			continue
		}
		if f.To != nil && m.EffectiveTime.After(*f.To) {
			continue
		}
		if after != nil && !before(m, after) {
			continue
		}
		filtered = append(filtered, m)
	}
	sort.Slice(filtered, func(i, j int) bool {
		a, b := filtered[i], filtered[j]
		if !a.EffectiveTime.Equal(b.EffectiveTime) {
			return a.EffectiveTime.After(b.EffectiveTime)
		}
		return a.ID > b.ID
	})
	if limit > 0 && len(filtered) > limit {
		filtered = filtered[:limit]
	}
	out := make([]*entity.Movement, len(filtered))
	for i, m := range filtered {
		cp := *m
		out[i] = &cp
	}
	return out, nil
}

// before indica si m va después del cursor en orden (effective_time DESC, id DESC).
func before(m *entity.Movement, c *repository.MovementCursor) bool {
	if m.EffectiveTime.Equal(c.EffectiveTime) {
		return m.ID < c.ID
	}
	return m.EffectiveTime.Before(c.EffectiveTime)
}

func (r *MovementRepository) ListByOrigin(ctx context.Context, kind entity.DocumentKind, documentID string) ([]*entity.Movement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	unlock := r.sc.read()
	defer unlock()
	var out []*entity.Movement
	for _, m := range r.sc.state().movements {
		if m.Origin.Type == kind && m.Origin.ID == documentID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MovementRepository) NegativeBalances(ctx context.Context) ([]repository.NegativeBalance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	unlock := r.sc.read()
	defer unlock()

	type key struct{ product, location string }
	totals := make(map[key]decimal.Decimal)
	for _, m := range r.sc.state().movements {
		g := key{product: m.ProductID}
		totals[g] = totals[g].Add(m.SignedDelta())
		for _, loc := range []string{m.SourceLocation, m.DestinationLocation} {
			if loc == "" {
				continue
			}
			k := key{product: m.ProductID, location: loc}
			if _, ok := totals[k]; !ok {
				totals[k] = decimal.Zero
			}
		}
	}
	for k := range totals {
		if k.location == "" {
			continue
		}
		var sum decimal.Decimal
		for _, m := range r.sc.state().movements {
			if m.ProductID == k.product {
				sum = sum.Add(m.DeltaAt(k.location))
			}
		}
		totals[k] = sum
	}

	var out []repository.NegativeBalance
	for k, q := range totals {
		if q.IsNegative() {
			out = append(out, repository.NegativeBalance{ProductID: k.product, LocationID: k.location, Quantity: q})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].LocationID < out[j].LocationID
	})
	return out, nil
}

var _ repository.MovementRepository = (*MovementRepository)(nil)
