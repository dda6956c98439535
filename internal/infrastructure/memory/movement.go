package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/bodegas-api/internal/domain"
	"github.com/jhoicas/bodegas-api/internal/domain/entity"
	"github.com/jhoicas/bodegas-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo ledger de movimientos en memoria.
type MovementRepo struct {
	sc scope
}

func referenceKey(referenceType, referenceID string) string {
	return referenceType + "/" + referenceID
}

func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	return r.sc.write(func(st *state) error {
		if _, ok := st.movements[m.ID]; ok {
			return domain.ErrDuplicate
		}
		if m.ReferenceID != "" {
			if _, ok := st.references[referenceKey(m.ReferenceType, m.ReferenceID)]; ok {
				return domain.ErrDuplicate
			}
			st.references[referenceKey(m.ReferenceType, m.ReferenceID)] = m.ID
		}
		for i := range m.Lines {
			st.seq++
			m.Lines[i].Seq = st.seq
			m.Lines[i].MovementID = m.ID
		}
		st.movements[m.ID] = cloneMovement(m)
		st.movementOrder = append(st.movementOrder, m.ID)
		return nil
	})
}

func (r *MovementRepo) GetByID(ctx context.Context, id string) (*entity.Movement, error) {
	var out *entity.Movement
	err := r.sc.read(func(st *state) error {
		out = cloneMovement(st.movements[id])
		return nil
	})
	return out, err
}

func (r *MovementRepo) GetByReference(ctx context.Context, referenceType, referenceID string) (*entity.Movement, error) {
	var out *entity.Movement
	err := r.sc.read(func(st *state) error {
		if id, ok := st.references[referenceKey(referenceType, referenceID)]; ok {
			out = cloneMovement(st.movements[id])
		}
		return nil
	})
	return out, err
}

func (r *MovementRepo) ListPostedLines(ctx context.Context, f repository.PostedLineFilter) ([]entity.PostedLine, error) {
	var out []entity.PostedLine
	err := r.sc.read(func(st *state) error {
		for _, id := range st.movementOrder {
			m := st.movements[id]
			if f.WarehouseID != "" && !m.TouchesWarehouse(f.WarehouseID) {
				continue
			}
			if f.From != nil && m.CreatedAt.Before(*f.From) {
				continue
			}
			if f.To != nil && !m.CreatedAt.Before(*f.To) {
				continue
			}
			header := *m
			header.Lines = nil
			for _, l := range m.Lines {
				if l.ItemID == f.ItemID {
					out = append(out, entity.PostedLine{Movement: header, Line: l})
				}
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Movement.CreatedAt.Equal(b.Movement.CreatedAt) {
			return a.Movement.CreatedAt.Before(b.Movement.CreatedAt)
		}
		return a.Line.Seq < b.Line.Seq
	})
	return out, err
}

func (r *MovementRepo) OpeningBalances(ctx context.Context, itemID, warehouseID string, before time.Time) (map[string]decimal.Decimal, error) {
	out := map[string]decimal.Decimal{}
	err := r.sc.read(func(st *state) error {
		for _, id := range st.movementOrder {
			m := st.movements[id]
			if !m.CreatedAt.Before(before) {
				continue
			}
			for _, l := range m.Lines {
				if l.ItemID != itemID {
					continue
				}
				for _, eff := range m.Effects(l) {
					if warehouseID != "" && eff.WarehouseID != warehouseID {
						continue
					}
					out[eff.WarehouseID] = out[eff.WarehouseID].Add(eff.Delta)
				}
			}
		}
		return nil
	})
	return out, err
}
