package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/bodegas-api/internal/domain"
	"github.com/jhoicas/bodegas-api/internal/domain/entity"
	"github.com/jhoicas/bodegas-api/internal/domain/repository"
)

var _ repository.RequisitionRepository = (*RequisitionRepo)(nil)

// RequisitionRepo requisiciones y despachos en memoria.
type RequisitionRepo struct {
	sc scope
}

func (r *RequisitionRepo) Create(ctx context.Context, req *entity.Requisition) error {
	return r.sc.write(func(st *state) error {
		if _, ok := st.requisitions[req.ID]; ok {
			return domain.ErrDuplicate
		}
		st.requisitions[req.ID] = cloneRequisition(req)
		return nil
	})
}

func (r *RequisitionRepo) GetByID(ctx context.Context, id string) (*entity.Requisition, error) {
	var out *entity.Requisition
	err := r.sc.read(func(st *state) error {
		out = cloneRequisition(st.requisitions[id])
		return nil
	})
	return out, err
}

func (r *RequisitionRepo) GetForUpdate(ctx context.Context, id string) (*entity.Requisition, error) {
	return r.GetByID(ctx, id)
}

func (r *RequisitionRepo) Update(ctx context.Context, req *entity.Requisition) error {
	return r.sc.write(func(st *state) error {
		current, ok := st.requisitions[req.ID]
		if !ok {
			return domain.ErrNotFound
		}
		if len(current.Lines) != len(req.Lines) {
			return domain.ErrConflict
		}
		for i, l := range req.Lines {
			old := current.Lines[i]
			if old.ID != l.ID || l.DispatchedQty.LessThan(old.DispatchedQty) || l.DispatchedQty.GreaterThan(old.RequestedQty) {
				return domain.ErrConflict
			}
		}
		st.requisitions[req.ID] = cloneRequisition(req)
		return nil
	})
}

func (r *RequisitionRepo) List(ctx context.Context, f repository.RequisitionFilter) ([]*entity.Requisition, error) {
	var out []*entity.Requisition
	err := r.sc.read(func(st *state) error {
		list := make([]*entity.Requisition, 0, len(st.requisitions))
		for _, req := range st.requisitions {
			if matchesRequisition(f, req) {
				list = append(list, cloneRequisition(req))
			}
		}
		sort.Slice(list, func(i, j int) bool {
			if !list[i].RequestedAt.Equal(list[j].RequestedAt) {
				return list[i].RequestedAt.After(list[j].RequestedAt)
			}
			return list[i].ID < list[j].ID
		})
		out = paginate(list, f.Limit, f.Offset)
		return nil
	})
	return out, err
}

func (r *RequisitionRepo) Count(ctx context.Context, f repository.RequisitionFilter) (int, error) {
	n := 0
	err := r.sc.read(func(st *state) error {
		for _, req := range st.requisitions {
			if matchesRequisition(f, req) {
				n++
			}
		}
		return nil
	})
	return n, err
}

func matchesRequisition(f repository.RequisitionFilter, req *entity.Requisition) bool {
	switch {
	case f.State != "" && req.State != f.State:
		return false
	case f.RequesterID != "" && req.RequesterID != f.RequesterID:
		return false
	case f.SourceWarehouseID != "" && req.SourceWarehouseID != f.SourceWarehouseID:
		return false
	case f.DestinationWarehouseID != "" && req.DestinationWarehouseID != f.DestinationWarehouseID:
		return false
	}
	return true
}

func (r *RequisitionRepo) CreateDispatch(ctx context.Context, d *entity.RequisitionDispatch) error {
	return r.sc.write(func(st *state) error {
		if _, ok := st.requisitions[d.RequisitionID]; !ok {
			return domain.ErrNotFound
		}
		if _, ok := st.dispatches[d.ID]; ok {
			return domain.ErrDuplicate
		}
		st.dispatches[d.ID] = cloneDispatch(d)
		st.dispatchOrder = append(st.dispatchOrder, d.ID)
		return nil
	})
}

func (r *RequisitionRepo) GetDispatch(ctx context.Context, id string) (*entity.RequisitionDispatch, error) {
	var out *entity.RequisitionDispatch
	err := r.sc.read(func(st *state) error {
		out = cloneDispatch(st.dispatches[id])
		return nil
	})
	return out, err
}

func (r *RequisitionRepo) SetDispatchMovement(ctx context.Context, dispatchID, movementID string) error {
	return r.sc.write(func(st *state) error {
		d, ok := st.dispatches[dispatchID]
		if !ok {
			return domain.ErrNotFound
		}
		d.MovementID = movementID
		return nil
	})
}

func (r *RequisitionRepo) ListUnreconciledDispatches(ctx context.Context) ([]*entity.RequisitionDispatch, error) {
	var out []*entity.RequisitionDispatch
	err := r.sc.read(func(st *state) error {
		for _, id := range st.dispatchOrder {
			if _, ok := st.references[referenceKey(entity.ReferenceTypeDispatch, id)]; ok {
				continue
			}
			out = append(out, cloneDispatch(st.dispatches[id]))
		}
		return nil
	})
	return out, err
}
