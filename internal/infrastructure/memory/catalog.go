package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/bodegas-api/internal/domain"
	"github.com/jhoicas/bodegas-api/internal/domain/entity"
	"github.com/jhoicas/bodegas-api/internal/domain/repository"
)

var (
	_ repository.ItemRepository         = (*ItemRepo)(nil)
	_ repository.PresentationRepository = (*PresentationRepo)(nil)
	_ repository.WarehouseRepository    = (*WarehouseRepo)(nil)
)

// ItemRepo ítems en memoria.
type ItemRepo struct {
	sc scope
}

func (r *ItemRepo) Create(ctx context.Context, item *entity.Item) error {
	return r.sc.write(func(st *state) error {
		if _, ok := st.items[item.ID]; ok {
			return domain.ErrDuplicate
		}
		for _, it := range st.items {
			if it.Code == item.Code {
				return domain.ErrDuplicate
			}
		}
		st.items[item.ID] = *item
		return nil
	})
}

func (r *ItemRepo) GetByID(ctx context.Context, id string) (*entity.Item, error) {
	var out *entity.Item
	err := r.sc.read(func(st *state) error {
		if it, ok := st.items[id]; ok {
			out = &it
		}
		return nil
	})
	return out, err
}

func (r *ItemRepo) GetByCode(ctx context.Context, code string) (*entity.Item, error) {
	var out *entity.Item
	err := r.sc.read(func(st *state) error {
		for _, it := range st.items {
			if it.Code == code {
				it := it
				out = &it
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *ItemRepo) Update(ctx context.Context, item *entity.Item) error {
	return r.sc.write(func(st *state) error {
		if _, ok := st.items[item.ID]; !ok {
			return domain.ErrNotFound
		}
		st.items[item.ID] = *item
		return nil
	})
}

func (r *ItemRepo) List(ctx context.Context, limit, offset int) ([]*entity.Item, error) {
	var out []*entity.Item
	err := r.sc.read(func(st *state) error {
		list := make([]*entity.Item, 0, len(st.items))
		for _, it := range st.items {
			it := it
			list = append(list, &it)
		}
		sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
		out = paginate(list, limit, offset)
		return nil
	})
	return out, err
}

// PresentationRepo presentaciones en memoria.
type PresentationRepo struct {
	sc scope
}

func (r *PresentationRepo) Create(ctx context.Context, p *entity.PresentationUnit) error {
	return r.sc.write(func(st *state) error {
		if _, ok := st.items[p.ItemID]; !ok {
			return domain.ErrNotFound
		}
		for _, existing := range st.presentations {
			if existing.ID == p.ID || (existing.ItemID == p.ItemID && existing.Name == p.Name) {
				return domain.ErrDuplicate
			}
		}
		st.presentations[p.ID] = *p
		return nil
	})
}

func (r *PresentationRepo) GetByID(ctx context.Context, id string) (*entity.PresentationUnit, error) {
	var out *entity.PresentationUnit
	err := r.sc.read(func(st *state) error {
		if p, ok := st.presentations[id]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r *PresentationRepo) ListByItem(ctx context.Context, itemID string) ([]*entity.PresentationUnit, error) {
	var out []*entity.PresentationUnit
	err := r.sc.read(func(st *state) error {
		for _, id := range sortedKeys(st.presentations) {
			p := st.presentations[id]
			if p.ItemID == itemID {
				out = append(out, &p)
			}
		}
		return nil
	})
	return out, err
}

// WarehouseRepo bodegas en memoria.
type WarehouseRepo struct {
	sc scope
}

func (r *WarehouseRepo) Create(ctx context.Context, w *entity.Warehouse) error {
	return r.sc.write(func(st *state) error {
		if _, ok := st.warehouses[w.ID]; ok {
			return domain.ErrDuplicate
		}
		st.warehouses[w.ID] = *w
		return nil
	})
}

func (r *WarehouseRepo) GetByID(ctx context.Context, id string) (*entity.Warehouse, error) {
	var out *entity.Warehouse
	err := r.sc.read(func(st *state) error {
		if w, ok := st.warehouses[id]; ok {
			out = &w
		}
		return nil
	})
	return out, err
}

func (r *WarehouseRepo) Update(ctx context.Context, w *entity.Warehouse) error {
	return r.sc.write(func(st *state) error {
		if _, ok := st.warehouses[w.ID]; !ok {
			return domain.ErrNotFound
		}
		st.warehouses[w.ID] = *w
		return nil
	})
}

func (r *WarehouseRepo) List(ctx context.Context, f repository.WarehouseFilter) ([]*entity.Warehouse, error) {
	var out []*entity.Warehouse
	err := r.sc.read(func(st *state) error {
		list := make([]*entity.Warehouse, 0, len(st.warehouses))
		for _, w := range st.warehouses {
			w := w
			if f.Matches(&w) {
				list = append(list, &w)
			}
		}
		sort.Slice(list, func(i, j int) bool {
			if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
				return list[i].CreatedAt.After(list[j].CreatedAt)
			}
			return list[i].ID < list[j].ID
		})
		out = paginate(list, f.Limit, f.Offset)
		return nil
	})
	return out, err
}
