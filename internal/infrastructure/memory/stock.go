package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/bodegas-api/internal/domain/entity"
	"github.com/jhoicas/bodegas-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo existencias en memoria. Dentro de una transacción GetForUpdate no necesita
// bloquear: la transacción ya tiene el candado exclusivo del store.
type StockRepo struct {
	sc scope
}

func (r *StockRepo) Get(ctx context.Context, itemID, warehouseID string) (*entity.Stock, error) {
	var out *entity.Stock
	err := r.sc.read(func(st *state) error {
		out = lookupStock(st, itemID, warehouseID)
		return nil
	})
	return out, err
}

func (r *StockRepo) GetForUpdate(ctx context.Context, itemID, warehouseID string) (*entity.Stock, error) {
	return r.Get(ctx, itemID, warehouseID)
}

func (r *StockRepo) Upsert(ctx context.Context, stock *entity.Stock) error {
	return r.sc.write(func(st *state) error {
		st.stock[stock.Key()] = *stock
		return nil
	})
}

func (r *StockRepo) List(ctx context.Context, filter repository.StockFilter) ([]*entity.Stock, error) {
	var out []*entity.Stock
	err := r.sc.read(func(st *state) error {
		for k, s := range st.stock {
			if filter.ItemID != "" && k.ItemID != filter.ItemID {
				continue
			}
			if filter.WarehouseID != "" && k.WarehouseID != filter.WarehouseID {
				continue
			}
			s := s
			out = append(out, &s)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Key().Less(out[j].Key()) })
	return out, err
}

func lookupStock(st *state, itemID, warehouseID string) *entity.Stock {
	if s, ok := st.stock[entity.StockKey{ItemID: itemID, WarehouseID: warehouseID}]; ok {
		return &s
	}
	return &entity.Stock{ItemID: itemID, WarehouseID: warehouseID, Quantity: decimal.Zero}
}
