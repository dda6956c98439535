package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/bodegas-api/internal/domain/entity"
	"github.com/jhoicas/bodegas-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// Get obtiene el stock actual de un ítem en una bodega; cero si no hay fila.
func (r *StockRepo) Get(ctx context.Context, itemID, warehouseID string) (*entity.Stock, error) {
	query := `
		SELECT item_id, warehouse_id, quantity, updated_at
		FROM stock WHERE item_id = $1 AND warehouse_id = $2`
	return r.getOne(ctx, query, itemID, warehouseID)
}

// GetForUpdate obtiene el stock y bloquea la fila para update (SELECT FOR UPDATE).
// Si la fila no existe se inserta en cero primero para que el bloqueo tenga sobre qué actuar.
func (r *StockRepo) GetForUpdate(ctx context.Context, itemID, warehouseID string) (*entity.Stock, error) {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock (item_id, warehouse_id, quantity, updated_at)
		VALUES ($1, $2, 0, now())
		ON CONFLICT (item_id, warehouse_id) DO NOTHING`, itemID, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("ensure stock row: %w", err)
	}
	query := `
		SELECT item_id, warehouse_id, quantity, updated_at
		FROM stock WHERE item_id = $1 AND warehouse_id = $2
		FOR UPDATE`
	return r.getOne(ctx, query, itemID, warehouseID)
}

func (r *StockRepo) getOne(ctx context.Context, query, itemID, warehouseID string) (*entity.Stock, error) {
	var s entity.Stock
	err := r.q.QueryRow(ctx, query, itemID, warehouseID).Scan(
		&s.ItemID, &s.WarehouseID, &s.Quantity, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.Stock{ItemID: itemID, WarehouseID: warehouseID, Quantity: decimal.Zero}, nil
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return &s, nil
}

// Upsert inserta o actualiza la cantidad en stock (por ítem y bodega).
func (r *StockRepo) Upsert(ctx context.Context, stock *entity.Stock) error {
	query := `
		INSERT INTO stock (item_id, warehouse_id, quantity, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (item_id, warehouse_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()`
	_, err := r.q.Exec(ctx, query, stock.ItemID, stock.WarehouseID, stock.Quantity)
	if err != nil {
		return fmt.Errorf("upsert stock: %w", err)
	}
	return nil
}

// List existencias filtradas por ítem y/o bodega.
func (r *StockRepo) List(ctx context.Context, filter repository.StockFilter) ([]*entity.Stock, error) {
	query := `
		SELECT item_id, warehouse_id, quantity, updated_at
		FROM stock WHERE ($1 = '' OR item_id::text = $1) AND ($2 = '' OR warehouse_id::text = $2)
		ORDER BY item_id, warehouse_id`
	rows, err := r.q.Query(ctx, query, filter.ItemID, filter.WarehouseID)
	if err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	defer rows.Close()
	var list []*entity.Stock
	for rows.Next() {
		var s entity.Stock
		if err := rows.Scan(&s.ItemID, &s.WarehouseID, &s.Quantity, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}
