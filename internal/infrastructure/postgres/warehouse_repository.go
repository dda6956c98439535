package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/bodegas-api/internal/domain"
	"github.com/jhoicas/bodegas-api/internal/domain/entity"
	"github.com/jhoicas/bodegas-api/internal/domain/repository"
)

var _ repository.WarehouseRepository = (*WarehouseRepo)(nil)

const warehouseColumns = `id, name, address, responsible_user_id, active, created_at, updated_at`

// WarehouseRepo bodegas sobre PostgreSQL. responsible_user_id vacío se guarda como NULL.
type WarehouseRepo struct {
	q Querier
}

func NewWarehouseRepository(q Querier) *WarehouseRepo {
	return &WarehouseRepo{q: q}
}

func scanWarehouse(row pgx.Row) (*entity.Warehouse, error) {
	var (
		w           entity.Warehouse
		responsible *string
	)
	if err := row.Scan(&w.ID, &w.Name, &w.Address, &responsible, &w.Active, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	w.ResponsibleUserID = deref(responsible)
	return &w, nil
}

func (r *WarehouseRepo) Create(ctx context.Context, w *entity.Warehouse) error {
	_, err := r.q.Exec(ctx, `INSERT INTO warehouses (`+warehouseColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		w.ID, w.Name, w.Address, nullable(w.ResponsibleUserID), w.Active, w.CreatedAt, w.UpdatedAt)
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return domain.ErrDuplicate
	default:
		return fmt.Errorf("insert warehouse %s: %w", w.ID, err)
	}
}

func (r *WarehouseRepo) GetByID(ctx context.Context, id string) (*entity.Warehouse, error) {
	w, err := scanWarehouse(r.q.QueryRow(ctx, `SELECT `+warehouseColumns+` FROM warehouses WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get warehouse %s: %w", id, err)
	}
	return w, nil
}

// Update sobrescribe todos los campos editables; created_at no cambia.
func (r *WarehouseRepo) Update(ctx context.Context, w *entity.Warehouse) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE warehouses
		SET name = $2, address = $3, responsible_user_id = $4, active = $5, updated_at = $6
		WHERE id = $1`,
		w.ID, w.Name, w.Address, nullable(w.ResponsibleUserID), w.Active, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update warehouse %s: %w", w.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List más recientes primero.
func (r *WarehouseRepo) List(ctx context.Context, f repository.WarehouseFilter) ([]*entity.Warehouse, error) {
	var (
		conds []string
		args  []any
	)
	if f.Active != nil {
		args = append(args, *f.Active)
		conds = append(conds, fmt.Sprintf("active = $%d", len(args)))
	}
	if f.ResponsibleUserID != "" {
		args = append(args, f.ResponsibleUserID)
		conds = append(conds, fmt.Sprintf("responsible_user_id = $%d", len(args)))
	}
	query := `SELECT ` + warehouseColumns + ` FROM warehouses`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id"
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list warehouses: %w", err)
	}
	defer rows.Close()
	var list []*entity.Warehouse
	for rows.Next() {
		w, err := scanWarehouse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan warehouse: %w", err)
		}
		list = append(list, w)
	}
	return list, rows.Err()
}
