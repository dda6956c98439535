package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/bodegas-api/internal/domain"
	"github.com/jhoicas/bodegas-api/internal/domain/entity"
	"github.com/jhoicas/bodegas-api/internal/domain/repository"
)

var _ repository.ItemRepository = (*ItemRepo)(nil)
var _ repository.PresentationRepository = (*PresentationRepo)(nil)

const itemColumns = `id, code, name, base_unit, unit_cost, active, created_at, updated_at`

// ItemRepo implementación del puerto ItemRepository sobre PostgreSQL (usable con pool o tx).
type ItemRepo struct {
	q Querier
}

// NewItemRepository construye el adaptador de persistencia para ítems. Pasar pool o tx (Querier).
func NewItemRepository(q Querier) *ItemRepo {
	return &ItemRepo{q: q}
}

// Create persiste un nuevo ítem. Código repetido: domain.ErrDuplicate.
func (r *ItemRepo) Create(ctx context.Context, item *entity.Item) error {
	query := `
		INSERT INTO items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		item.ID, item.Code, item.Name, item.BaseUnit, item.UnitCost, item.Active,
		item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

// GetByID obtiene un ítem por ID.
func (r *ItemRepo) GetByID(ctx context.Context, id string) (*entity.Item, error) {
	return r.getOne(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id)
}

// GetByCode obtiene un ítem por código.
func (r *ItemRepo) GetByCode(ctx context.Context, code string) (*entity.Item, error) {
	return r.getOne(ctx, `SELECT `+itemColumns+` FROM items WHERE code = $1`, code)
}

func (r *ItemRepo) getOne(ctx context.Context, query string, arg string) (*entity.Item, error) {
	it, err := scanItem(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

// Update actualiza nombre, unidad, costo y estado. El código no cambia.
func (r *ItemRepo) Update(ctx context.Context, item *entity.Item) error {
	query := `
		UPDATE items SET name = $2, base_unit = $3, unit_cost = $4, active = $5, updated_at = $6
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		item.ID, item.Name, item.BaseUnit, item.UnitCost, item.Active, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista ítems ordenados por código.
func (r *ItemRepo) List(ctx context.Context, limit, offset int) ([]*entity.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items ORDER BY code LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()
	var list []*entity.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		list = append(list, it)
	}
	return list, rows.Err()
}

func scanItem(row pgx.Row) (*entity.Item, error) {
	var it entity.Item
	err := row.Scan(&it.ID, &it.Code, &it.Name, &it.BaseUnit, &it.UnitCost, &it.Active, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// PresentationRepo presentaciones de ítems sobre PostgreSQL.
type PresentationRepo struct {
	q Querier
}

// NewPresentationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPresentationRepository(q Querier) *PresentationRepo {
	return &PresentationRepo{q: q}
}

// Create persiste una presentación. Nombre repetido en el ítem: domain.ErrDuplicate;
// ítem inexistente: domain.ErrNotFound.
func (r *PresentationRepo) Create(ctx context.Context, p *entity.PresentationUnit) error {
	query := `
		INSERT INTO presentation_units (id, item_id, name, multiplier, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query, p.ID, p.ItemID, p.Name, p.Multiplier, p.Active, p.CreatedAt)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return domain.ErrDuplicate
		case isForeignKeyViolation(err):
			return fmt.Errorf("ítem %s: %w", p.ItemID, domain.ErrNotFound)
		}
		return fmt.Errorf("insert presentation: %w", err)
	}
	return nil
}

// GetByID obtiene una presentación por ID.
func (r *PresentationRepo) GetByID(ctx context.Context, id string) (*entity.PresentationUnit, error) {
	query := `
		SELECT id, item_id, name, multiplier, active, created_at
		FROM presentation_units WHERE id = $1`
	var p entity.PresentationUnit
	err := r.q.QueryRow(ctx, query, id).Scan(&p.ID, &p.ItemID, &p.Name, &p.Multiplier, &p.Active, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get presentation: %w", err)
	}
	return &p, nil
}

// ListByItem presentaciones del ítem ordenadas por multiplicador.
func (r *PresentationRepo) ListByItem(ctx context.Context, itemID string) ([]*entity.PresentationUnit, error) {
	query := `
		SELECT id, item_id, name, multiplier, active, created_at
		FROM presentation_units WHERE item_id = $1 ORDER BY multiplier, name`
	rows, err := r.q.Query(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("list presentations: %w", err)
	}
	defer rows.Close()
	var list []*entity.PresentationUnit
	for rows.Next() {
		var p entity.PresentationUnit
		if err := rows.Scan(&p.ID, &p.ItemID, &p.Name, &p.Multiplier, &p.Active, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan presentation: %w", err)
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}
