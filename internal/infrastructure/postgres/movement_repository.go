package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/bodegas-api/internal/domain"
	"github.com/jhoicas/bodegas-api/internal/domain/entity"
	"github.com/jhoicas/bodegas-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `m.id, m.type, m.source_warehouse_id, m.destination_warehouse_id, m.actor_id,
	m.reason, m.notes, m.reference_type, m.reference_id, m.created_at`

const lineColumns = `l.id, l.movement_id, l.seq, l.item_id, l.quantity, l.direction,
	l.presentation_id, l.presentation_qty, l.unit_cost`

// MovementRepo ledger de movimientos sobre PostgreSQL (usable con pool o tx). Solo inserta.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Create persiste cabecera y líneas; seq lo asigna la secuencia de movement_lines.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	query := `
		INSERT INTO movements (id, type, source_warehouse_id, destination_warehouse_id, actor_id,
			reason, notes, reference_type, reference_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		m.ID, string(m.Type), nullable(m.SourceWarehouseID), nullable(m.DestinationWarehouseID), m.ActorID,
		m.Reason, m.Notes, m.ReferenceType, m.ReferenceID, m.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("referencia %s/%s: %w", m.ReferenceType, m.ReferenceID, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert movement: %w", err)
	}
	lineQuery := `
		INSERT INTO movement_lines (id, movement_id, item_id, quantity, direction,
			presentation_id, presentation_qty, unit_cost)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING seq`
	for i := range m.Lines {
		l := &m.Lines[i]
		l.MovementID = m.ID
		err := r.q.QueryRow(ctx, lineQuery,
			l.ID, m.ID, l.ItemID, l.Quantity, l.Direction,
			nullable(l.PresentationID), l.PresentationQty, l.UnitCost,
		).Scan(&l.Seq)
		if err != nil {
			return fmt.Errorf("insert movement line: %w", err)
		}
	}
	return nil
}

// GetByID obtiene un movimiento con sus líneas.
func (r *MovementRepo) GetByID(ctx context.Context, id string) (*entity.Movement, error) {
	return r.getOne(ctx, `SELECT `+movementColumns+` FROM movements m WHERE m.id = $1`, id)
}

// GetByReference obtiene el movimiento generado por un documento.
func (r *MovementRepo) GetByReference(ctx context.Context, referenceType, referenceID string) (*entity.Movement, error) {
	return r.getOne(ctx, `SELECT `+movementColumns+` FROM movements m
		WHERE m.reference_type = $1 AND m.reference_id = $2`, referenceType, referenceID)
}

func (r *MovementRepo) getOne(ctx context.Context, query string, args ...any) (*entity.Movement, error) {
	m, err := scanMovement(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	rows, err := r.q.Query(ctx, `SELECT `+lineColumns+` FROM movement_lines l
		WHERE l.movement_id = $1 ORDER BY l.seq`, m.ID)
	if err != nil {
		return nil, fmt.Errorf("get movement lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement line: %w", err)
		}
		m.Lines = append(m.Lines, *l)
	}
	return m, rows.Err()
}

// ListPostedLines líneas del ítem en orden (created_at, seq), opcionalmente por bodega y rango.
func (r *MovementRepo) ListPostedLines(ctx context.Context, f repository.PostedLineFilter) ([]entity.PostedLine, error) {
	query := `
		SELECT ` + movementColumns + `, ` + lineColumns + `
		FROM movement_lines l
		JOIN movements m ON m.id = l.movement_id
		WHERE l.item_id = $1`
	args := []any{f.ItemID}
	pos := 2
	if f.WarehouseID != "" {
		query += fmt.Sprintf(" AND (m.source_warehouse_id = $%d OR m.destination_warehouse_id = $%d)", pos, pos)
		args = append(args, f.WarehouseID)
		pos++
	}
	if f.From != nil {
		query += fmt.Sprintf(" AND m.created_at >= $%d", pos)
		args = append(args, *f.From)
		pos++
	}
	if f.To != nil {
		query += fmt.Sprintf(" AND m.created_at < $%d", pos)
		args = append(args, *f.To)
	}
	query += " ORDER BY m.created_at, l.seq"

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list posted lines: %w", err)
	}
	defer rows.Close()
	var out []entity.PostedLine
	for rows.Next() {
		var (
			pl           entity.PostedLine
			src, dst     *string
			presentation *string
			movType      string
		)
		m, l := &pl.Movement, &pl.Line
		if err := rows.Scan(
			&m.ID, &movType, &src, &dst, &m.ActorID, &m.Reason, &m.Notes, &m.ReferenceType, &m.ReferenceID, &m.CreatedAt,
			&l.ID, &l.MovementID, &l.Seq, &l.ItemID, &l.Quantity, &l.Direction, &presentation, &l.PresentationQty, &l.UnitCost,
		); err != nil {
			return nil, fmt.Errorf("scan posted line: %w", err)
		}
		m.Type = entity.MovementType(movType)
		m.SourceWarehouseID, m.DestinationWarehouseID = deref(src), deref(dst)
		l.PresentationID = deref(presentation)
		out = append(out, pl)
	}
	return out, rows.Err()
}

// OpeningBalances saldo por bodega del ítem con las líneas anteriores a before.
func (r *MovementRepo) OpeningBalances(ctx context.Context, itemID, warehouseID string, before time.Time) (map[string]decimal.Decimal, error) {
	lines, err := r.ListPostedLines(ctx, repository.PostedLineFilter{ItemID: itemID, WarehouseID: warehouseID, To: &before})
	if err != nil {
		return nil, err
	}
	out := map[string]decimal.Decimal{}
	for _, pl := range lines {
		for _, eff := range pl.Movement.Effects(pl.Line) {
			if warehouseID != "" && eff.WarehouseID != warehouseID {
				continue
			}
			out[eff.WarehouseID] = out[eff.WarehouseID].Add(eff.Delta)
		}
	}
	return out, nil
}

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var (
		m        entity.Movement
		src, dst *string
		movType  string
	)
	err := row.Scan(&m.ID, &movType, &src, &dst, &m.ActorID, &m.Reason, &m.Notes,
		&m.ReferenceType, &m.ReferenceID, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	m.Type = entity.MovementType(movType)
	m.SourceWarehouseID, m.DestinationWarehouseID = deref(src), deref(dst)
	return &m, nil
}

func scanLine(row pgx.Row) (*entity.MovementLine, error) {
	var (
		l            entity.MovementLine
		presentation *string
	)
	err := row.Scan(&l.ID, &l.MovementID, &l.Seq, &l.ItemID, &l.Quantity, &l.Direction,
		&presentation, &l.PresentationQty, &l.UnitCost)
	if err != nil {
		return nil, err
	}
	l.PresentationID = deref(presentation)
	return &l, nil
}
