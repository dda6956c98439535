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

var _ repository.RequisitionRepository = (*RequisitionRepo)(nil)

const requisitionColumns = `id, requester_id, source_warehouse_id, destination_warehouse_id, state, reason, notes,
	requested_at, approved_at, approved_by, dispatched_at, dispatched_by, dispatch_notes,
	rejected_at, rejected_by, rejection_reason, cancelled_at, cancelled_by, cancellation_reason, updated_at`

// RequisitionRepo requisiciones y despachos sobre PostgreSQL (usable con pool o tx).
type RequisitionRepo struct {
	q Querier
}

// NewRequisitionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewRequisitionRepository(q Querier) *RequisitionRepo {
	return &RequisitionRepo{q: q}
}

// Create persiste cabecera y líneas.
func (r *RequisitionRepo) Create(ctx context.Context, req *entity.Requisition) error {
	query := `
		INSERT INTO requisitions (` + requisitionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`
	_, err := r.q.Exec(ctx, query,
		req.ID, req.RequesterID, req.SourceWarehouseID, req.DestinationWarehouseID, string(req.State),
		req.Reason, req.Notes, req.RequestedAt, req.ApprovedAt, req.ApprovedBy,
		req.DispatchedAt, req.DispatchedBy, req.DispatchNotes, req.RejectedAt, req.RejectedBy,
		req.RejectionReason, req.CancelledAt, req.CancelledBy, req.CancellationReason, req.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert requisition: %w", err)
	}
	lineQuery := `
		INSERT INTO requisition_lines (id, requisition_id, item_id, requested_qty, dispatched_qty,
			presentation_id, presentation_qty)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for _, l := range req.Lines {
		_, err := r.q.Exec(ctx, lineQuery,
			l.ID, req.ID, l.ItemID, l.RequestedQty, l.DispatchedQty, nullable(l.PresentationID), l.PresentationQty,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.NewValidationError("lines", "ítem repetido")
			}
			return fmt.Errorf("insert requisition line: %w", err)
		}
	}
	return nil
}

// GetByID obtiene una requisición con sus líneas.
func (r *RequisitionRepo) GetByID(ctx context.Context, id string) (*entity.Requisition, error) {
	return r.getOne(ctx, `SELECT `+requisitionColumns+` FROM requisitions WHERE id = $1`, id)
}

// GetForUpdate obtiene la requisición y bloquea la fila hasta el fin de la transacción.
func (r *RequisitionRepo) GetForUpdate(ctx context.Context, id string) (*entity.Requisition, error) {
	return r.getOne(ctx, `SELECT `+requisitionColumns+` FROM requisitions WHERE id = $1 FOR UPDATE`, id)
}

func (r *RequisitionRepo) getOne(ctx context.Context, query, id string) (*entity.Requisition, error) {
	req, err := scanRequisition(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get requisition: %w", err)
	}
	if err := r.loadLines(ctx, []*entity.Requisition{req}); err != nil {
		return nil, err
	}
	return req, nil
}

// Update persiste cabecera y cantidades despachadas. Una cantidad despachada menor que la
// almacenada devuelve domain.ErrConflict.
func (r *RequisitionRepo) Update(ctx context.Context, req *entity.Requisition) error {
	query := `
		UPDATE requisitions SET state = $2, approved_at = $3, approved_by = $4, dispatched_at = $5,
			dispatched_by = $6, dispatch_notes = $7, rejected_at = $8, rejected_by = $9, rejection_reason = $10,
			cancelled_at = $11, cancelled_by = $12, cancellation_reason = $13, updated_at = $14
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		req.ID, string(req.State), req.ApprovedAt, req.ApprovedBy, req.DispatchedAt,
		req.DispatchedBy, req.DispatchNotes, req.RejectedAt, req.RejectedBy, req.RejectionReason,
		req.CancelledAt, req.CancelledBy, req.CancellationReason, req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update requisition: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	lineQuery := `
		UPDATE requisition_lines SET dispatched_qty = $3
		WHERE id = $1 AND requisition_id = $2 AND dispatched_qty <= $3 AND requested_qty >= $3`
	for _, l := range req.Lines {
		cmd, err := r.q.Exec(ctx, lineQuery, l.ID, req.ID, l.DispatchedQty)
		if err != nil {
			return fmt.Errorf("update requisition line: %w", err)
		}
		if cmd.RowsAffected() == 0 {
			return fmt.Errorf("línea %s: %w", l.ID, domain.ErrConflict)
		}
	}
	return nil
}

// List requisiciones filtradas, las más recientes primero.
func (r *RequisitionRepo) List(ctx context.Context, f repository.RequisitionFilter) ([]*entity.Requisition, error) {
	where, args := requisitionWhere(f)
	query := `SELECT ` + requisitionColumns + ` FROM requisitions` + where + " ORDER BY requested_at DESC, id"
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list requisitions: %w", err)
	}
	var list []*entity.Requisition
	for rows.Next() {
		req, err := scanRequisition(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan requisition: %w", err)
		}
		list = append(list, req)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadLines(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *RequisitionRepo) Count(ctx context.Context, f repository.RequisitionFilter) (int, error) {
	where, args := requisitionWhere(f)
	var n int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM requisitions`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count requisitions: %w", err)
	}
	return n, nil
}

func requisitionWhere(f repository.RequisitionFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.State != "" {
		add("state = $%d", string(f.State))
	}
	if f.RequesterID != "" {
		add("requester_id = $%d", f.RequesterID)
	}
	if f.SourceWarehouseID != "" {
		add("source_warehouse_id = $%d", f.SourceWarehouseID)
	}
	if f.DestinationWarehouseID != "" {
		add("destination_warehouse_id = $%d", f.DestinationWarehouseID)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *RequisitionRepo) loadLines(ctx context.Context, list []*entity.Requisition) error {
	if len(list) == 0 {
		return nil
	}
	byID := make(map[string]*entity.Requisition, len(list))
	ids := make([]string, 0, len(list))
	for _, req := range list {
		byID[req.ID] = req
		ids = append(ids, req.ID)
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, requisition_id, item_id, requested_qty, dispatched_qty, presentation_id, presentation_qty
		FROM requisition_lines WHERE requisition_id::text = ANY($1::text[])
		ORDER BY requisition_id, item_id`, ids)
	if err != nil {
		return fmt.Errorf("list requisition lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			l            entity.RequisitionLine
			presentation *string
		)
		if err := rows.Scan(&l.ID, &l.RequisitionID, &l.ItemID, &l.RequestedQty, &l.DispatchedQty,
			&presentation, &l.PresentationQty); err != nil {
			return fmt.Errorf("scan requisition line: %w", err)
		}
		l.PresentationID = deref(presentation)
		if req, ok := byID[l.RequisitionID]; ok {
			req.Lines = append(req.Lines, l)
		}
	}
	return rows.Err()
}

// CreateDispatch persiste el despacho y sus líneas, sin movimiento asociado todavía.
func (r *RequisitionRepo) CreateDispatch(ctx context.Context, d *entity.RequisitionDispatch) error {
	query := `
		INSERT INTO requisition_dispatches (id, requisition_id, dispatcher_id, dispatched_at, notes, movement_id)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query, d.ID, d.RequisitionID, d.DispatcherID, d.DispatchedAt, d.Notes, nullable(d.MovementID))
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return domain.ErrDuplicate
		case isForeignKeyViolation(err):
			return fmt.Errorf("requisición %s: %w", d.RequisitionID, domain.ErrNotFound)
		}
		return fmt.Errorf("insert dispatch: %w", err)
	}
	lineQuery := `
		INSERT INTO dispatch_lines (id, dispatch_id, requisition_line_id, item_id, quantity,
			presentation_id, presentation_qty)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for _, l := range d.Lines {
		_, err := r.q.Exec(ctx, lineQuery,
			l.ID, d.ID, l.RequisitionLineID, l.ItemID, l.Quantity, nullable(l.PresentationID), l.PresentationQty,
		)
		if err != nil {
			return fmt.Errorf("insert dispatch line: %w", err)
		}
	}
	return nil
}

// GetDispatch obtiene un despacho con sus líneas.
func (r *RequisitionRepo) GetDispatch(ctx context.Context, id string) (*entity.RequisitionDispatch, error) {
	list, err := r.listDispatches(ctx, `WHERE d.id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// SetDispatchMovement enlaza el despacho con la transferencia registrada.
func (r *RequisitionRepo) SetDispatchMovement(ctx context.Context, dispatchID, movementID string) error {
	cmd, err := r.q.Exec(ctx, `UPDATE requisition_dispatches SET movement_id = $2 WHERE id = $1`, dispatchID, movementID)
	if err != nil {
		return fmt.Errorf("set dispatch movement: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListUnreconciledDispatches despachos sin movimiento con referencia DESPACHO/<id>.
func (r *RequisitionRepo) ListUnreconciledDispatches(ctx context.Context) ([]*entity.RequisitionDispatch, error) {
	return r.listDispatches(ctx, `
		WHERE NOT EXISTS (
			SELECT 1 FROM movements m
			WHERE m.reference_type = $1 AND m.reference_id = d.id::text
		)`, entity.ReferenceTypeDispatch)
}

func (r *RequisitionRepo) listDispatches(ctx context.Context, where string, args ...any) ([]*entity.RequisitionDispatch, error) {
	rows, err := r.q.Query(ctx, `
		SELECT d.id, d.requisition_id, d.dispatcher_id, d.dispatched_at, d.notes, d.movement_id
		FROM requisition_dispatches d `+where+`
		ORDER BY d.dispatched_at, d.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list dispatches: %w", err)
	}
	var (
		list []*entity.RequisitionDispatch
		byID = map[string]*entity.RequisitionDispatch{}
		ids  []string
	)
	for rows.Next() {
		var (
			d        entity.RequisitionDispatch
			movement *string
		)
		if err := rows.Scan(&d.ID, &d.RequisitionID, &d.DispatcherID, &d.DispatchedAt, &d.Notes, &movement); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan dispatch: %w", err)
		}
		d.MovementID = deref(movement)
		list = append(list, &d)
		byID[d.ID] = &d
		ids = append(ids, d.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return list, nil
	}

	lineRows, err := r.q.Query(ctx, `
		SELECT id, dispatch_id, requisition_line_id, item_id, quantity, presentation_id, presentation_qty
		FROM dispatch_lines WHERE dispatch_id::text = ANY($1::text[])
		ORDER BY dispatch_id, item_id`, ids)
	if err != nil {
		return nil, fmt.Errorf("list dispatch lines: %w", err)
	}
	defer lineRows.Close()
	for lineRows.Next() {
		var (
			l            entity.DispatchLine
			presentation *string
		)
		if err := lineRows.Scan(&l.ID, &l.DispatchID, &l.RequisitionLineID, &l.ItemID, &l.Quantity,
			&presentation, &l.PresentationQty); err != nil {
			return nil, fmt.Errorf("scan dispatch line: %w", err)
		}
		l.PresentationID = deref(presentation)
		if d, ok := byID[l.DispatchID]; ok {
			d.Lines = append(d.Lines, l)
		}
	}
	return list, lineRows.Err()
}

func scanRequisition(row pgx.Row) (*entity.Requisition, error) {
	var (
		req   entity.Requisition
		state string
	)
	err := row.Scan(
		&req.ID, &req.RequesterID, &req.SourceWarehouseID, &req.DestinationWarehouseID, &state,
		&req.Reason, &req.Notes, &req.RequestedAt, &req.ApprovedAt, &req.ApprovedBy,
		&req.DispatchedAt, &req.DispatchedBy, &req.DispatchNotes, &req.RejectedAt, &req.RejectedBy,
		&req.RejectionReason, &req.CancelledAt, &req.CancelledBy, &req.CancellationReason, &req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	req.State = entity.RequisitionState(state)
	return &req, nil
}
