package requisition

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/bodegas-api/internal/application/ports"
	"github.com/jhoicas/bodegas-api/internal/domain"
	"github.com/jhoicas/bodegas-api/internal/domain/entity"
	domaininv "github.com/jhoicas/bodegas-api/internal/domain/inventory"
	"github.com/jhoicas/bodegas-api/internal/domain/repository"
	"github.com/jhoicas/bodegas-api/pkg/logger"
	"github.com/shopspring/decimal"
)

// WorkflowDeps dependencias del flujo de requisiciones. Locker, Metrics y Logger son opcionales.
type WorkflowDeps struct {
	TxRunner     TxRunner
	Requisitions repository.RequisitionRepository
	Items        repository.ItemRepository
	Warehouses   repository.WarehouseRepository
	Resolver     QuantityResolver
	Movements    MovementPoster
	Locker       ports.Locker
	Metrics      ports.Metrics
	Logger       *logger.Logger
}

// Workflow máquina de estados de la requisición:
// Pendiente → Aprobado → {En_Despacho, Parcialmente_Despachado} → Completado,
// con salidas Rechazado (desde Pendiente) y Cancelado (desde Pendiente o Aprobado).
type Workflow struct {
	txRunner     TxRunner
	requisitions repository.RequisitionRepository
	items        repository.ItemRepository
	warehouses   repository.WarehouseRepository
	resolver     QuantityResolver
	movements    MovementPoster
	locker       ports.Locker
	metrics      ports.Metrics
	log          *logger.Logger
	now          func() time.Time
}

// NewWorkflow construye el caso de uso.
func NewWorkflow(deps WorkflowDeps) *Workflow {
	w := &Workflow{
		txRunner:     deps.TxRunner,
		requisitions: deps.Requisitions,
		items:        deps.Items,
		warehouses:   deps.Warehouses,
		resolver:     deps.Resolver,
		movements:    deps.Movements,
		locker:       deps.Locker,
		metrics:      deps.Metrics,
		log:          deps.Logger,
		now:          time.Now,
	}
	if w.metrics == nil {
		w.metrics = ports.NopMetrics{}
	}
	if w.log == nil {
		w.log = logger.Nop()
	}
	return w
}

// LineInput cantidad en unidad base o PresentationID + PresentationQty.
type LineInput struct {
	ItemID          string
	Quantity        decimal.Decimal
	PresentationID  string
	PresentationQty decimal.Decimal
}

// CreateInput entrada para crear una requisición.
type CreateInput struct {
	RequesterID            string
	SourceWarehouseID      string
	DestinationWarehouseID string
	Reason                 string
	Notes                  string
	Lines                  []LineInput
}

type resolvedLine struct {
	itemID          string
	qty             decimal.Decimal
	presentationID  string
	presentationQty decimal.Decimal
}

// Create registra una requisición en estado Pendiente.
func (w *Workflow) Create(ctx context.Context, in CreateInput) (*entity.Requisition, error) {
	requester := strings.TrimSpace(in.RequesterID)
	src := strings.TrimSpace(in.SourceWarehouseID)
	dst := strings.TrimSpace(in.DestinationWarehouseID)
	if requester == "" {
		return nil, domain.NewValidationError("requester_id", "es requerido")
	}
	if src == "" || dst == "" {
		return nil, domain.NewValidationError("warehouses", "se requieren bodega origen y destino")
	}
	if src == dst {
		return nil, domain.NewValidationError("destination_warehouse_id", "origen y destino deben ser distintos")
	}
	if len(in.Lines) == 0 {
		return nil, domain.NewValidationError("lines", "se requiere al menos una línea")
	}
	if err := w.checkWarehouses(ctx, src, dst); err != nil {
		return nil, err
	}
	lines, err := w.resolveLines(ctx, in.Lines)
	if err != nil {
		return nil, err
	}

	now := w.now()
	req := &entity.Requisition{
		ID:                     uuid.New().String(),
		RequesterID:            requester,
		SourceWarehouseID:      src,
		DestinationWarehouseID: dst,
		State:                  entity.RequisitionPendiente,
		Reason:                 strings.TrimSpace(in.Reason),
		Notes:                  in.Notes,
		RequestedAt:            now,
		UpdatedAt:              now,
		Lines:                  make([]entity.RequisitionLine, 0, len(lines)),
	}
	for _, l := range lines {
		req.Lines = append(req.Lines, entity.RequisitionLine{
			ID:              uuid.New().String(),
			RequisitionID:   req.ID,
			ItemID:          l.itemID,
			RequestedQty:    l.qty,
			DispatchedQty:   decimal.Zero,
			PresentationID:  l.presentationID,
			PresentationQty: l.presentationQty,
		})
	}
	err = w.txRunner.RunRequisition(ctx, func(reqRepo repository.RequisitionRepository, _ repository.StockRepository) error {
		return reqRepo.Create(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	w.log.Info().
		Str("requisition_id", req.ID).
		Str("requester_id", requester).
		Int("lines", len(req.Lines)).
		Msg("requisición creada")
	return req, nil
}

// Approve Pendiente → Aprobado.
func (w *Workflow) Approve(ctx context.Context, id, approverID string) (*entity.Requisition, error) {
	if strings.TrimSpace(approverID) == "" {
		return nil, domain.NewValidationError("approver_id", "es requerido")
	}
	return w.transition(ctx, id, "aprobar", func(r *entity.Requisition, now time.Time) error {
		if r.State != entity.RequisitionPendiente {
			return &domain.InvalidStateError{Current: string(r.State), Action: "aprobar"}
		}
		r.State = entity.RequisitionAprobado
		r.ApprovedAt = &now
		r.ApprovedBy = approverID
		return nil
	})
}

// Reject Pendiente → Rechazado. El motivo es obligatorio.
func (w *Workflow) Reject(ctx context.Context, id, approverID, reason string) (*entity.Requisition, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.NewValidationError("reason", "el motivo del rechazo es obligatorio")
	}
	return w.transition(ctx, id, "rechazar", func(r *entity.Requisition, now time.Time) error {
		if r.State != entity.RequisitionPendiente {
			return &domain.InvalidStateError{Current: string(r.State), Action: "rechazar"}
		}
		r.State = entity.RequisitionRechazado
		r.RejectedAt = &now
		r.RejectedBy = approverID
		r.RejectionReason = reason
		return nil
	})
}

// Cancel Pendiente|Aprobado → Cancelado. El motivo es obligatorio.
func (w *Workflow) Cancel(ctx context.Context, id, actorID, reason string) (*entity.Requisition, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.NewValidationError("reason", "el motivo de la cancelación es obligatorio")
	}
	return w.transition(ctx, id, "cancelar", func(r *entity.Requisition, now time.Time) error {
		if !r.State.Cancellable() {
			return &domain.InvalidStateError{Current: string(r.State), Action: "cancelar"}
		}
		r.State = entity.RequisitionCancelado
		r.CancelledAt = &now
		r.CancelledBy = actorID
		r.CancellationReason = reason
		return nil
	})
}

// Get obtiene una requisición; nil si no existe.
func (w *Workflow) Get(ctx context.Context, id string) (*entity.Requisition, error) {
	return w.requisitions.GetByID(ctx, id)
}

// List lista requisiciones con filtros y paginación.
func (w *Workflow) List(ctx context.Context, filter repository.RequisitionFilter) ([]*entity.Requisition, error) {
	return w.requisitions.List(ctx, filter)
}

// Count total de requisiciones que cumplen el filtro, sin paginar.
func (w *Workflow) Count(ctx context.Context, filter repository.RequisitionFilter) (int, error) {
	return w.requisitions.Count(ctx, filter)
}

func (w *Workflow) transition(ctx context.Context, id, action string, fn func(r *entity.Requisition, now time.Time) error) (*entity.Requisition, error) {
	var out *entity.Requisition
	err := w.txRunner.RunRequisition(ctx, func(reqRepo repository.RequisitionRepository, _ repository.StockRepository) error {
		r, err := reqRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if r == nil {
			return fmt.Errorf("requisición %s: %w", id, domain.ErrNotFound)
		}
		now := w.now()
		if err := fn(r, now); err != nil {
			return err
		}
		r.UpdatedAt = now
		if err := reqRepo.Update(ctx, r); err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	w.log.Info().
		Str("requisition_id", id).
		Str("action", action).
		Str("state", string(out.State)).
		Msg("requisición actualizada")
	return out, nil
}

func (w *Workflow) checkWarehouses(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		wh, err := w.warehouses.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if wh == nil {
			return fmt.Errorf("bodega %s: %w", id, domain.ErrNotFound)
		}
		if !wh.Active {
			return domain.NewValidationError("warehouse", fmt.Sprintf("la bodega %s está inactiva", id))
		}
	}
	return nil
}

// resolveLines valida ítems (existentes, activos, sin repetir) y convierte a unidad base.
func (w *Workflow) resolveLines(ctx context.Context, inputs []LineInput) ([]resolvedLine, error) {
	seen := make(map[string]bool, len(inputs))
	out := make([]resolvedLine, 0, len(inputs))
	for i, l := range inputs {
		field := fmt.Sprintf("lines[%d]", i)
		itemID := strings.TrimSpace(l.ItemID)
		if itemID == "" {
			return nil, domain.NewValidationError(field+".item_id", "es requerido")
		}
		if seen[itemID] {
			return nil, domain.NewValidationError(field+".item_id", "ítem repetido")
		}
		seen[itemID] = true
		item, err := w.items.GetByID(ctx, itemID)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, fmt.Errorf("ítem %s: %w", itemID, domain.ErrNotFound)
		}
		if !item.Active {
			return nil, domain.NewValidationError(field+".item_id", "el ítem está inactivo")
		}
		if err := domaininv.CheckLineScale(field, l.Quantity, l.PresentationQty); err != nil {
			return nil, err
		}
		qty, err := w.resolver.Resolve(ctx, itemID, l.PresentationID, l.PresentationQty, l.Quantity)
		if err != nil {
			return nil, err
		}
		if !qty.IsPositive() {
			return nil, domain.NewValidationError(field+".quantity", "debe ser mayor que cero")
		}
		out = append(out, resolvedLine{
			itemID:          itemID,
			qty:             qty,
			presentationID:  l.PresentationID,
			presentationQty: l.PresentationQty,
		})
	}
	return out, nil
}
