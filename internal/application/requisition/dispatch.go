package requisition

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jhoicas/bodegas-api/internal/application/inventory"
	"github.com/jhoicas/bodegas-api/internal/domain"
	"github.com/jhoicas/bodegas-api/internal/domain/entity"
	domaininv "github.com/jhoicas/bodegas-api/internal/domain/inventory"
	"github.com/jhoicas/bodegas-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// DispatchInput entrada para despachar una requisición (total o parcialmente).
type DispatchInput struct {
	RequisitionID string
	DispatcherID  string
	Notes         string
	Lines         []LineInput
}

// DispatchResult resultado de un despacho registrado. Warning no es nil cuando las cantidades
// despachadas quedaron registradas pero la transferencia falló; en ese caso MovementID está vacío
// y el despacho queda pendiente de conciliación.
type DispatchResult struct {
	Requisition *entity.Requisition
	DispatchID  string
	MovementID  string
	Warning     error
}

// Dispatch registra las cantidades despachadas y luego contabiliza la Transferencia
// origen → destino con exactamente las líneas de este despacho.
//
// Son dos transacciones: si la segunda falla, la primera no se revierte y el resultado
// lleva un *domain.DispatchRecordedMovementFailedError como advertencia.
func (w *Workflow) Dispatch(ctx context.Context, in DispatchInput) (*DispatchResult, error) {
	dispatcher := strings.TrimSpace(in.DispatcherID)
	if dispatcher == "" {
		return nil, domain.NewValidationError("dispatcher_id", "es requerido")
	}
	if len(in.Lines) == 0 {
		return nil, domain.NewValidationError("lines", "se requiere al menos una línea")
	}
	lines, err := w.resolveLines(ctx, in.Lines)
	if err != nil {
		return nil, err
	}
	release, err := w.lock(ctx, in.RequisitionID)
	if err != nil {
		return nil, err
	}
	defer release()

	current, err := w.requisitions.GetByID(ctx, in.RequisitionID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("requisición %s: %w", in.RequisitionID, domain.ErrNotFound)
	}
	if current.State.Dispatchable() {
		if err := w.checkWarehouses(ctx, current.SourceWarehouseID, current.DestinationWarehouseID); err != nil {
			return nil, err
		}
	}

	var (
		req      *entity.Requisition
		dispatch *entity.RequisitionDispatch
	)
	err = w.txRunner.RunRequisition(ctx, func(reqRepo repository.RequisitionRepository, stockRepo repository.StockRepository) error {
		r, err := reqRepo.GetForUpdate(ctx, in.RequisitionID)
		if err != nil {
			return err
		}
		if r == nil {
			return fmt.Errorf("requisición %s: %w", in.RequisitionID, domain.ErrNotFound)
		}
		if !r.State.Dispatchable() {
			return &domain.InvalidStateError{Current: string(r.State), Action: "despachar"}
		}

		idx := make([]int, len(lines))
		for i, l := range lines {
			j := r.LineByItem(l.itemID)
			if j < 0 {
				return domain.NewValidationError(fmt.Sprintf("lines[%d].item_id", i), "el ítem no pertenece a la requisición")
			}
			if l.qty.GreaterThan(r.Lines[j].Pending()) {
				return &domain.ExceedsPendingError{
					ItemID:     l.itemID,
					Requested:  r.Lines[j].RequestedQty,
					Dispatched: r.Lines[j].DispatchedQty,
					Attempted:  l.qty,
				}
			}
			idx[i] = j
		}

		required := make(map[entity.StockKey]decimal.Decimal, len(lines))
		for _, l := range lines {
			required[entity.StockKey{ItemID: l.itemID, WarehouseID: r.SourceWarehouseID}] = l.qty
		}
		shortfalls, err := domaininv.NewStockLedger(stockRepo).Shortfalls(ctx, required)
		if err != nil {
			return err
		}
		if len(shortfalls) > 0 {
			return &domain.InsufficientStockError{Shortfalls: shortfalls}
		}

		hadDispatches := r.TotalDispatched().IsPositive()
		now := w.now()
		d := &entity.RequisitionDispatch{
			ID:            uuid.New().String(),
			RequisitionID: r.ID,
			DispatcherID:  dispatcher,
			DispatchedAt:  now,
			Notes:         in.Notes,
			Lines:         make([]entity.DispatchLine, 0, len(lines)),
		}
		for i, l := range lines {
			j := idx[i]
			r.Lines[j].DispatchedQty = r.Lines[j].DispatchedQty.Add(l.qty)
			d.Lines = append(d.Lines, entity.DispatchLine{
				ID:                uuid.New().String(),
				DispatchID:        d.ID,
				RequisitionLineID: r.Lines[j].ID,
				ItemID:            l.itemID,
				Quantity:          l.qty,
				PresentationID:    l.presentationID,
				PresentationQty:   l.presentationQty,
			})
		}
		r.State = nextDispatchState(r, hadDispatches)
		r.DispatchedAt = &now
		r.DispatchedBy = dispatcher
		r.DispatchNotes = in.Notes
		r.UpdatedAt = now
		if err := reqRepo.Update(ctx, r); err != nil {
			return err
		}
		if err := reqRepo.CreateDispatch(ctx, d); err != nil {
			return err
		}
		req, dispatch = r, d
		return nil
	})
	if err != nil {
		return nil, err
	}
	w.metrics.DispatchRecorded(string(req.State))

	result := &DispatchResult{Requisition: req, DispatchID: dispatch.ID}
	mov, err := w.postTransfer(ctx, req, dispatch)
	if err != nil {
		result.Warning = &domain.DispatchRecordedMovementFailedError{
			RequisitionID: req.ID,
			DispatchID:    dispatch.ID,
			Cause:         err,
		}
		w.metrics.DispatchTransferFailed()
		w.log.Warn().
			Err(err).
			Str("requisition_id", req.ID).
			Str("dispatch_id", dispatch.ID).
			Str("state", string(req.State)).
			Msg("despacho registrado sin transferencia; pendiente de conciliación")
		return result, nil
	}
	result.MovementID = mov.ID
	w.linkMovement(ctx, dispatch.ID, mov.ID)
	w.log.Info().
		Str("requisition_id", req.ID).
		Str("dispatch_id", dispatch.ID).
		Str("movement_id", mov.ID).
		Str("state", string(req.State)).
		Msg("requisición despachada")
	return result, nil
}

// nextDispatchState Completado si no queda nada pendiente; En_Despacho si es el primer
// despacho parcial; Parcialmente_Despachado en los siguientes.
func nextDispatchState(r *entity.Requisition, hadDispatches bool) entity.RequisitionState {
	if r.TotalPending().IsZero() {
		return entity.RequisitionCompletado
	}
	if !hadDispatches {
		return entity.RequisitionEnDespacho
	}
	return entity.RequisitionParcialmenteDespachado
}

func (w *Workflow) postTransfer(ctx context.Context, r *entity.Requisition, d *entity.RequisitionDispatch) (*entity.Movement, error) {
	in := inventory.MovementInput{
		Type:                   string(entity.MovementTypeTransferencia),
		SourceWarehouseID:      r.SourceWarehouseID,
		DestinationWarehouseID: r.DestinationWarehouseID,
		ActorID:                d.DispatcherID,
		Reason:                 "Despacho de requisición " + r.ID,
		Notes:                  d.Notes,
		ReferenceType:          entity.ReferenceTypeDispatch,
		ReferenceID:            d.ID,
		Lines:                  make([]inventory.MovementLineInput, 0, len(d.Lines)),
	}
	for _, l := range d.Lines {
		in.Lines = append(in.Lines, inventory.MovementLineInput{ItemID: l.ItemID, Quantity: l.Quantity})
	}
	return w.movements.Post(ctx, in)
}

func (w *Workflow) linkMovement(ctx context.Context, dispatchID, movementID string) {
	if err := w.requisitions.SetDispatchMovement(ctx, dispatchID, movementID); err != nil {
		w.log.Warn().Err(err).Str("dispatch_id", dispatchID).Str("movement_id", movementID).
			Msg("no se pudo enlazar el movimiento al despacho")
	}
}

func (w *Workflow) lock(ctx context.Context, requisitionID string) (func(), error) {
	if w.locker == nil {
		return func() {}, nil
	}
	return w.locker.Acquire(ctx, "lock:requisicion:"+requisitionID)
}
