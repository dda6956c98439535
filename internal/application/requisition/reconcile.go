package requisition

import (
	"context"
	"errors"
	"fmt"

	"github.com/jhoicas/bodegas-api/internal/domain"
	"github.com/jhoicas/bodegas-api/internal/domain/entity"
)

// PendingTransfers despachos registrados cuya transferencia no existe.
func (w *Workflow) PendingTransfers(ctx context.Context) ([]*entity.RequisitionDispatch, error) {
	return w.requisitions.ListUnreconciledDispatches(ctx)
}

// RetryTransfer vuelve a contabilizar la transferencia de un despacho. Si ya existe un
// movimiento con la referencia del despacho solo se enlaza; nunca se contabiliza dos veces.
func (w *Workflow) RetryTransfer(ctx context.Context, dispatchID string) (*entity.Movement, error) {
	d, err := w.requisitions.GetDispatch(ctx, dispatchID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("despacho %s: %w", dispatchID, domain.ErrNotFound)
	}
	release, err := w.lock(ctx, d.RequisitionID)
	if err != nil {
		return nil, err
	}
	defer release()

	existing, err := w.movements.FindByReference(ctx, entity.ReferenceTypeDispatch, d.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		w.linkMovement(ctx, d.ID, existing.ID)
		return existing, nil
	}
	req, err := w.requisitions.GetByID(ctx, d.RequisitionID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("requisición %s: %w", d.RequisitionID, domain.ErrNotFound)
	}
	mov, err := w.postTransfer(ctx, req, d)
	if errors.Is(err, domain.ErrDuplicate) {
		// otro proceso la registró entre la consulta y el intento
		found, ferr := w.movements.FindByReference(ctx, entity.ReferenceTypeDispatch, d.ID)
		if ferr == nil && found != nil {
			w.linkMovement(ctx, d.ID, found.ID)
			return found, nil
		}
	}
	if err != nil {
		return nil, err
	}
	w.linkMovement(ctx, d.ID, mov.ID)
	w.metrics.TransferReconciled()
	w.log.Info().
		Str("requisition_id", req.ID).
		Str("dispatch_id", d.ID).
		Str("movement_id", mov.ID).
		Msg("transferencia de despacho conciliada")
	return mov, nil
}

// ReconcileReport resultado de conciliar todos los despachos pendientes.
type ReconcileReport struct {
	Reconciled map[string]string // dispatch_id → movement_id
	Failed     map[string]error
}

// ReconcileAll reintenta cada despacho sin transferencia. Los fallos no detienen el recorrido.
func (w *Workflow) ReconcileAll(ctx context.Context) (*ReconcileReport, error) {
	pending, err := w.PendingTransfers(ctx)
	if err != nil {
		return nil, err
	}
	report := &ReconcileReport{
		Reconciled: make(map[string]string, len(pending)),
		Failed:     make(map[string]error),
	}
	for _, d := range pending {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		mov, err := w.RetryTransfer(ctx, d.ID)
		if err != nil {
			report.Failed[d.ID] = err
			w.log.Warn().Err(err).Str("dispatch_id", d.ID).Msg("no se pudo conciliar el despacho")
			continue
		}
		report.Reconciled[d.ID] = mov.ID
	}
	return report, nil
}
