package requisition_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/bodegas-api/internal/application/requisition"
	"github.com/jhoicas/bodegas-api/internal/domain"
	"github.com/jhoicas/bodegas-api/internal/domain/entity"
)

func TestDispatch_ParcialLuegoCompleto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stockIn(t, f.src, f.item, 100)
	r := f.approved(t, 100)

	res, err := f.dispatch(ctx, r.ID, 40)
	require.NoError(t, err)
	require.NoError(t, res.Warning)
	assert.Equal(t, entity.RequisitionEnDespacho, res.Requisition.State)
	assert.Equal(t, "40", res.Requisition.Lines[0].DispatchedQty.String())
	assert.NotEmpty(t, res.MovementID)
	assert.Equal(t, "60", f.qty(t, f.item, f.src))
	assert.Equal(t, "40", f.qty(t, f.item, f.dst))

	mov, err := f.proc.GetByID(ctx, res.MovementID)
	require.NoError(t, err)
	require.NotNil(t, mov)
	assert.Equal(t, entity.MovementTypeTransferencia, mov.Type)
	assert.Equal(t, entity.ReferenceTypeDispatch, mov.ReferenceType)
	assert.Equal(t, res.DispatchID, mov.ReferenceID)

	res, err = f.dispatch(ctx, r.ID, 60)
	require.NoError(t, err)
	assert.Equal(t, entity.RequisitionCompletado, res.Requisition.State)
	assert.True(t, res.Requisition.TotalPending().IsZero())
	assert.Equal(t, "0", f.qty(t, f.item, f.src))
	assert.Equal(t, "100", f.qty(t, f.item, f.dst))

	_, err = f.dispatch(ctx, r.ID, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	assert.Equal(t, 1, f.metrics.dispatches[string(entity.RequisitionEnDespacho)])
	assert.Equal(t, 1, f.metrics.dispatches[string(entity.RequisitionCompletado)])
}

func TestDispatch_SegundoParcial_ParcialmenteDespachado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stockIn(t, f.src, f.item, 100)
	r := f.approved(t, 100)

	_, err := f.dispatch(ctx, r.ID, 10)
	require.NoError(t, err)
	res, err := f.dispatch(ctx, r.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, entity.RequisitionParcialmenteDespachado, res.Requisition.State)
	assert.Equal(t, "80", res.Requisition.TotalPending().String())
}

func TestDispatch_SinAprobar_EstadoInvalido(t *testing.T) {
	f := newFixture(t)
	f.stockIn(t, f.src, f.item, 100)
	r := f.pending(t, 10)

	_, err := f.dispatch(context.Background(), r.ID, 5)
	var serr *domain.InvalidStateError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "despachar", serr.Action)
	assert.Equal(t, "100", f.qty(t, f.item, f.src))
}

func TestDispatch_ExcedePendiente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stockIn(t, f.src, f.item, 100)
	r := f.approved(t, 100)
	_, err := f.dispatch(ctx, r.ID, 40)
	require.NoError(t, err)

	_, err = f.dispatch(ctx, r.ID, 61)
	var perr *domain.ExceedsPendingError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "40", perr.Dispatched.String())
	assert.Equal(t, "61", perr.Attempted.String())

	stored, err := f.workflow.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "40", stored.Lines[0].DispatchedQty.String(), "el intento rechazado no altera la requisición")
	assert.Equal(t, "60", f.qty(t, f.item, f.src))
}

func TestDispatch_StockInsuficienteEnOrigen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stockIn(t, f.src, f.item, 5)
	r := f.approved(t, 10)

	_, err := f.dispatch(ctx, r.ID, 8)
	var serr *domain.InsufficientStockError
	require.True(t, errors.As(err, &serr))
	require.Len(t, serr.Shortfalls, 1)
	assert.Equal(t, f.src, serr.Shortfalls[0].WarehouseID)
	assert.Equal(t, "5", serr.Shortfalls[0].Available.String())

	stored, err := f.workflow.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RequisitionAprobado, stored.State)
	assert.True(t, stored.TotalDispatched().IsZero())

	pending, err := f.workflow.PendingTransfers(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending, "no se registra despacho")
}

func TestDispatch_ItemAjenoALaRequisicion(t *testing.T) {
	f := newFixture(t)
	other := f.newItem(t, "OTRO")
	f.stockIn(t, f.src, other, 10)
	r := f.approved(t, 10)

	_, err := f.workflow.Dispatch(context.Background(), requisition.DispatchInput{
		RequisitionID: r.ID,
		DispatcherID:  dispatcher,
		Lines:         []requisition.LineInput{{ItemID: other, Quantity: decimal.NewFromInt(1)}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDispatch_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.approved(t, 10)

	_, err := f.workflow.Dispatch(ctx, requisition.DispatchInput{RequisitionID: r.ID,
		Lines: []requisition.LineInput{{ItemID: f.item, Quantity: decimal.NewFromInt(1)}}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "sin despachador")

	_, err = f.workflow.Dispatch(ctx, requisition.DispatchInput{RequisitionID: r.ID, DispatcherID: dispatcher})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "sin líneas")

	_, err = f.dispatch(ctx, "no-existe", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDispatch_UsaCandadoPorRequisicion(t *testing.T) {
	f := newFixture(t)
	f.stockIn(t, f.src, f.item, 10)
	r := f.approved(t, 10)

	_, err := f.dispatch(context.Background(), r.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"lock:requisicion:" + r.ID}, f.locker.keys)
	assert.Equal(t, 1, f.locker.released)
}

func TestDispatch_CandadoOcupado_Conflicto(t *testing.T) {
	f := newFixture(t)
	f.stockIn(t, f.src, f.item, 10)
	r := f.approved(t, 10)
	f.locker.err = domain.ErrConflict

	_, err := f.dispatch(context.Background(), r.ID, 3)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, "10", f.qty(t, f.item, f.src))
}

func TestDispatch_Concurrente_NoSuperaLoSolicitado(t *testing.T) {
	f := newFixture(t)
	f.stockIn(t, f.src, f.item, 100)
	r := f.approved(t, 10)

	var ok atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.dispatch(context.Background(), r.ID, 1); err == nil {
				ok.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(10), ok.Load())
	assert.Equal(t, "90", f.qty(t, f.item, f.src))
	assert.Equal(t, "10", f.qty(t, f.item, f.dst))
}

func TestDispatch_FallaTransferencia_DevuelveAdvertencia(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stockIn(t, f.src, f.item, 100)
	r := f.approved(t, 100)
	f.poster.setFail(true)

	res, err := f.dispatch(ctx, r.ID, 40)
	require.NoError(t, err)
	require.Error(t, res.Warning)
	assert.ErrorIs(t, res.Warning, domain.ErrDispatchRecordedMovementFailed)
	assert.ErrorIs(t, res.Warning, errPosting)
	assert.Empty(t, res.MovementID)
	assert.Equal(t, entity.RequisitionEnDespacho, res.Requisition.State)
	assert.Equal(t, 1, f.metrics.failed)

	assert.Equal(t, "100", f.qty(t, f.item, f.src), "el stock no se movió")

	pending, err := f.workflow.PendingTransfers(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, res.DispatchID, pending[0].ID)
	assert.Equal(t, "40", pending[0].Lines[0].Quantity.String())
}
