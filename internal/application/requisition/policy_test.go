package requisition_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/bodegas-api/internal/application/dto"
	"github.com/jhoicas/bodegas-api/internal/application/requisition"
	"github.com/jhoicas/bodegas-api/internal/domain"
	"github.com/jhoicas/bodegas-api/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// RolePolicy
// ──────────────────────────────────────────────────────────────────────────────

func TestKnownRole(t *testing.T) {
	for _, r := range []string{"admin", "aprobador", "bodeguero", "solicitante"} {
		assert.True(t, requisition.KnownRole(r), r)
	}
	assert.False(t, requisition.KnownRole("Admin"))
	assert.False(t, requisition.KnownRole(""))
}

func TestCanView_SolicitanteSoloLasPropias(t *testing.T) {
	r := &entity.Requisition{ID: "r1", RequesterID: requester}

	assert.True(t, requisition.CanView(requisition.Actor{ID: requester, Role: requisition.RoleRequester}, r))
	assert.False(t, requisition.CanView(requisition.Actor{ID: "otro", Role: requisition.RoleRequester}, r))
	assert.True(t, requisition.CanView(requisition.Actor{ID: approver, Role: requisition.RoleApprover}, r))
	assert.True(t, requisition.CanView(requisition.Actor{ID: "bod", Role: requisition.RoleWarehouse}, r))
	assert.False(t, requisition.CanView(requisition.Actor{}, r))
	assert.False(t, requisition.CanView(requisition.Actor{ID: requester, Role: requisition.RoleRequester}, nil))
}

func TestRolePolicy_CapacidadesPorRol(t *testing.T) {
	f := newFixture(t)
	policy := requisition.NewRolePolicy(f.store.Warehouses())
	r := &entity.Requisition{ID: "r1", RequesterID: requester, SourceWarehouseID: f.src, DestinationWarehouseID: f.dst}

	cases := []struct {
		name  string
		actor requisition.Actor
		want  requisition.Capabilities
	}{
		{"admin", requisition.Actor{ID: "adm", Role: requisition.RoleAdmin},
			requisition.Capabilities{Approve: true, Reject: true, Dispatch: true, Cancel: true}},
		{"aprobador", requisition.Actor{ID: approver, Role: requisition.RoleApprover},
			requisition.Capabilities{Approve: true, Reject: true, Cancel: true}},
		{"bodeguero sin responsable", requisition.Actor{ID: dispatcher, Role: requisition.RoleWarehouse},
			requisition.Capabilities{Dispatch: true}},
		{"solicitante dueño", requisition.Actor{ID: requester, Role: requisition.RoleRequester},
			requisition.Capabilities{Cancel: true}},
		{"solicitante ajeno", requisition.Actor{ID: "otro", Role: requisition.RoleRequester},
			requisition.Capabilities{}},
		{"sin usuario", requisition.Actor{Role: requisition.RoleAdmin}, requisition.Capabilities{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := policy.Capabilities(context.Background(), tc.actor, r)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRolePolicy_BodegueroSoloDeSuBodega(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owned := f.warehouse(t, "Norte", dispatcher)
	foreign := f.warehouse(t, "Sur", "otro-bodeguero")
	policy := requisition.NewRolePolicy(f.store.Warehouses())
	actor := requisition.Actor{ID: dispatcher, Role: requisition.RoleWarehouse}

	c, err := policy.Capabilities(ctx, actor, &entity.Requisition{SourceWarehouseID: owned})
	require.NoError(t, err)
	assert.True(t, c.Dispatch)

	c, err = policy.Capabilities(ctx, actor, &entity.Requisition{SourceWarehouseID: foreign})
	require.NoError(t, err)
	assert.False(t, c.Dispatch)

	_, err = policy.Capabilities(ctx, actor, &entity.Requisition{SourceWarehouseID: "no-existe"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAuthorize_DevuelveForbidden(t *testing.T) {
	f := newFixture(t)
	policy := requisition.NewRolePolicy(f.store.Warehouses())
	r := &entity.Requisition{RequesterID: requester, SourceWarehouseID: f.src}
	solicitante := requisition.Actor{ID: requester, Role: requisition.RoleRequester}

	err := requisition.Authorize(context.Background(), policy, solicitante, r, requisition.ActionApprove)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	err = requisition.Authorize(context.Background(), policy, solicitante, r, requisition.ActionCancel)
	assert.NoError(t, err)

	assert.False(t, requisition.Capabilities{Approve: true}.Allows(requisition.Action("desconocida")))
}

// ──────────────────────────────────────────────────────────────────────────────
// Conversión a DTO
// ──────────────────────────────────────────────────────────────────────────────

func TestToDispatchResponse_ConAdvertencia(t *testing.T) {
	f := newFixture(t)
	f.stockIn(t, f.src, f.item, 10)
	r := f.approved(t, 10)
	f.poster.setFail(true)

	res, err := f.dispatch(context.Background(), r.ID, 4)
	require.NoError(t, err)

	out := requisition.ToDispatchResponse(res)
	assert.Equal(t, string(entity.RequisitionEnDespacho), out.State)
	assert.Empty(t, out.MovementID)
	require.NotNil(t, out.Warning)
	assert.Equal(t, requisition.WarningDispatchRecordedMovementFailed, out.Warning.Code)

	full := requisition.ToRequisitionResponse(res.Requisition)
	require.Len(t, full.Lines, 1)
	assert.Equal(t, "6", full.Lines[0].PendingQty.String())
}

func TestCreateInputFromRequest_CopiaLineas(t *testing.T) {
	in := requisition.CreateInputFromRequest(requester, dto.CreateRequisitionRequest{
		SourceWarehouseID:      "a",
		DestinationWarehouseID: "b",
		Reason:                 "reposición",
		Lines:                  []dto.RequisitionLineRequest{{ItemID: "i1", PresentationID: "p1"}},
	})
	assert.Equal(t, requester, in.RequesterID)
	require.Len(t, in.Lines, 1)
	assert.Equal(t, "p1", in.Lines[0].PresentationID)

	d := requisition.DispatchInputFromRequest("r1", dispatcher, dto.DispatchRequisitionRequest{Lines: []dto.RequisitionLineRequest{{ItemID: "i1"}}})
	assert.Equal(t, "r1", d.RequisitionID)
	assert.Equal(t, dispatcher, d.DispatcherID)
}
