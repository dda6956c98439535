package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/bodegas-api/internal/application/inventory"
	"github.com/jhoicas/bodegas-api/internal/domain"
	"github.com/jhoicas/bodegas-api/internal/domain/entity"
)

// seedKardex: Entrada 100 en central, Salida 40, Transferencia 10 a sucursal.
func seedKardex(t *testing.T, f *fixture) (it, central, sucursal string, mid time.Time) {
	t.Helper()
	ctx := context.Background()
	central = f.warehouse(t, "Central")
	sucursal = f.warehouse(t, "Sucursal")
	it = f.item(t, "A")

	f.entrada(t, central, it, 100)
	time.Sleep(2 * time.Millisecond)
	mid = time.Now()
	time.Sleep(2 * time.Millisecond)

	_, err := f.proc.Post(ctx, inventory.MovementInput{
		Type: "Salida", SourceWarehouseID: central, ActorID: actor, Reason: "venta",
		Lines: []inventory.MovementLineInput{line(it, 40)},
	})
	require.NoError(t, err)
	_, err = f.proc.Post(ctx, inventory.MovementInput{
		Type: "Transferencia", SourceWarehouseID: central, DestinationWarehouseID: sucursal, ActorID: actor,
		Lines: []inventory.MovementLineInput{line(it, 10)},
	})
	require.NoError(t, err)
	return it, central, sucursal, mid
}

func TestKardex_OrdenCronologicoYSaldos(t *testing.T) {
	f := newFixture(t)
	it, central, sucursal, _ := seedKardex(t, f)

	page, err := f.kardex.List(context.Background(), inventory.KardexFilter{ItemID: it})
	require.NoError(t, err)
	require.Equal(t, 4, page.Total)
	require.Len(t, page.Entries, 4)

	e := page.Entries
	assert.Equal(t, entity.MovementTypeEntrada, e[0].Type)
	assert.Equal(t, "100", e[0].Balance.String())

	assert.Equal(t, entity.MovementTypeSalida, e[1].Type)
	assert.Equal(t, entity.DirectionOut, e[1].Direction)
	assert.Equal(t, "60", e[1].Balance.String())

	assert.Equal(t, entity.MovementTypeTransferencia, e[2].Type)
	assert.Equal(t, central, e[2].WarehouseID)
	assert.Equal(t, entity.DirectionOut, e[2].Direction)
	assert.Equal(t, sucursal, e[2].CounterpartWarehouseID)
	assert.Equal(t, "50", e[2].Balance.String())

	assert.Equal(t, sucursal, e[3].WarehouseID)
	assert.Equal(t, entity.DirectionIn, e[3].Direction)
	assert.Equal(t, central, e[3].CounterpartWarehouseID)
	assert.Equal(t, "10", e[3].Balance.String())

	for i := 1; i < len(e); i++ {
		assert.False(t, e[i].Timestamp.Before(e[i-1].Timestamp), "entradas en orden cronológico")
	}
}

func TestKardex_FiltroPorBodega(t *testing.T) {
	f := newFixture(t)
	it, _, sucursal, _ := seedKardex(t, f)

	page, err := f.kardex.List(context.Background(), inventory.KardexFilter{ItemID: it, WarehouseID: sucursal})
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, "10", page.Entries[0].Balance.String())
}

func TestKardex_DesdeFecha_ArrancaDelSaldoAnterior(t *testing.T) {
	f := newFixture(t)
	it, central, _, mid := seedKardex(t, f)

	page, err := f.kardex.List(context.Background(), inventory.KardexFilter{ItemID: it, WarehouseID: central, From: &mid})
	require.NoError(t, err)
	require.Len(t, page.Entries, 2)
	assert.Equal(t, "60", page.Entries[0].Balance.String(), "parte del saldo 100 anterior a from")
	assert.Equal(t, "50", page.Entries[1].Balance.String())
}

func TestKardex_HastaFechaExclusiva(t *testing.T) {
	f := newFixture(t)
	it, _, _, mid := seedKardex(t, f)

	page, err := f.kardex.List(context.Background(), inventory.KardexFilter{ItemID: it, To: &mid})
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, entity.MovementTypeEntrada, page.Entries[0].Type)
}

func TestKardex_Paginacion(t *testing.T) {
	f := newFixture(t)
	it, _, _, _ := seedKardex(t, f)

	page, err := f.kardex.List(context.Background(), inventory.KardexFilter{ItemID: it, Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)
	require.Len(t, page.Entries, 2)
	assert.Equal(t, "60", page.Entries[0].Balance.String())

	page, err = f.kardex.List(context.Background(), inventory.KardexFilter{ItemID: it, Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Entries)

	resp := inventory.ToKardexResponse(inventory.KardexFilter{ItemID: it, Offset: 10}, page)
	assert.Equal(t, 4, resp.Page.Total)
	assert.NotNil(t, resp.Entries)
}

func TestKardex_Validaciones(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	before := now.Add(-time.Hour)

	_, err := f.kardex.List(context.Background(), inventory.KardexFilter{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.kardex.List(context.Background(), inventory.KardexFilter{ItemID: "x", From: &now, To: &before})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
