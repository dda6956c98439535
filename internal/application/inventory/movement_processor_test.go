package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/bodegas-api/internal/application/dto"
	"github.com/jhoicas/bodegas-api/internal/application/inventory"
	"github.com/jhoicas/bodegas-api/internal/domain"
	"github.com/jhoicas/bodegas-api/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Entrada / Salida
// ──────────────────────────────────────────────────────────────────────────────

func TestPost_EntradaYSalida_ActualizaExistencia(t *testing.T) {
	f := newFixture(t)
	wh := f.warehouse(t, "Principal")
	it := f.item(t, "TORN-001")

	f.entrada(t, wh, it, 100)
	assert.Equal(t, "100", f.qty(t, it, wh))

	_, err := f.proc.Post(context.Background(), inventory.MovementInput{
		Type:              "Salida",
		SourceWarehouseID: wh,
		ActorID:           actor,
		Lines:             []inventory.MovementLineInput{line(it, 40)},
	})
	require.NoError(t, err)
	assert.Equal(t, "60", f.qty(t, it, wh))
	assert.Equal(t, 1, f.metrics.posted["Entrada"])
	assert.Equal(t, 1, f.metrics.posted["Salida"])
}

func TestPost_TipoSinDistinguirMayusculas(t *testing.T) {
	f := newFixture(t)
	wh := f.warehouse(t, "Principal")
	it := f.item(t, "TORN-001")

	m, err := f.proc.Post(context.Background(), inventory.MovementInput{
		Type:                   "ENTRADA",
		DestinationWarehouseID: wh,
		ActorID:                actor,
		Lines:                  []inventory.MovementLineInput{line(it, 5)},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.MovementTypeEntrada, m.Type)
}

func TestPost_EntradaPorPresentacion_ConvierteAUnidadBase(t *testing.T) {
	f := newFixture(t)
	wh := f.warehouse(t, "Principal")
	it := f.item(t, "GASEOSA")
	caja := f.presentation(t, it, 12)

	m, err := f.proc.Post(context.Background(), inventory.MovementInput{
		Type:                   "Entrada",
		DestinationWarehouseID: wh,
		ActorID:                actor,
		Lines: []inventory.MovementLineInput{{
			ItemID:          it,
			PresentationID:  caja,
			PresentationQty: decimal.NewFromInt(2),
		}},
	})
	require.NoError(t, err)
	require.Len(t, m.Lines, 1)
	assert.Equal(t, "24", m.Lines[0].Quantity.String())
	assert.Equal(t, caja, m.Lines[0].PresentationID)
	assert.Equal(t, "2", m.Lines[0].PresentationQty.String())
	assert.Equal(t, "24", f.qty(t, it, wh))
}

func TestPost_PresentacionFraccionaria_EntradaYSalidaCuadran(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wh := f.warehouse(t, "Principal")
	it := f.item(t, "HUEVOS")
	docena := &entity.PresentationUnit{ID: uuid.New().String(), ItemID: it, Name: "docena", Multiplier: decimal.RequireFromString("0.083333"), Active: true}
	require.NoError(t, f.store.Presentations().Create(ctx, docena))
	porDocena := []inventory.MovementLineInput{{ItemID: it, PresentationID: docena.ID, PresentationQty: decimal.NewFromInt(1)}}

	m, err := f.proc.Post(ctx, inventory.MovementInput{Type: "Entrada", DestinationWarehouseID: wh, ActorID: actor, Lines: porDocena})
	require.NoError(t, err)
	assert.Equal(t, "0.0833", m.Lines[0].Quantity.String())
	assert.Equal(t, "0.0833", f.qty(t, it, wh))

	_, err = f.proc.Post(ctx, inventory.MovementInput{Type: "Salida", SourceWarehouseID: wh, ActorID: actor, Lines: porDocena})
	require.NoError(t, err)
	assert.Equal(t, "0", f.qty(t, it, wh))
}

func TestPost_CantidadConMasDecimales_Rechaza(t *testing.T) {
	f := newFixture(t)
	wh := f.warehouse(t, "Principal")
	it := f.item(t, "A")
	caja := f.presentation(t, it, 12)

	cases := map[string]inventory.MovementLineInput{
		"cantidad base":         {ItemID: it, Quantity: decimal.RequireFromString("0.00001")},
		"cantidad presentación": {ItemID: it, PresentationID: caja, PresentationQty: decimal.RequireFromString("1.00005")},
	}
	for name, l := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.proc.Post(context.Background(), inventory.MovementInput{
				Type:                   "Entrada",
				DestinationWarehouseID: wh,
				ActorID:                actor,
				Lines:                  []inventory.MovementLineInput{l},
			})
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
	assert.Equal(t, "0", f.qty(t, it, wh))
}

func TestPost_PresentacionInactiva_Rechaza(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wh := f.warehouse(t, "Principal")
	it := f.item(t, "A")
	p := &entity.PresentationUnit{ID: uuid.New().String(), ItemID: it, Name: "caja", Multiplier: decimal.NewFromInt(12), Active: false}
	require.NoError(t, f.store.Presentations().Create(ctx, p))

	_, err := f.proc.Post(ctx, inventory.MovementInput{
		Type:                   "Entrada",
		DestinationWarehouseID: wh,
		ActorID:                actor,
		Lines:                  []inventory.MovementLineInput{{ItemID: it, PresentationID: p.ID, PresentationQty: decimal.NewFromInt(1)}},
	})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "presentation_id", ve.Field)
}

func TestPost_PresentacionDeOtroItem_Rechaza(t *testing.T) {
	f := newFixture(t)
	wh := f.warehouse(t, "Principal")
	it := f.item(t, "A")
	otro := f.item(t, "B")
	caja := f.presentation(t, otro, 6)

	_, err := f.proc.Post(context.Background(), inventory.MovementInput{
		Type:                   "Entrada",
		DestinationWarehouseID: wh,
		ActorID:                actor,
		Lines:                  []inventory.MovementLineInput{{ItemID: it, PresentationID: caja, PresentationQty: decimal.NewFromInt(1)}},
	})
	assert.ErrorIs(t, err, domain.ErrUnknownPresentation)
	assert.Equal(t, "0", f.qty(t, it, wh))
}

func TestPost_SalidaSinExistencia_NoModificaNada(t *testing.T) {
	f := newFixture(t)
	wh := f.warehouse(t, "Principal")
	it := f.item(t, "TORN-001")
	f.entrada(t, wh, it, 10)

	_, err := f.proc.Post(context.Background(), inventory.MovementInput{
		Type:              "Salida",
		SourceWarehouseID: wh,
		ActorID:           actor,
		Lines:             []inventory.MovementLineInput{line(it, 11)},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	var ise *domain.InsufficientStockError
	require.True(t, errors.As(err, &ise))
	require.Len(t, ise.Shortfalls, 1)
	assert.Equal(t, "11", ise.Shortfalls[0].Requested.String())
	assert.Equal(t, "10", ise.Shortfalls[0].Available.String())

	assert.Equal(t, "10", f.qty(t, it, wh))
	assert.Equal(t, 1, f.metrics.rejected["insufficient_stock"])
}

func TestPost_SalidaConLineasRepetidas_SumaElRequerimiento(t *testing.T) {
	f := newFixture(t)
	wh := f.warehouse(t, "Principal")
	it := f.item(t, "TORN-001")
	f.entrada(t, wh, it, 10)

	_, err := f.proc.Post(context.Background(), inventory.MovementInput{
		Type:              "Salida",
		SourceWarehouseID: wh,
		ActorID:           actor,
		Lines:             []inventory.MovementLineInput{line(it, 6), line(it, 6)},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, "10", f.qty(t, it, wh))
}

// ──────────────────────────────────────────────────────────────────────────────
// Transferencia
// ──────────────────────────────────────────────────────────────────────────────

func TestPost_Transferencia_MueveEntreBodegas(t *testing.T) {
	f := newFixture(t)
	src := f.warehouse(t, "Central")
	dst := f.warehouse(t, "Sucursal")
	it := f.item(t, "TORN-001")
	f.entrada(t, src, it, 50)

	m, err := f.proc.Post(context.Background(), inventory.MovementInput{
		Type:                   "Transferencia",
		SourceWarehouseID:      src,
		DestinationWarehouseID: dst,
		ActorID:                actor,
		Lines:                  []inventory.MovementLineInput{line(it, 20)},
	})
	require.NoError(t, err)
	assert.Equal(t, "30", f.qty(t, it, src))
	assert.Equal(t, "20", f.qty(t, it, dst))

	stored, err := f.proc.GetByID(context.Background(), m.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Len(t, stored.Lines, 1)
}

func TestPost_TransferenciaParcialmenteCubierta_EsAtomica(t *testing.T) {
	f := newFixture(t)
	src := f.warehouse(t, "Central")
	dst := f.warehouse(t, "Sucursal")
	a := f.item(t, "A")
	b := f.item(t, "B")
	f.entrada(t, src, a, 10)
	f.entrada(t, src, b, 1)

	_, err := f.proc.Post(context.Background(), inventory.MovementInput{
		Type:                   "Transferencia",
		SourceWarehouseID:      src,
		DestinationWarehouseID: dst,
		ActorID:                actor,
		Lines:                  []inventory.MovementLineInput{line(a, 5), line(b, 2)},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, "10", f.qty(t, a, src), "ninguna línea se aplica si una falla")
	assert.Equal(t, "1", f.qty(t, b, src))
	assert.Equal(t, "0", f.qty(t, a, dst))
}

func TestPost_TransferenciaMismaBodega_Rechaza(t *testing.T) {
	f := newFixture(t)
	wh := f.warehouse(t, "Central")
	it := f.item(t, "A")

	_, err := f.proc.Post(context.Background(), inventory.MovementInput{
		Type:                   "Transferencia",
		SourceWarehouseID:      wh,
		DestinationWarehouseID: wh,
		ActorID:                actor,
		Lines:                  []inventory.MovementLineInput{line(it, 1)},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Ajuste
// ──────────────────────────────────────────────────────────────────────────────

func TestPost_Ajuste_LlevaALaCantidadObjetivo(t *testing.T) {
	f := newFixture(t)
	wh := f.warehouse(t, "Central")
	it := f.item(t, "A")
	f.entrada(t, wh, it, 10)

	m, err := f.proc.Post(context.Background(), inventory.MovementInput{
		Type:                   "Ajuste",
		DestinationWarehouseID: wh,
		ActorID:                actor,
		Reason:                 "conteo físico",
		Lines:                  []inventory.MovementLineInput{line(it, 7)},
	})
	require.NoError(t, err)
	require.Len(t, m.Lines, 1)
	assert.Equal(t, entity.DirectionOut, m.Lines[0].Direction)
	assert.Equal(t, "3", m.Lines[0].Quantity.String())
	assert.Equal(t, "7", f.qty(t, it, wh))

	m, err = f.proc.Post(context.Background(), inventory.MovementInput{
		Type:                   "Ajuste",
		DestinationWarehouseID: wh,
		ActorID:                actor,
		Reason:                 "conteo físico",
		Lines:                  []inventory.MovementLineInput{line(it, 12)},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.DirectionIn, m.Lines[0].Direction)
	assert.Equal(t, "5", m.Lines[0].Quantity.String())
	assert.Equal(t, "12", f.qty(t, it, wh))
}

func TestPost_AjusteACero_Permitido(t *testing.T) {
	f := newFixture(t)
	wh := f.warehouse(t, "Central")
	it := f.item(t, "A")
	f.entrada(t, wh, it, 4)

	_, err := f.proc.Post(context.Background(), inventory.MovementInput{
		Type:                   "Ajuste",
		DestinationWarehouseID: wh,
		ActorID:                actor,
		Reason:                 "merma",
		Lines:                  []inventory.MovementLineInput{line(it, 0)},
	})
	require.NoError(t, err)
	assert.Equal(t, "0", f.qty(t, it, wh))
}

func TestPost_AjusteSinCambio_Rechaza(t *testing.T) {
	f := newFixture(t)
	wh := f.warehouse(t, "Central")
	it := f.item(t, "A")
	f.entrada(t, wh, it, 4)

	_, err := f.proc.Post(context.Background(), inventory.MovementInput{
		Type:                   "Ajuste",
		DestinationWarehouseID: wh,
		ActorID:                actor,
		Reason:                 "conteo",
		Lines:                  []inventory.MovementLineInput{line(it, 4)},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPost_AjusteSinMotivo_Rechaza(t *testing.T) {
	f := newFixture(t)
	wh := f.warehouse(t, "Central")
	it := f.item(t, "A")

	_, err := f.proc.Post(context.Background(), inventory.MovementInput{
		Type:                   "Ajuste",
		DestinationWarehouseID: wh,
		ActorID:                actor,
		Lines:                  []inventory.MovementLineInput{line(it, 4)},
	})
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "reason", ve.Field)
}

func TestPost_AjusteItemRepetido_Rechaza(t *testing.T) {
	f := newFixture(t)
	wh := f.warehouse(t, "Central")
	it := f.item(t, "A")

	_, err := f.proc.Post(context.Background(), inventory.MovementInput{
		Type:                   "Ajuste",
		DestinationWarehouseID: wh,
		ActorID:                actor,
		Reason:                 "conteo",
		Lines:                  []inventory.MovementLineInput{line(it, 4), line(it, 5)},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Validaciones y referencias
// ──────────────────────────────────────────────────────────────────────────────

func TestPost_Validaciones(t *testing.T) {
	f := newFixture(t)
	wh := f.warehouse(t, "Central")
	it := f.item(t, "A")

	inactive := &entity.Warehouse{ID: "bod-inactiva", Name: "Cerrada", Active: false}
	require.NoError(t, f.store.Warehouses().Create(context.Background(), inactive))

	cases := []struct {
		name string
		in   inventory.MovementInput
		want error
	}{
		{"tipo desconocido", inventory.MovementInput{Type: "Donación", DestinationWarehouseID: wh, ActorID: actor, Lines: []inventory.MovementLineInput{line(it, 1)}}, domain.ErrInvalidInput},
		{"sin actor", inventory.MovementInput{Type: "Entrada", DestinationWarehouseID: wh, Lines: []inventory.MovementLineInput{line(it, 1)}}, domain.ErrInvalidInput},
		{"sin líneas", inventory.MovementInput{Type: "Entrada", DestinationWarehouseID: wh, ActorID: actor}, domain.ErrInvalidInput},
		{"entrada con origen", inventory.MovementInput{Type: "Entrada", SourceWarehouseID: wh, DestinationWarehouseID: wh, ActorID: actor, Lines: []inventory.MovementLineInput{line(it, 1)}}, domain.ErrInvalidInput},
		{"salida sin origen", inventory.MovementInput{Type: "Salida", ActorID: actor, Lines: []inventory.MovementLineInput{line(it, 1)}}, domain.ErrInvalidInput},
		{"cantidad cero", inventory.MovementInput{Type: "Entrada", DestinationWarehouseID: wh, ActorID: actor, Lines: []inventory.MovementLineInput{line(it, 0)}}, domain.ErrInvalidInput},
		{"cantidad negativa", inventory.MovementInput{Type: "Entrada", DestinationWarehouseID: wh, ActorID: actor, Lines: []inventory.MovementLineInput{line(it, -2)}}, domain.ErrInvalidInput},
		{"bodega inexistente", inventory.MovementInput{Type: "Entrada", DestinationWarehouseID: "no-existe", ActorID: actor, Lines: []inventory.MovementLineInput{line(it, 1)}}, domain.ErrNotFound},
		{"bodega inactiva", inventory.MovementInput{Type: "Entrada", DestinationWarehouseID: inactive.ID, ActorID: actor, Lines: []inventory.MovementLineInput{line(it, 1)}}, domain.ErrInvalidInput},
		{"ítem inexistente", inventory.MovementInput{Type: "Entrada", DestinationWarehouseID: wh, ActorID: actor, Lines: []inventory.MovementLineInput{line("no-existe", 1)}}, domain.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.proc.Post(context.Background(), tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Equal(t, "0", f.qty(t, it, wh))
}

func TestPost_ReferenciaDuplicada_SeAplicaUnaVez(t *testing.T) {
	f := newFixture(t)
	wh := f.warehouse(t, "Central")
	it := f.item(t, "A")
	in := inventory.MovementInput{
		Type:                   "Entrada",
		DestinationWarehouseID: wh,
		ActorID:                actor,
		ReferenceType:          "COMPRA",
		ReferenceID:            "OC-77",
		Lines:                  []inventory.MovementLineInput{line(it, 8)},
	}

	first, err := f.proc.Post(context.Background(), in)
	require.NoError(t, err)

	_, err = f.proc.Post(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	assert.Equal(t, "8", f.qty(t, it, wh))

	found, err := f.proc.FindByReference(context.Background(), "COMPRA", "OC-77")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, first.ID, found.ID)
}

func TestPost_SalidasConcurrentes_NuncaQuedaNegativo(t *testing.T) {
	f := newFixture(t)
	wh := f.warehouse(t, "Central")
	it := f.item(t, "A")
	f.entrada(t, wh, it, 10)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.proc.Post(context.Background(), inventory.MovementInput{
				Type:              "Salida",
				SourceWarehouseID: wh,
				ActorID:           actor,
				Lines:             []inventory.MovementLineInput{line(it, 1)},
			})
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	assert.Equal(t, "0", f.qty(t, it, wh))
}

func TestPostFromRequest_DevuelveDTO(t *testing.T) {
	f := newFixture(t)
	wh := f.warehouse(t, "Central")
	it := f.item(t, "A")

	out, err := f.proc.PostFromRequest(context.Background(), actor, dto.PostMovementRequest{
		Type:                   "Entrada",
		DestinationWarehouseID: wh,
		Lines:                  []dto.MovementLineRequest{{ItemID: it, Quantity: decimal.NewFromInt(3)}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Entrada", out.Type)
	assert.Equal(t, actor, out.ActorID)
	require.Len(t, out.Lines, 1)
	assert.Equal(t, entity.DirectionIn, out.Lines[0].Direction)
	assert.Equal(t, "1500", out.Lines[0].UnitCost.String())
	assert.Positive(t, out.Lines[0].Seq)
}
