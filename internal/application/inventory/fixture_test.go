package inventory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/bodegas-api/internal/application/inventory"
	"github.com/jhoicas/bodegas-api/internal/domain/entity"
	"github.com/jhoicas/bodegas-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const actor = "user-bodega"

type fixture struct {
	store   *memory.Store
	proc    *inventory.MovementProcessor
	stock   *inventory.StockQuery
	kardex  *inventory.KardexQuery
	metrics *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	rec := &recorder{posted: map[string]int{}, rejected: map[string]int{}}
	proc := inventory.NewMovementProcessor(
		memory.NewTxRunner(store),
		store.Items(),
		store.Warehouses(),
		store.Movements(),
		inventory.NewUnitConversionResolver(store.Presentations()),
		nil,
	).WithMetrics(rec)
	return &fixture{
		store:   store,
		proc:    proc,
		stock:   inventory.NewStockQuery(store.Stock(), nil),
		kardex:  inventory.NewKardexQuery(store.Movements()),
		metrics: rec,
	}
}

func (f *fixture) warehouse(t *testing.T, name string) string {
	t.Helper()
	w := &entity.Warehouse{ID: uuid.New().String(), Name: name, Active: true, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	require.NoError(t, f.store.Warehouses().Create(context.Background(), w))
	return w.ID
}

func (f *fixture) item(t *testing.T, code string) string {
	t.Helper()
	it := &entity.Item{ID: uuid.New().String(), Code: code, Name: code, BaseUnit: "und", UnitCost: decimal.NewFromInt(1500), Active: true}
	require.NoError(t, f.store.Items().Create(context.Background(), it))
	return it.ID
}

func (f *fixture) presentation(t *testing.T, itemID string, multiplier int64) string {
	t.Helper()
	p := &entity.PresentationUnit{ID: uuid.New().String(), ItemID: itemID, Name: "caja", Multiplier: decimal.NewFromInt(multiplier), Active: true}
	require.NoError(t, f.store.Presentations().Create(context.Background(), p))
	return p.ID
}

func (f *fixture) qty(t *testing.T, itemID, warehouseID string) string {
	t.Helper()
	q, err := f.stock.CurrentStock(context.Background(), itemID, warehouseID)
	require.NoError(t, err)
	return q.String()
}

func (f *fixture) entrada(t *testing.T, warehouseID, itemID string, qty int64) *entity.Movement {
	t.Helper()
	m, err := f.proc.Post(context.Background(), inventory.MovementInput{
		Type:                   "Entrada",
		DestinationWarehouseID: warehouseID,
		ActorID:                actor,
		Lines:                  []inventory.MovementLineInput{{ItemID: itemID, Quantity: decimal.NewFromInt(qty)}},
	})
	require.NoError(t, err)
	return m
}

func line(itemID string, qty int64) inventory.MovementLineInput {
	return inventory.MovementLineInput{ItemID: itemID, Quantity: decimal.NewFromInt(qty)}
}

// recorder implementa ports.Metrics contando en memoria.
type recorder struct {
	mu       sync.Mutex
	posted   map[string]int
	rejected map[string]int
}

func (r *recorder) MovementPosted(t string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posted[t]++
}

func (r *recorder) MovementRejected(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected[reason]++
}

func (r *recorder) DispatchRecorded(string) {}
func (r *recorder) DispatchTransferFailed() {}
func (r *recorder) TransferReconciled()     {}
