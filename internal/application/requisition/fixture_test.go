package requisition_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/bodegas-api/internal/application/inventory"
	"github.com/jhoicas/bodegas-api/internal/application/ports"
	"github.com/jhoicas/bodegas-api/internal/application/requisition"
	"github.com/jhoicas/bodegas-api/internal/domain/entity"
	"github.com/jhoicas/bodegas-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	requester  = "user-solicitante"
	approver   = "user-aprobador"
	dispatcher = "user-bodeguero"
)

type fixture struct {
	store    *memory.Store
	proc     *inventory.MovementProcessor
	poster   *flakyPoster
	locker   *fakeLocker
	metrics  *recorder
	workflow *requisition.Workflow
	src, dst string
	item     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	resolver := inventory.NewUnitConversionResolver(store.Presentations())
	proc := inventory.NewMovementProcessor(memory.NewTxRunner(store), store.Items(), store.Warehouses(), store.Movements(), resolver, nil)
	f := &fixture{
		store:   store,
		proc:    proc,
		poster:  &flakyPoster{next: proc},
		locker:  &fakeLocker{},
		metrics: &recorder{},
	}
	f.workflow = requisition.NewWorkflow(requisition.WorkflowDeps{
		TxRunner:     memory.NewTxRunner(store),
		Requisitions: store.Requisitions(),
		Items:        store.Items(),
		Warehouses:   store.Warehouses(),
		Resolver:     resolver,
		Movements:    f.poster,
		Locker:       f.locker,
		Metrics:      f.metrics,
	})
	f.src = f.warehouse(t, "Central", "")
	f.dst = f.warehouse(t, "Sucursal", "")
	f.item = f.newItem(t, "TORN-001")
	return f
}

func (f *fixture) warehouse(t *testing.T, name, responsible string) string {
	t.Helper()
	w := &entity.Warehouse{ID: uuid.New().String(), Name: name, ResponsibleUserID: responsible, Active: true, CreatedAt: time.Now()}
	require.NoError(t, f.store.Warehouses().Create(context.Background(), w))
	return w.ID
}

func (f *fixture) newItem(t *testing.T, code string) string {
	t.Helper()
	it := &entity.Item{ID: uuid.New().String(), Code: code, Name: code, BaseUnit: "und", Active: true}
	require.NoError(t, f.store.Items().Create(context.Background(), it))
	return it.ID
}

func (f *fixture) stockIn(t *testing.T, warehouseID, itemID string, qty int64) {
	t.Helper()
	_, err := f.proc.Post(context.Background(), inventory.MovementInput{
		Type:                   "Entrada",
		DestinationWarehouseID: warehouseID,
		ActorID:                dispatcher,
		Lines:                  []inventory.MovementLineInput{{ItemID: itemID, Quantity: decimal.NewFromInt(qty)}},
	})
	require.NoError(t, err)
}

func (f *fixture) qty(t *testing.T, itemID, warehouseID string) string {
	t.Helper()
	s, err := f.store.Stock().Get(context.Background(), itemID, warehouseID)
	require.NoError(t, err)
	return s.Quantity.String()
}

// approved crea una requisición de qty unidades de f.item y la aprueba.
func (f *fixture) approved(t *testing.T, qty int64) *entity.Requisition {
	t.Helper()
	r := f.pending(t, qty)
	r, err := f.workflow.Approve(context.Background(), r.ID, approver)
	require.NoError(t, err)
	return r
}

func (f *fixture) pending(t *testing.T, qty int64) *entity.Requisition {
	t.Helper()
	r, err := f.workflow.Create(context.Background(), requisition.CreateInput{
		RequesterID:            requester,
		SourceWarehouseID:      f.src,
		DestinationWarehouseID: f.dst,
		Reason:                 "reposición",
		Lines:                  []requisition.LineInput{{ItemID: f.item, Quantity: decimal.NewFromInt(qty)}},
	})
	require.NoError(t, err)
	return r
}

func (f *fixture) dispatch(ctx context.Context, reqID string, qty int64) (*requisition.DispatchResult, error) {
	return f.workflow.Dispatch(ctx, requisition.DispatchInput{
		RequisitionID: reqID,
		DispatcherID:  dispatcher,
		Lines:         []requisition.LineInput{{ItemID: f.item, Quantity: decimal.NewFromInt(qty)}},
	})
}

// flakyPoster delega en el MovementProcessor salvo cuando fail está activo.
type flakyPoster struct {
	next *inventory.MovementProcessor
	mu   sync.Mutex
	fail bool
}

var errPosting = errors.New("ledger no disponible")

func (p *flakyPoster) setFail(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fail = v
}

func (p *flakyPoster) Post(ctx context.Context, in inventory.MovementInput) (*entity.Movement, error) {
	p.mu.Lock()
	fail := p.fail
	p.mu.Unlock()
	if fail {
		return nil, errPosting
	}
	return p.next.Post(ctx, in)
}

func (p *flakyPoster) FindByReference(ctx context.Context, referenceType, referenceID string) (*entity.Movement, error) {
	return p.next.FindByReference(ctx, referenceType, referenceID)
}

// fakeLocker registra las llaves pedidas; err simula un candado ocupado.
type fakeLocker struct {
	mu       sync.Mutex
	keys     []string
	released int
	err      error
}

var _ ports.Locker = (*fakeLocker)(nil)

func (l *fakeLocker) Acquire(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	l.keys = append(l.keys, key)
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.released++
	}, nil
}

// recorder implementa ports.Metrics.
type recorder struct {
	mu         sync.Mutex
	dispatches map[string]int
	failed     int
	reconciled int
}

func (r *recorder) MovementPosted(string)   {}
func (r *recorder) MovementRejected(string) {}

func (r *recorder) DispatchRecorded(state string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dispatches == nil {
		r.dispatches = map[string]int{}
	}
	r.dispatches[state]++
}

func (r *recorder) DispatchTransferFailed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed++
}

func (r *recorder) TransferReconciled() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reconciled++
}
