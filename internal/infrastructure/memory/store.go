package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/bodegas-api/internal/domain/entity"
)

// Store persistencia en memoria para pruebas y modo DB_DRIVER=memory.
// Las transacciones toman el candado de escritura sobre una copia del estado y la publican
// en Commit; esto serializa a todos los escritores (más fuerte que el bloqueo por fila).
// Los lectores fuera de transacción ven el último estado confirmado.
type Store struct {
	mu    sync.RWMutex
	state *state
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{state: newState()}
}

type state struct {
	items         map[string]entity.Item
	presentations map[string]entity.PresentationUnit
	warehouses    map[string]entity.Warehouse
	stock         map[entity.StockKey]entity.Stock
	movements     map[string]*entity.Movement
	movementOrder []string
	references    map[string]string
	requisitions  map[string]*entity.Requisition
	dispatches    map[string]*entity.RequisitionDispatch
	dispatchOrder []string
	seq           int64
}

func newState() *state {
	return &state{
		items:         map[string]entity.Item{},
		presentations: map[string]entity.PresentationUnit{},
		warehouses:    map[string]entity.Warehouse{},
		stock:         map[entity.StockKey]entity.Stock{},
		movements:     map[string]*entity.Movement{},
		references:    map[string]string{},
		requisitions:  map[string]*entity.Requisition{},
		dispatches:    map[string]*entity.RequisitionDispatch{},
	}
}

// clone copia profunda de lo que las transacciones pueden modificar.
func (s *state) clone() *state {
	c := newState()
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.presentations {
		c.presentations[k] = v
	}
	for k, v := range s.warehouses {
		c.warehouses[k] = v
	}
	for k, v := range s.stock {
		c.stock[k] = v
	}
	for k, v := range s.movements {
		c.movements[k] = cloneMovement(v)
	}
	c.movementOrder = append([]string(nil), s.movementOrder...)
	for k, v := range s.references {
		c.references[k] = v
	}
	for k, v := range s.requisitions {
		c.requisitions[k] = cloneRequisition(v)
	}
	for k, v := range s.dispatches {
		c.dispatches[k] = cloneDispatch(v)
	}
	c.dispatchOrder = append([]string(nil), s.dispatchOrder...)
	c.seq = s.seq
	return c
}

// run ejecuta fn sobre una copia del estado y la publica si no hay error.
func (s *Store) run(ctx context.Context, fn func(tx *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.state.clone()
	if err := fn(work); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = work
	return nil
}

// scope decide si un repositorio opera sobre una transacción abierta o en autocommit.
type scope struct {
	store *Store
	tx    *state
}

func (sc scope) read(fn func(st *state) error) error {
	if sc.tx != nil {
		return fn(sc.tx)
	}
	sc.store.mu.RLock()
	defer sc.store.mu.RUnlock()
	return fn(sc.store.state)
}

// write en autocommit muta el estado vivo: fn debe validar antes de modificar.
func (sc scope) write(fn func(st *state) error) error {
	if sc.tx != nil {
		return fn(sc.tx)
	}
	sc.store.mu.Lock()
	defer sc.store.mu.Unlock()
	return fn(sc.store.state)
}

// Items repositorio de ítems en autocommit.
func (s *Store) Items() *ItemRepo { return &ItemRepo{sc: scope{store: s}} }

// Presentations repositorio de presentaciones en autocommit.
func (s *Store) Presentations() *PresentationRepo { return &PresentationRepo{sc: scope{store: s}} }

// Warehouses repositorio de bodegas en autocommit.
func (s *Store) Warehouses() *WarehouseRepo { return &WarehouseRepo{sc: scope{store: s}} }

// Stock repositorio de existencias en autocommit (solo lecturas fuera del ledger).
func (s *Store) Stock() *StockRepo { return &StockRepo{sc: scope{store: s}} }

// Movements repositorio de movimientos en autocommit.
func (s *Store) Movements() *MovementRepo { return &MovementRepo{sc: scope{store: s}} }

// Requisitions repositorio de requisiciones en autocommit.
func (s *Store) Requisitions() *RequisitionRepo { return &RequisitionRepo{sc: scope{store: s}} }

func cloneMovement(m *entity.Movement) *entity.Movement {
	if m == nil {
		return nil
	}
	c := *m
	c.Lines = append([]entity.MovementLine(nil), m.Lines...)
	return &c
}

func cloneRequisition(r *entity.Requisition) *entity.Requisition {
	if r == nil {
		return nil
	}
	c := *r
	c.Lines = append([]entity.RequisitionLine(nil), r.Lines...)
	c.ApprovedAt = cloneTime(r.ApprovedAt)
	c.DispatchedAt = cloneTime(r.DispatchedAt)
	c.RejectedAt = cloneTime(r.RejectedAt)
	c.CancelledAt = cloneTime(r.CancelledAt)
	return &c
}

func cloneDispatch(d *entity.RequisitionDispatch) *entity.RequisitionDispatch {
	if d == nil {
		return nil
	}
	c := *d
	c.Lines = append([]entity.DispatchLine(nil), d.Lines...)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func paginate[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return []T{}
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
