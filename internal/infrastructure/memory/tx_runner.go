package memory

import (
	"context"

	"github.com/jhoicas/bodegas-api/internal/domain/repository"
)

// TxRunner unidades de trabajo sobre el Store. Implementa inventory.TxRunner y requisition.TxRunner.
type TxRunner struct {
	store *Store
}

// NewTxRunner construye el runner.
func NewTxRunner(store *Store) *TxRunner {
	return &TxRunner{store: store}
}

// Run ejecuta fn con repositorios de movimientos y existencias atados a la transacción.
func (r *TxRunner) Run(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	stockRepo repository.StockRepository,
) error) error {
	return r.store.run(ctx, func(tx *state) error {
		sc := scope{store: r.store, tx: tx}
		return fn(&MovementRepo{sc: sc}, &StockRepo{sc: sc})
	})
}

// RunRequisition ejecuta fn con repositorios de requisiciones y existencias atados a la transacción.
func (r *TxRunner) RunRequisition(ctx context.Context, fn func(
	reqRepo repository.RequisitionRepository,
	stockRepo repository.StockRepository,
) error) error {
	return r.store.run(ctx, func(tx *state) error {
		sc := scope{store: r.store, tx: tx}
		return fn(&RequisitionRepo{sc: sc}, &StockRepo{sc: sc})
	})
}
