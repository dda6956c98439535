package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/bodegas-api/internal/application/inventory"
	"github.com/jhoicas/bodegas-api/internal/application/requisition"
	"github.com/jhoicas/bodegas-api/internal/domain/repository"
)

var (
	_ inventory.TxRunner   = (*TxRunner)(nil)
	_ requisition.TxRunner = (*TxRunner)(nil)
)

// maxTxAttempts intentos ante deadlock (40P01) o fallo de serialización (40001).
const maxTxAttempts = 3

// TxRunner abre una transacción READ COMMITTED por llamada. Las existencias se bloquean
// con SELECT ... FOR UPDATE dentro de fn, así que dos postings sobre la misma fila se serializan.
type TxRunner struct {
	pool *pgxpool.Pool
}

func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

func (r *TxRunner) Run(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	stockRepo repository.StockRepository,
) error) error {
	return r.withRetry(ctx, func(tx pgx.Tx) error {
		return fn(NewMovementRepository(tx), NewStockRepository(tx))
	})
}

func (r *TxRunner) RunRequisition(ctx context.Context, fn func(
	reqRepo repository.RequisitionRepository,
	stockRepo repository.StockRepository,
) error) error {
	return r.withRetry(ctx, func(tx pgx.Tx) error {
		return fn(NewRequisitionRepository(tx), NewStockRepository(tx))
	})
}

func (r *TxRunner) withRetry(ctx context.Context, fn func(tx pgx.Tx) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = r.once(ctx, fn)
		if !retryable(err) || ctx.Err() != nil {
			return err
		}
	}
	return err
}

func (r *TxRunner) once(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
