package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/agencia-lifecycle/internal/application/actionplans"
	"github.com/jhoicas/agencia-lifecycle/internal/application/clients"
	"github.com/jhoicas/agencia-lifecycle/internal/application/commissions"
	"github.com/jhoicas/agencia-lifecycle/internal/domain/repository"
)

var (
	_ clients.TxRunner     = (*TxRunner)(nil)
	_ commissions.TxRunner = (*TxRunner)(nil)
	_ actionplans.TxRunner = (*TxRunner)(nil)
)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// inTx inicia la transacción, ejecuta fn y hace Commit o Rollback.
func (r *TxRunner) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
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

// RunClients transacción con cliente y registro de activos (hitos, archivo, restore, contrato).
func (r *TxRunner) RunClients(ctx context.Context, fn func(
	clientRepo repository.ClientRepository,
	activeRepo repository.ActiveClientRepository,
) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(NewClientRepository(tx), NewActiveClientRepository(tx))
	})
}

// RunSales transacción de venta/upsell con sus comisiones.
func (r *TxRunner) RunSales(ctx context.Context, fn func(
	clientRepo repository.ClientRepository,
	saleRepo repository.SaleRepository,
	upsellRepo repository.UpsellRepository,
	commissionRepo repository.CommissionRepository,
) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(NewClientRepository(tx), NewSaleRepository(tx), NewUpsellRepository(tx), NewCommissionRepository(tx))
	})
}

// RunChurn transacción de distrato global o por producto con su notificación.
func (r *TxRunner) RunChurn(ctx context.Context, fn func(
	clientRepo repository.ClientRepository,
	activeRepo repository.ActiveClientRepository,
	productChurnRepo repository.ProductChurnRepository,
	notificationRepo repository.ChurnNotificationRepository,
) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(
			NewClientRepository(tx),
			NewActiveClientRepository(tx),
			NewProductChurnRepository(tx),
			NewChurnNotificationRepository(tx),
		)
	})
}

// RunCommissions transacción de pago de comisión.
func (r *TxRunner) RunCommissions(ctx context.Context, fn func(commissionRepo repository.CommissionRepository) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(NewCommissionRepository(tx))
	})
}

// RunActionPlans transacción de planes de acción (lee el cliente para validar el alta).
func (r *TxRunner) RunActionPlans(ctx context.Context, fn func(
	planRepo repository.ActionPlanRepository,
	clientRepo repository.ClientRepository,
) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(NewActionPlanRepository(tx), NewClientRepository(tx))
	})
}
