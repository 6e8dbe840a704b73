package commissions

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/agencia-lifecycle/internal/application/ports"
	"github.com/jhoicas/agencia-lifecycle/internal/domain"
	"github.com/jhoicas/agencia-lifecycle/internal/domain/entity"
	"github.com/jhoicas/agencia-lifecycle/internal/domain/lifecycle"
	"github.com/jhoicas/agencia-lifecycle/internal/domain/repository"
	"github.com/jhoicas/agencia-lifecycle/pkg/logger"
)

// TxRunner ejecuta fn dentro de una transacción con el repositorio de comisiones atado a ella.
type TxRunner interface {
	RunCommissions(ctx context.Context, fn func(commissionRepo repository.CommissionRepository) error) error
}

// CommissionUseCase pago y consulta de comisiones. La creación ocurre solo en clients.SalesUseCase.
type CommissionUseCase struct {
	txRunner TxRunner
	repo     repository.CommissionRepository
	clock    ports.Clock
	metrics  ports.LifecycleMetrics
	log      *logger.Logger
}

// NewCommissionUseCase construye el caso de uso.
func NewCommissionUseCase(
	txRunner TxRunner,
	repo repository.CommissionRepository,
	clock ports.Clock,
	metrics ports.LifecycleMetrics,
	log *logger.Logger,
) *CommissionUseCase {
	return &CommissionUseCase{txRunner: txRunner, repo: repo, clock: clock, metrics: metrics, log: log}
}

// MarkPaid pasa una comisión de upsell de pending a paid.
// Comisiones de venta o ya pagadas → ErrInvalidState; carrera perdida → ErrConflict.
func (uc *CommissionUseCase) MarkPaid(ctx context.Context, caller entity.Caller, id string) (*entity.Commission, error) {
	var out *entity.Commission
	err := uc.txRunner.RunCommissions(ctx, func(repo repository.CommissionRepository) error {
		c, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if c == nil {
			return domain.ErrNotFound
		}
		if err := lifecycle.CanMarkPaid(c); err != nil {
			return err
		}
		now := uc.clock.Now()
		ok, err := repo.MarkPaid(ctx, id, now)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: la comisión cambió de estado", domain.ErrConflict)
		}
		c.Status = entity.CommissionPaid
		c.PaidAt = &now
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.metrics.IncCommissionPaid()
	uc.log.Info().
		Str("commission_id", out.ID).
		Str("value", out.Value.StringFixed(2)).
		Str("user_id", caller.UserID).
		Msg("comisión marcada como pagada")
	return out, nil
}

// Summary agrupa comisiones por rol receptor y mes en el rango [from, to).
func (uc *CommissionUseCase) Summary(ctx context.Context, from, to *time.Time) ([]entity.CommissionGroup, error) {
	if from != nil && to != nil && !from.Before(*to) {
		return nil, fmt.Errorf("%w: from debe ser anterior a to", domain.ErrInvalidInput)
	}
	list, err := uc.repo.ListBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return lifecycle.GroupCommissions(list), nil
}
