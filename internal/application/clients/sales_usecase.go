package clients

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/agencia-lifecycle/internal/application/dto"
	"github.com/jhoicas/agencia-lifecycle/internal/application/ports"
	"github.com/jhoicas/agencia-lifecycle/internal/domain"
	"github.com/jhoicas/agencia-lifecycle/internal/domain/entity"
	"github.com/jhoicas/agencia-lifecycle/internal/domain/lifecycle"
	"github.com/jhoicas/agencia-lifecycle/internal/domain/repository"
	"github.com/jhoicas/agencia-lifecycle/pkg/logger"
)

// SalesUseCase registra ventas y upsells junto con sus comisiones en la misma transacción.
type SalesUseCase struct {
	txRunner TxRunner
	clock    ports.Clock
	metrics  ports.LifecycleMetrics
	log      *logger.Logger
}

// NewSalesUseCase construye el caso de uso.
func NewSalesUseCase(txRunner TxRunner, clock ports.Clock, metrics ports.LifecycleMetrics, log *logger.Logger) *SalesUseCase {
	return &SalesUseCase{txRunner: txRunner, clock: clock, metrics: metrics, log: log}
}

// RegisterSale crea la venta copiando el sales_percentage actual del cliente y genera
// las tres comisiones (ninguna si el porcentaje es cero).
func (uc *SalesUseCase) RegisterSale(ctx context.Context, caller entity.Caller, clientID string, in dto.RegisterSaleRequest) (*entity.Sale, []*entity.Commission, error) {
	if !in.Value.IsPositive() {
		return nil, nil, fmt.Errorf("%w: el valor de la venta debe ser mayor que cero", domain.ErrInvalidInput)
	}
	if err := lifecycle.ValidateMoney("value", in.Value); err != nil {
		return nil, nil, err
	}
	now := uc.clock.Now()
	saleDate, err := parseDate(in.SaleDate, now)
	if err != nil {
		return nil, nil, err
	}

	var (
		sale        *entity.Sale
		commissions []*entity.Commission
	)
	err = uc.txRunner.RunSales(ctx, func(
		clientRepo repository.ClientRepository,
		saleRepo repository.SaleRepository,
		_ repository.UpsellRepository,
		commissionRepo repository.CommissionRepository,
	) error {
		c, err := clientRepo.GetByID(ctx, clientID)
		if err != nil {
			return err
		}
		if c == nil {
			return domain.ErrNotFound
		}
		sale = &entity.Sale{
			ID:                   uuid.New().String(),
			ClientID:             c.ID,
			Value:                in.Value,
			SaleDate:             saleDate,
			CommissionPercentage: c.SalesPercentage,
			CreatedBy:            caller.UserID,
			CreatedAt:            now,
		}
		commissions, err = lifecycle.SaleCommissions(sale, now)
		if err != nil {
			return err
		}
		if err := saleRepo.Create(ctx, sale); err != nil {
			return err
		}
		if len(commissions) == 0 {
			return nil
		}
		return createCommissions(ctx, commissionRepo, commissions)
	})
	if err != nil {
		return nil, nil, err
	}

	uc.metrics.AddCommissions(entity.CommissionTypeSale, len(commissions))
	uc.log.Info().
		Str("client_id", clientID).
		Str("sale_id", sale.ID).
		Str("value", sale.Value.StringFixed(2)).
		Str("percentage", sale.CommissionPercentage.String()).
		Int("commissions", len(commissions)).
		Msg("venta registrada")
	return sale, commissions, nil
}

// RegisterUpsell crea el upsell, agrega el producto al cliente y genera una sola comisión del 7%.
func (uc *SalesUseCase) RegisterUpsell(ctx context.Context, caller entity.Caller, clientID string, in dto.RegisterUpsellRequest) (*entity.Upsell, *entity.Commission, error) {
	slug := entity.NewProductSlug(in.ProductSlug)
	if slug == "" {
		return nil, nil, fmt.Errorf("%w: product_slug es requerido", domain.ErrInvalidInput)
	}
	if !in.MonthlyValue.IsPositive() {
		return nil, nil, fmt.Errorf("%w: monthly_value debe ser mayor que cero", domain.ErrInvalidInput)
	}
	if err := lifecycle.ValidateMoney("monthly_value", in.MonthlyValue); err != nil {
		return nil, nil, err
	}
	now := uc.clock.Now()

	var (
		upsell     *entity.Upsell
		commission *entity.Commission
	)
	err := uc.txRunner.RunSales(ctx, func(
		clientRepo repository.ClientRepository,
		_ repository.SaleRepository,
		upsellRepo repository.UpsellRepository,
		commissionRepo repository.CommissionRepository,
	) error {
		c, err := clientRepo.GetForUpdate(ctx, clientID)
		if err != nil {
			return err
		}
		if c == nil {
			return domain.ErrNotFound
		}
		upsell = &entity.Upsell{
			ID:           uuid.New().String(),
			ClientID:     c.ID,
			ProductSlug:  slug,
			MonthlyValue: in.MonthlyValue,
			CreatedBy:    caller.UserID,
			CreatedAt:    now,
		}
		commission, err = lifecycle.UpsellCommission(upsell, now)
		if err != nil {
			return err
		}
		if err := upsellRepo.Create(ctx, upsell); err != nil {
			return err
		}
		if !c.HasProduct(slug) {
			c.AddProduct(slug)
			c.UpdatedAt = now
			if err := clientRepo.Update(ctx, c); err != nil {
				return err
			}
		}
		return createCommissions(ctx, commissionRepo, []*entity.Commission{commission})
	})
	if err != nil {
		return nil, nil, err
	}

	uc.metrics.AddCommissions(entity.CommissionTypeUpsell, 1)
	uc.log.Info().
		Str("client_id", clientID).
		Str("upsell_id", upsell.ID).
		Str("product", string(slug)).
		Str("commission", commission.Value.StringFixed(2)).
		Msg("upsell registrado")
	return upsell, commission, nil
}

// createCommissions inserta las filas; una fuente ya comisionada es un conflicto.
func createCommissions(ctx context.Context, repo repository.CommissionRepository, list []*entity.Commission) error {
	if err := repo.CreateBatch(ctx, list); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return fmt.Errorf("%w: comisiones ya registradas para %s", domain.ErrConflict, list[0].SourceID)
		}
		return err
	}
	return nil
}
