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

// ChurnUseCase flujo de distrato: churn global (pista de 4 o 2 pasos) y churn por producto.
type ChurnUseCase struct {
	txRunner  TxRunner
	publisher ports.ChurnPublisher
	clock     ports.Clock
	metrics   ports.LifecycleMetrics
	log       *logger.Logger
}

// NewChurnUseCase construye el caso de uso.
func NewChurnUseCase(
	txRunner TxRunner,
	publisher ports.ChurnPublisher,
	clock ports.Clock,
	metrics ports.LifecycleMetrics,
	log *logger.Logger,
) *ChurnUseCase {
	return &ChurnUseCase{
		txRunner:  txRunner,
		publisher: publisher,
		clock:     clock,
		metrics:   metrics,
		log:       log,
	}
}

// InitiateGlobalChurn inicia el distrato global. La vigencia del contrato en el registro de
// clientes activos decide la pista. El cliente sale del registro y se emite una notificación.
// ErrConflict si ya hay un distrato en curso (también cuando otra transacción gana la carrera).
func (uc *ChurnUseCase) InitiateGlobalChurn(ctx context.Context, caller entity.Caller, clientID string) (*entity.Client, error) {
	now := uc.clock.Now()
	var (
		client       *entity.Client
		notification *entity.ChurnNotification
		track        entity.DistratoTrack
	)
	err := uc.txRunner.RunChurn(ctx, func(
		clientRepo repository.ClientRepository,
		activeRepo repository.ActiveClientRepository,
		_ repository.ProductChurnRepository,
		notificationRepo repository.ChurnNotificationRepository,
	) error {
		c, err := clientRepo.GetForUpdate(ctx, clientID)
		if err != nil {
			return err
		}
		if c == nil {
			return domain.ErrNotFound
		}
		if c.InDistrato() {
			return fmt.Errorf("%w: el cliente ya tiene un distrato en curso", domain.ErrConflict)
		}
		contract, err := activeRepo.GetByClientID(ctx, clientID)
		if err != nil {
			return err
		}
		valid := contract.IsValidAt(now)
		if err := lifecycle.StartGlobalDistrato(c, valid, now); err != nil {
			return err
		}
		track = lifecycle.TrackFor(valid)

		// La actualización condicional (distrato_step IS NULL) es la fuente de verdad.
		ok, err := clientRepo.StartDistrato(ctx, c.ID, *c.DistratoStep, now)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: distrato iniciado por otra operación", domain.ErrConflict)
		}
		if err := activeRepo.Delete(ctx, c.ID); err != nil {
			return err
		}
		notification = &entity.ChurnNotification{
			ID:           uuid.New().String(),
			ClientID:     c.ID,
			ClientName:   c.Name,
			Kind:         entity.ChurnKindGlobal,
			DistratoStep: *c.DistratoStep,
			MonthlyValue: c.MonthlyValue,
			CreatedBy:    caller.UserID,
			CreatedAt:    now,
		}
		if err := notificationRepo.Create(ctx, notification); err != nil {
			return err
		}
		client = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.IncChurn(entity.ChurnKindGlobal, track)
	uc.log.Info().
		Str("client_id", client.ID).
		Str("track", string(track)).
		Str("step", string(*client.DistratoStep)).
		Str("user_id", caller.UserID).
		Msg("distrato global iniciado")
	uc.publish(ctx, notification)
	return client, nil
}

// InitiateProductChurn registra el churn de un producto sin alterar el estado global del cliente.
func (uc *ChurnUseCase) InitiateProductChurn(ctx context.Context, caller entity.Caller, clientID, product string, in dto.ProductChurnRequest) (*entity.ProductChurn, error) {
	slug := entity.NewProductSlug(product)
	now := uc.clock.Now()
	pc, err := lifecycle.NewProductChurn(uuid.New().String(), clientID, slug, in.MonthlyValue, in.HasValidContract, now)
	if err != nil {
		return nil, err
	}

	var notification *entity.ChurnNotification
	err = uc.txRunner.RunChurn(ctx, func(
		clientRepo repository.ClientRepository,
		_ repository.ActiveClientRepository,
		productChurnRepo repository.ProductChurnRepository,
		notificationRepo repository.ChurnNotificationRepository,
	) error {
		c, err := clientRepo.GetByID(ctx, clientID)
		if err != nil {
			return err
		}
		if c == nil {
			return domain.ErrNotFound
		}
		if !c.HasProduct(slug) {
			return fmt.Errorf("%w: el cliente no contrata el producto %s", domain.ErrInvalidState, slug)
		}
		if err := productChurnRepo.Create(ctx, pc); err != nil {
			if errors.Is(err, domain.ErrDuplicate) {
				return fmt.Errorf("%w: ya existe churn del producto %s", domain.ErrConflict, slug)
			}
			return err
		}
		notification = &entity.ChurnNotification{
			ID:           uuid.New().String(),
			ClientID:     c.ID,
			ClientName:   c.Name,
			Kind:         entity.ChurnKindProduct,
			ProductSlug:  slug,
			DistratoStep: pc.Step,
			MonthlyValue: pc.MonthlyValue,
			CreatedBy:    caller.UserID,
			CreatedAt:    now,
		}
		return notificationRepo.Create(ctx, notification)
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.IncChurn(entity.ChurnKindProduct, lifecycle.TrackFor(pc.HasValidContract))
	uc.log.Info().
		Str("client_id", clientID).
		Str("product", string(slug)).
		Str("step", string(pc.Step)).
		Msg("churn de producto iniciado")
	uc.publish(ctx, notification)
	return pc, nil
}

// publish envía la notificación ya persistida; un fallo del broker no revierte el churn.
func (uc *ChurnUseCase) publish(ctx context.Context, n *entity.ChurnNotification) {
	if uc.publisher == nil || n == nil {
		return
	}
	if err := uc.publisher.PublishChurn(ctx, n); err != nil {
		uc.log.Warn().Err(err).
			Str("client_id", n.ClientID).
			Str("notification_id", n.ID).
			Msg("publicar notificación de churn")
	}
}
