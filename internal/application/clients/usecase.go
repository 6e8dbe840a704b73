package clients

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/agencia-lifecycle/internal/application/dto"
	"github.com/jhoicas/agencia-lifecycle/internal/application/ports"
	"github.com/jhoicas/agencia-lifecycle/internal/domain"
	"github.com/jhoicas/agencia-lifecycle/internal/domain/entity"
	"github.com/jhoicas/agencia-lifecycle/internal/domain/lifecycle"
	"github.com/jhoicas/agencia-lifecycle/internal/domain/repository"
	"github.com/jhoicas/agencia-lifecycle/pkg/logger"
)

// ClientView cliente con los productos para los que tiene churn registrado.
type ClientView struct {
	Client          *entity.Client
	ChurnedProducts []entity.ProductSlug
}

// ListFilter filtros de listado. ProductChurned solo aplica si Product no está vacío.
type ListFilter struct {
	Status          *entity.ClientStatus
	Product         entity.ProductSlug
	ProductChurned  *bool
	IncludeArchived bool
	Limit           int
	Offset          int
}

// ClientUseCase registro de clientes: alta, hitos, archivo, restauración y consultas.
type ClientUseCase struct {
	txRunner         TxRunner
	clientRepo       repository.ClientRepository
	productChurnRepo repository.ProductChurnRepository
	clock            ports.Clock
	metrics          ports.LifecycleMetrics
	log              *logger.Logger
}

// NewClientUseCase construye el caso de uso.
func NewClientUseCase(
	txRunner TxRunner,
	clientRepo repository.ClientRepository,
	productChurnRepo repository.ProductChurnRepository,
	clock ports.Clock,
	metrics ports.LifecycleMetrics,
	log *logger.Logger,
) *ClientUseCase {
	return &ClientUseCase{
		txRunner:         txRunner,
		clientRepo:       clientRepo,
		productChurnRepo: productChurnRepo,
		clock:            clock,
		metrics:          metrics,
		log:              log,
	}
}

// Create da de alta un cliente con estado new_client.
func (uc *ClientUseCase) Create(ctx context.Context, in dto.CreateClientRequest) (*entity.Client, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name es requerido", domain.ErrInvalidInput)
	}
	if err := lifecycle.ValidatePercentage(in.SalesPercentage); err != nil {
		return nil, err
	}
	if in.MonthlyValue.IsNegative() {
		return nil, fmt.Errorf("%w: monthly_value no puede ser negativo", domain.ErrInvalidInput)
	}
	if err := lifecycle.ValidateMoney("monthly_value", in.MonthlyValue); err != nil {
		return nil, err
	}
	now := uc.clock.Now()
	entry, err := parseDate(in.EntryDate, now)
	if err != nil {
		return nil, err
	}
	c := &entity.Client{
		ID:              uuid.New().String(),
		Name:            name,
		Status:          entity.ClientStatusNew,
		SalesPercentage: in.SalesPercentage,
		MonthlyValue:    in.MonthlyValue,
		EntryDate:       entry,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for _, p := range in.ContractedProducts {
		if slug := entity.NewProductSlug(p); slug != "" {
			c.AddProduct(slug)
		}
	}
	if err := uc.clientRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get devuelve el cliente con sus productos en churn.
func (uc *ClientUseCase) Get(ctx context.Context, id string) (*ClientView, error) {
	c, err := uc.clientRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	churns, err := uc.productChurnRepo.ListByClient(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ClientView{Client: c, ChurnedProducts: lifecycle.ChurnedProducts(churns)[id]}, nil
}

// List lista clientes por estado y, opcionalmente, por churn de un producto.
// La condición de churn se evalúa por producto de forma independiente al estado global.
func (uc *ClientUseCase) List(ctx context.Context, f ListFilter) ([]ClientView, error) {
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	filterByChurn := f.Product != "" && f.ProductChurned != nil

	repoFilter := repository.ClientFilter{
		Status:          f.Status,
		IncludeArchived: f.IncludeArchived,
		Limit:           f.Limit,
		Offset:          f.Offset,
	}
	if filterByChurn {
		// paginación después de filtrar en memoria
		repoFilter.Limit, repoFilter.Offset = 0, 0
	}

	var (
		list   []*entity.Client
		churns []*entity.ProductChurn
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		list, err = uc.clientRepo.List(gctx, repoFilter)
		return err
	})
	g.Go(func() error {
		var err error
		churns, err = uc.productChurnRepo.ListByProduct(gctx, "")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("listar clientes: %w", err)
	}

	byClient := lifecycle.ChurnedProducts(churns)
	out := make([]ClientView, 0, len(list))
	for _, c := range list {
		churned := byClient[c.ID]
		if filterByChurn {
			isChurned := containsSlug(churned, f.Product)
			if *f.ProductChurned != isChurned {
				continue
			}
			if !isChurned && !c.HasProduct(f.Product) {
				continue
			}
		}
		out = append(out, ClientView{Client: c, ChurnedProducts: churned})
	}
	if filterByChurn {
		out = paginate(out, f.Limit, f.Offset)
	}
	return out, nil
}

// StartOnboarding registra el hito de onboarding.
func (uc *ClientUseCase) StartOnboarding(ctx context.Context, id string) (*entity.Client, error) {
	return uc.mutate(ctx, id, lifecycle.StartOnboarding)
}

// PublishCampaign registra el hito de campaña publicada.
func (uc *ClientUseCase) PublishCampaign(ctx context.Context, id string) (*entity.Client, error) {
	return uc.mutate(ctx, id, lifecycle.PublishCampaign)
}

// Archive archiva un cliente en churn.
func (uc *ClientUseCase) Archive(ctx context.Context, id string) (*entity.Client, error) {
	return uc.mutate(ctx, id, lifecycle.Archive)
}

// Restore es la única salida del distrato global: limpia archivo y distrato
// y recalcula el estado por el hito más reciente.
func (uc *ClientUseCase) Restore(ctx context.Context, caller entity.Caller, id string) (*entity.Client, error) {
	c, err := uc.mutate(ctx, id, func(c *entity.Client, now time.Time) error {
		lifecycle.Restore(c, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.metrics.IncRestore()
	uc.log.Info().
		Str("client_id", c.ID).
		Str("status", string(c.Status)).
		Str("user_id", caller.UserID).
		Msg("cliente restaurado")
	return c, nil
}

// UpsertContract registra o actualiza el vencimiento del contrato en el registro de clientes activos.
func (uc *ClientUseCase) UpsertContract(ctx context.Context, clientID string, in dto.UpsertContractRequest) (*entity.ActiveClientContract, error) {
	if in.MonthlyValue.IsNegative() {
		return nil, fmt.Errorf("%w: monthly_value no puede ser negativo", domain.ErrInvalidInput)
	}
	if err := lifecycle.ValidateMoney("monthly_value", in.MonthlyValue); err != nil {
		return nil, err
	}
	var out *entity.ActiveClientContract
	err := uc.txRunner.RunClients(ctx, func(clientRepo repository.ClientRepository, activeRepo repository.ActiveClientRepository) error {
		c, err := clientRepo.GetByID(ctx, clientID)
		if err != nil {
			return err
		}
		if c == nil {
			return domain.ErrNotFound
		}
		if c.InDistrato() {
			return fmt.Errorf("%w: el cliente tiene un distrato en curso", domain.ErrInvalidState)
		}
		contract := &entity.ActiveClientContract{
			ClientID:          clientID,
			ContractExpiresAt: in.ContractExpiresAt,
			MonthlyValue:      in.MonthlyValue,
			UpdatedAt:         uc.clock.Now(),
		}
		if err := activeRepo.Upsert(ctx, contract); err != nil {
			return err
		}
		out = contract
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// mutate bloquea la fila del cliente, aplica fn y persiste dentro de una sola transacción.
func (uc *ClientUseCase) mutate(ctx context.Context, id string, fn func(*entity.Client, time.Time) error) (*entity.Client, error) {
	var out *entity.Client
	err := uc.txRunner.RunClients(ctx, func(clientRepo repository.ClientRepository, _ repository.ActiveClientRepository) error {
		c, err := clientRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if c == nil {
			return domain.ErrNotFound
		}
		if err := fn(c, uc.clock.Now()); err != nil {
			return err
		}
		if err := clientRepo.Update(ctx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// parseDate interpreta YYYY-MM-DD en UTC; vacío = día de now.
func parseDate(s string, now time.Time) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: fecha inválida %q (formato YYYY-MM-DD)", domain.ErrInvalidInput, s)
	}
	return t, nil
}

func containsSlug(list []entity.ProductSlug, slug entity.ProductSlug) bool {
	for _, s := range list {
		if s == slug {
			return true
		}
	}
	return false
}

func paginate(list []ClientView, limit, offset int) []ClientView {
	if offset >= len(list) {
		return []ClientView{}
	}
	end := offset + limit
	if end > len(list) {
		end = len(list)
	}
	return list[offset:end]
}
