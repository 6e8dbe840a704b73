package clients_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/agencia-lifecycle/internal/application/clients"
	"github.com/jhoicas/agencia-lifecycle/internal/application/dto"
	"github.com/jhoicas/agencia-lifecycle/internal/application/ports"
	"github.com/jhoicas/agencia-lifecycle/internal/domain"
	"github.com/jhoicas/agencia-lifecycle/internal/domain/entity"
	"github.com/jhoicas/agencia-lifecycle/internal/domain/repository"
	"github.com/jhoicas/agencia-lifecycle/internal/infrastructure/memory"
	"github.com/jhoicas/agencia-lifecycle/pkg/logger"
)

var (
	testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	admin   = entity.Caller{UserID: "u-admin", Role: entity.RoleAdmin}
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	store     *memory.Store
	clients   *clients.ClientUseCase
	sales     *clients.SalesUseCase
	churn     *clients.ChurnUseCase
	published *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, nil)
}

// newFixtureWith permite envolver el TxRunner (fallos inyectados).
func newFixtureWith(t *testing.T, wrap func(*memory.Store) clients.TxRunner) *fixture {
	t.Helper()
	store := memory.NewStore()
	var tx clients.TxRunner = store
	if wrap != nil {
		tx = wrap(store)
	}
	clock := ports.FixedClock{T: testNow}
	pub := &recordingPublisher{}
	log := logger.Nop()
	return &fixture{
		store:     store,
		clients:   clients.NewClientUseCase(tx, store.Clients(), store.ProductChurns(), clock, ports.NopMetrics{}, log),
		sales:     clients.NewSalesUseCase(tx, clock, ports.NopMetrics{}, log),
		churn:     clients.NewChurnUseCase(tx, pub, clock, ports.NopMetrics{}, log),
		published: pub,
	}
}

func (f *fixture) newClient(t *testing.T, name, pct string, products ...string) *entity.Client {
	t.Helper()
	c, err := f.clients.Create(context.Background(), dto.CreateClientRequest{
		Name:               name,
		SalesPercentage:    dec(pct),
		MonthlyValue:       dec("1500"),
		ContractedProducts: products,
	})
	require.NoError(t, err)
	return c
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent []*entity.ChurnNotification
	err  error
}

func (p *recordingPublisher) PublishChurn(_ context.Context, n *entity.ChurnNotification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, n)
	return p.err
}

// ── Registro de clientes ─────────────────────────────────────────────────────

func TestCreate_EstadoInicialYProductosNormalizados(t *testing.T) {
	f := newFixture(t)
	c := f.newClient(t, "  Acme  ", "30", "Tráfego Pago", "trafego-pago", "SEO")

	assert.Equal(t, "Acme", c.Name)
	assert.Equal(t, entity.ClientStatusNew, c.Status)
	assert.Nil(t, c.DistratoStep)
	assert.Equal(t, []entity.ProductSlug{"trafego-pago", "seo"}, c.ContractedProducts)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), c.EntryDate)
}

func TestCreate_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.clients.Create(ctx, dto.CreateClientRequest{Name: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.clients.Create(ctx, dto.CreateClientRequest{Name: "X", SalesPercentage: dec("101")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.clients.Create(ctx, dto.CreateClientRequest{Name: "X", EntryDate: "10/03/2024"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreate_ImportesConMasDeDosDecimales(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.clients.Create(ctx, dto.CreateClientRequest{Name: "X", SalesPercentage: dec("12.345")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.clients.Create(ctx, dto.CreateClientRequest{Name: "X", SalesPercentage: dec("10"), MonthlyValue: dec("1500.001")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	list, err := f.clients.List(ctx, clients.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	c := f.newClient(t, "Acme", "12.34")
	assert.True(t, dec("12.34").Equal(c.SalesPercentage))

	expires := testNow.AddDate(1, 0, 0)
	_, err = f.clients.UpsertContract(ctx, c.ID, dto.UpsertContractRequest{ContractExpiresAt: &expires, MonthlyValue: dec("99.999")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGet_NoExiste(t *testing.T) {
	f := newFixture(t)
	_, err := f.clients.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHitos_OnboardingYCampana(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.newClient(t, "Acme", "10")

	c, err := f.clients.StartOnboarding(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ClientStatusOnboarding, c.Status)

	c, err = f.clients.PublishCampaign(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ClientStatusCampaignPublished, c.Status)
	require.NotNil(t, c.CampaignPublishedAt)
}

// ── Ventas y upsells ─────────────────────────────────────────────────────────

func TestRegisterSale_GeneraTresComisiones(t *testing.T) {
	f := newFixture(t)
	c := f.newClient(t, "Acme", "30")

	sale, list, err := f.sales.RegisterSale(context.Background(), admin, c.ID, dto.RegisterSaleRequest{Value: dec("1000")})
	require.NoError(t, err)
	assert.True(t, dec("30").Equal(sale.CommissionPercentage))
	require.Len(t, list, 3)
	for _, cm := range list {
		assert.True(t, dec("100").Equal(cm.Value), cm.RecipientRole)
		assert.Equal(t, entity.CommissionPending, cm.Status)
		assert.Equal(t, sale.ID, cm.SourceID)
	}

	stored, err := f.store.Commissions().ListBetween(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Len(t, stored, 3)
}

func TestRegisterSale_PorcentajeCeroSinComisiones(t *testing.T) {
	f := newFixture(t)
	c := f.newClient(t, "Acme", "0")

	sale, list, err := f.sales.RegisterSale(context.Background(), admin, c.ID, dto.RegisterSaleRequest{Value: dec("1000")})
	require.NoError(t, err)
	assert.NotEmpty(t, sale.ID)
	assert.Empty(t, list)
}

func TestRegisterSale_CopiaPorcentajeVigente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.newClient(t, "Acme", "10")

	sale, _, err := f.sales.RegisterSale(ctx, admin, c.ID, dto.RegisterSaleRequest{Value: dec("100")})
	require.NoError(t, err)

	// un cambio posterior del porcentaje no altera la venta ya registrada
	c.SalesPercentage = dec("50")
	require.NoError(t, f.store.Clients().Update(ctx, c))

	sales, err := f.store.Sales().ListByClient(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, sale.ID, sales[0].ID)
	assert.True(t, dec("10").Equal(sales[0].CommissionPercentage))
}

func TestRegisterSale_ValorInvalidoYClienteInexistente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.sales.RegisterSale(ctx, admin, "c-x", dto.RegisterSaleRequest{Value: dec("0")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, _, err = f.sales.RegisterSale(ctx, admin, "c-x", dto.RegisterSaleRequest{Value: dec("10")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegisterSale_ValorConMasDeDosDecimales(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.newClient(t, "Acme", "30", "seo")

	_, _, err := f.sales.RegisterSale(ctx, admin, c.ID, dto.RegisterSaleRequest{Value: dec("0.001")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	sales, err := f.store.Sales().ListByClient(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, sales)
	stored, err := f.store.Commissions().ListBetween(ctx, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, stored)

	_, _, err = f.sales.RegisterUpsell(ctx, admin, c.ID, dto.RegisterUpsellRequest{ProductSlug: "social-media", MonthlyValue: dec("500.005")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	got, err := f.clients.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []entity.ProductSlug{"seo"}, got.Client.ContractedProducts)
}

// failingCommissions hace fallar la inserción de comisiones dentro de RunSales.
type failingCommissions struct {
	*memory.Store
}

type brokenCommissionRepo struct {
	repository.CommissionRepository
}

func (brokenCommissionRepo) CreateBatch(context.Context, []*entity.Commission) error {
	return errors.New("disk full")
}

func (f failingCommissions) RunSales(ctx context.Context, fn func(
	repository.ClientRepository,
	repository.SaleRepository,
	repository.UpsellRepository,
	repository.CommissionRepository,
) error) error {
	return f.Store.RunSales(ctx, func(c repository.ClientRepository, s repository.SaleRepository, u repository.UpsellRepository, cm repository.CommissionRepository) error {
		return fn(c, s, u, brokenCommissionRepo{cm})
	})
}

func TestRegisterSale_FalloDeComisionesRevierteVenta(t *testing.T) {
	f := newFixtureWith(t, func(s *memory.Store) clients.TxRunner { return failingCommissions{s} })
	ctx := context.Background()
	c := f.newClient(t, "Acme", "30", "seo")

	_, _, err := f.sales.RegisterSale(ctx, admin, c.ID, dto.RegisterSaleRequest{Value: dec("1000")})
	require.Error(t, err)

	sales, err := f.store.Sales().ListByClient(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, sales, "sin venta huérfana")

	_, _, err = f.sales.RegisterUpsell(ctx, admin, c.ID, dto.RegisterUpsellRequest{ProductSlug: "Social Media", MonthlyValue: dec("500")})
	require.Error(t, err)

	got, err := f.clients.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []entity.ProductSlug{"seo"}, got.Client.ContractedProducts, "el producto del upsell no queda agregado")
}

func TestRegisterUpsell_SietePorCientoYProductoAgregado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.newClient(t, "Acme", "30", "seo")

	up, cm, err := f.sales.RegisterUpsell(ctx, admin, c.ID, dto.RegisterUpsellRequest{ProductSlug: "Social Media", MonthlyValue: dec("500")})
	require.NoError(t, err)
	assert.Equal(t, entity.ProductSlug("social-media"), up.ProductSlug)
	assert.Equal(t, entity.CommissionTypeUpsell, cm.Type)
	assert.Equal(t, entity.RecipientConsultorComercial, cm.RecipientRole)
	assert.True(t, dec("35").Equal(cm.Value))

	got, err := f.clients.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []entity.ProductSlug{"seo", "social-media"}, got.Client.ContractedProducts)
}

// ── Distrato global ──────────────────────────────────────────────────────────

func TestInitiateGlobalChurn_SinContratoDosPasos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.newClient(t, "Acme", "10")

	got, err := f.churn.InitiateGlobalChurn(ctx, admin, c.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ClientStatusChurned, got.Status)
	require.NotNil(t, got.DistratoStep)
	assert.Equal(t, entity.DistratoSemContratoSolicitado, *got.DistratoStep)

	notes := f.store.NotificationsFor(c.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, entity.ChurnKindGlobal, notes[0].Kind)
	assert.Len(t, f.published.sent, 1)
}

func TestInitiateGlobalChurn_ContratoVigenteCuatroPasos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.newClient(t, "Acme", "10")
	expires := testNow.AddDate(0, 6, 0)
	_, err := f.clients.UpsertContract(ctx, c.ID, dto.UpsertContractRequest{ContractExpiresAt: &expires, MonthlyValue: dec("1500")})
	require.NoError(t, err)

	got, err := f.churn.InitiateGlobalChurn(ctx, admin, c.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DistratoChurnSolicitado, *got.DistratoStep)

	active, err := f.store.ActiveClients().GetByClientID(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, active, "el cliente sale del registro de activos")
}

func TestInitiateGlobalChurn_ContratoVencidoDosPasos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.newClient(t, "Acme", "10")
	expired := testNow.AddDate(0, 0, -1)
	_, err := f.clients.UpsertContract(ctx, c.ID, dto.UpsertContractRequest{ContractExpiresAt: &expired})
	require.NoError(t, err)

	got, err := f.churn.InitiateGlobalChurn(ctx, admin, c.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DistratoSemContratoSolicitado, *got.DistratoStep)
}

func TestInitiateGlobalChurn_SegundaVezEsConflicto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.newClient(t, "Acme", "10")

	_, err := f.churn.InitiateGlobalChurn(ctx, admin, c.ID)
	require.NoError(t, err)
	_, err = f.churn.InitiateGlobalChurn(ctx, admin, c.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Len(t, f.store.NotificationsFor(c.ID), 1)
}

func TestInitiateGlobalChurn_ConcurrenteUnSoloGanador(t *testing.T) {
	f := newFixture(t)
	c := f.newClient(t, "Acme", "10")

	const n = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.churn.InitiateGlobalChurn(context.Background(), admin, c.ID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if errors.Is(err, domain.ErrConflict) {
				conflicts++
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflicts)
	assert.Len(t, f.store.NotificationsFor(c.ID), 1)
}

func TestInitiateGlobalChurn_FalloDelBrokerNoRevierte(t *testing.T) {
	f := newFixture(t)
	f.published.err = errors.New("broker caído")
	c := f.newClient(t, "Acme", "10")

	got, err := f.churn.InitiateGlobalChurn(context.Background(), admin, c.ID)
	require.NoError(t, err)
	assert.True(t, got.InDistrato())
	assert.Len(t, f.store.NotificationsFor(c.ID), 1)
}

func TestUpsertContract_RechazadoDuranteDistrato(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.newClient(t, "Acme", "10")
	_, err := f.churn.InitiateGlobalChurn(ctx, admin, c.ID)
	require.NoError(t, err)

	_, err = f.clients.UpsertContract(ctx, c.ID, dto.UpsertContractRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

// ── Restauración y archivo ───────────────────────────────────────────────────

func TestRestore_VuelveAlHitoMasReciente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.newClient(t, "Acme", "10")
	_, err := f.clients.StartOnboarding(ctx, c.ID)
	require.NoError(t, err)
	_, err = f.churn.InitiateGlobalChurn(ctx, admin, c.ID)
	require.NoError(t, err)
	_, err = f.clients.Archive(ctx, c.ID)
	require.NoError(t, err)

	got, err := f.clients.Restore(ctx, admin, c.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ClientStatusOnboarding, got.Status)
	assert.False(t, got.Archived)
	assert.Nil(t, got.DistratoStep)
	assert.Nil(t, got.DistratoEnteredAt)

	// tras restaurar se puede iniciar un nuevo distrato
	_, err = f.churn.InitiateGlobalChurn(ctx, admin, c.ID)
	assert.NoError(t, err)
}

func TestArchive_SoloChurned(t *testing.T) {
	f := newFixture(t)
	c := f.newClient(t, "Acme", "10")

	_, err := f.clients.Archive(context.Background(), c.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestHitos_RechazadosEnChurn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.newClient(t, "Acme", "10")
	_, err := f.churn.InitiateGlobalChurn(ctx, admin, c.ID)
	require.NoError(t, err)

	_, err = f.clients.StartOnboarding(ctx, c.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

// ── Churn por producto ───────────────────────────────────────────────────────

func TestInitiateProductChurn_IndependienteDelEstadoGlobal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.newClient(t, "Acme", "10", "seo", "trafego-pago")
	_, err := f.clients.StartOnboarding(ctx, c.ID)
	require.NoError(t, err)

	pc, err := f.churn.InitiateProductChurn(ctx, admin, c.ID, "SEO", dto.ProductChurnRequest{MonthlyValue: dec("300"), HasValidContract: true})
	require.NoError(t, err)
	assert.Equal(t, entity.DistratoChurnSolicitado, pc.Step)

	got, err := f.clients.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ClientStatusOnboarding, got.Client.Status, "el estado global no cambia")
	assert.Nil(t, got.Client.DistratoStep)
	assert.Equal(t, []entity.ProductSlug{"seo"}, got.ChurnedProducts)

	notes := f.store.NotificationsFor(c.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, entity.ChurnKindProduct, notes[0].Kind)
	assert.Equal(t, entity.ProductSlug("seo"), notes[0].ProductSlug)
}

func TestInitiateProductChurn_DuplicadoEsConflicto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.newClient(t, "Acme", "10", "seo")

	_, err := f.churn.InitiateProductChurn(ctx, admin, c.ID, "seo", dto.ProductChurnRequest{})
	require.NoError(t, err)
	_, err = f.churn.InitiateProductChurn(ctx, admin, c.ID, "seo", dto.ProductChurnRequest{})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestInitiateProductChurn_EnClienteConDistratoGlobal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.newClient(t, "Acme", "10", "seo")
	_, err := f.churn.InitiateGlobalChurn(ctx, admin, c.ID)
	require.NoError(t, err)

	pc, err := f.churn.InitiateProductChurn(ctx, admin, c.ID, "seo", dto.ProductChurnRequest{})
	require.NoError(t, err)
	assert.Equal(t, entity.DistratoSemContratoSolicitado, pc.Step)
}

func TestInitiateProductChurn_ProductoNoContratado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.newClient(t, "Acme", "10", "seo")

	_, err := f.churn.InitiateProductChurn(ctx, admin, c.ID, "trafego-pago", dto.ProductChurnRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	got, err := f.clients.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, got.ChurnedProducts)
	assert.Empty(t, f.store.NotificationsFor(c.ID))
}

func TestInitiateProductChurn_ValorConMasDeDosDecimales(t *testing.T) {
	f := newFixture(t)
	c := f.newClient(t, "Acme", "10", "seo")

	_, err := f.churn.InitiateProductChurn(context.Background(), admin, c.ID, "seo", dto.ProductChurnRequest{MonthlyValue: dec("300.123")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ── Consultas ────────────────────────────────────────────────────────────────

func TestList_FiltroPorChurnDeProducto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.newClient(t, "A", "10", "seo")
	b := f.newClient(t, "B", "10", "seo")
	f.newClient(t, "C", "10", "trafego-pago")

	_, err := f.churn.InitiateProductChurn(ctx, admin, a.ID, "seo", dto.ProductChurnRequest{})
	require.NoError(t, err)

	yes, no := true, false
	churned, err := f.clients.List(ctx, clients.ListFilter{Product: "seo", ProductChurned: &yes})
	require.NoError(t, err)
	require.Len(t, churned, 1)
	assert.Equal(t, a.ID, churned[0].Client.ID)

	active, err := f.clients.List(ctx, clients.ListFilter{Product: "seo", ProductChurned: &no})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, b.ID, active[0].Client.ID)
}

func TestList_ArchivadosOcultosPorDefecto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.newClient(t, "A", "10")
	f.newClient(t, "B", "10")
	_, err := f.churn.InitiateGlobalChurn(ctx, admin, a.ID)
	require.NoError(t, err)
	_, err = f.clients.Archive(ctx, a.ID)
	require.NoError(t, err)

	list, err := f.clients.List(ctx, clients.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = f.clients.List(ctx, clients.ListFilter{IncludeArchived: true})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	st := entity.ClientStatusChurned
	list, err = f.clients.List(ctx, clients.ListFilter{Status: &st, IncludeArchived: true})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].Client.ID)
}
