package commissions_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/agencia-lifecycle/internal/application/commissions"
	"github.com/jhoicas/agencia-lifecycle/internal/application/ports"
	"github.com/jhoicas/agencia-lifecycle/internal/domain"
	"github.com/jhoicas/agencia-lifecycle/internal/domain/entity"
	"github.com/jhoicas/agencia-lifecycle/internal/infrastructure/memory"
	"github.com/jhoicas/agencia-lifecycle/pkg/logger"
)

var (
	testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	admin   = entity.Caller{UserID: "u-admin", Role: entity.RoleAdmin}
)

func seed(t *testing.T, store *memory.Store, list ...*entity.Commission) {
	t.Helper()
	require.NoError(t, store.Commissions().CreateBatch(context.Background(), list))
}

func commission(id string, typ entity.CommissionType, role entity.RecipientRole, value string, at time.Time) *entity.Commission {
	return &entity.Commission{
		ID:            id,
		Type:          typ,
		SourceID:      "src-" + id,
		ClientID:      "c1",
		Value:         decimal.RequireFromString(value),
		Status:        entity.CommissionPending,
		RecipientRole: role,
		CreatedAt:     at,
	}
}

func newUseCase(store *memory.Store) *commissions.CommissionUseCase {
	return commissions.NewCommissionUseCase(store, store.Commissions(), ports.FixedClock{T: testNow}, ports.NopMetrics{}, logger.Nop())
}

func TestMarkPaid_Upsell(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, commission("u1", entity.CommissionTypeUpsell, entity.RecipientConsultorComercial, "35", testNow))
	uc := newUseCase(store)

	got, err := uc.MarkPaid(context.Background(), admin, "u1")
	require.NoError(t, err)
	assert.Equal(t, entity.CommissionPaid, got.Status)
	require.NotNil(t, got.PaidAt)
	assert.Equal(t, testNow, *got.PaidAt)

	// segunda vez: ya no está pendiente
	_, err = uc.MarkPaid(context.Background(), admin, "u1")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestMarkPaid_VentaNoSePaga(t *testing.T) {
	store := memory.NewStore()
	seed(t, store, commission("s1", entity.CommissionTypeSale, entity.RecipientAdsManager, "100", testNow))
	uc := newUseCase(store)

	_, err := uc.MarkPaid(context.Background(), admin, "s1")
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	c, err := store.Commissions().GetByID(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, entity.CommissionPending, c.Status)
}

func TestMarkPaid_NoExiste(t *testing.T) {
	_, err := newUseCase(memory.NewStore()).MarkPaid(context.Background(), admin, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSummary_AgrupaPorRolYMes(t *testing.T) {
	store := memory.NewStore()
	feb := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	seed(t, store,
		commission("a", entity.CommissionTypeSale, entity.RecipientAdsManager, "100", feb),
		commission("b", entity.CommissionTypeSale, entity.RecipientAdsManager, "50", testNow),
		commission("c", entity.CommissionTypeUpsell, entity.RecipientConsultorComercial, "35", testNow),
	)
	uc := newUseCase(store)
	_, err := uc.MarkPaid(context.Background(), admin, "c")
	require.NoError(t, err)

	groups, err := uc.Summary(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Len(t, groups, 3)
	assert.Equal(t, "2024-02", groups[0].Month)
	assert.Equal(t, "2024-03", groups[1].Month)

	for _, g := range groups {
		if g.RecipientRole == entity.RecipientConsultorComercial {
			assert.True(t, decimal.RequireFromString("35").Equal(g.Paid))
			assert.True(t, g.Pending.IsZero())
		}
	}

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	groups, err = uc.Summary(context.Background(), &from, nil)
	require.NoError(t, err)
	assert.Len(t, groups, 2)
}

func TestSummary_RangoInvalido(t *testing.T) {
	uc := newUseCase(memory.NewStore())
	from := testNow
	to := testNow.Add(-time.Hour)
	_, err := uc.Summary(context.Background(), &from, &to)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
