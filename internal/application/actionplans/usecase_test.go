package actionplans_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/agencia-lifecycle/internal/application/actionplans"
	"github.com/jhoicas/agencia-lifecycle/internal/application/dto"
	"github.com/jhoicas/agencia-lifecycle/internal/application/ports"
	"github.com/jhoicas/agencia-lifecycle/internal/domain"
	"github.com/jhoicas/agencia-lifecycle/internal/domain/entity"
	"github.com/jhoicas/agencia-lifecycle/internal/infrastructure/memory"
	"github.com/jhoicas/agencia-lifecycle/pkg/logger"
)

var (
	testNow = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	gestor  = entity.Caller{UserID: "u-gestor", Role: entity.RoleGestor}
)

type fixture struct {
	store *memory.Store
	clock *ports.FixedClock // se avanza entre llamadas
	uc    *actionplans.ActionPlanUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	clock := &ports.FixedClock{T: testNow}
	require.NoError(t, store.Clients().Create(context.Background(), &entity.Client{
		ID:           "c1",
		Name:         "Acme",
		Status:       entity.ClientStatusOnboarding,
		MonthlyValue: decimal.NewFromInt(1500),
		CreatedAt:    testNow,
	}))
	return &fixture{
		store: store,
		clock: clock,
		uc:    actionplans.NewActionPlanUseCase(store, store.ActionPlans(), clock, ports.NopMetrics{}, logger.Nop()),
	}
}

func (f *fixture) create(t *testing.T, sev string, tasks ...string) *actionplans.PlanView {
	t.Helper()
	in := dto.CreateActionPlanRequest{
		ClientID:    "c1",
		ProblemType: "baja conversión",
		Severity:    sev,
		Indicators:  []string{"CTR bajo", " CPL alto ", "CTR bajo"},
	}
	for _, title := range tasks {
		in.Tasks = append(in.Tasks, dto.CreateTaskRequest{Title: title})
	}
	v, err := f.uc.Create(context.Background(), gestor, in)
	require.NoError(t, err)
	return v
}

// ── Creación ─────────────────────────────────────────────────────────────────

func TestCreate_CriticoVenceANoventaDias(t *testing.T) {
	f := newFixture(t)
	v := f.create(t, "critico", "revisar campañas", "nuevo creativo")

	assert.Equal(t, entity.PlanActive, v.Plan.Status)
	assert.Equal(t, time.Date(2024, 3, 31, 9, 0, 0, 0, time.UTC), v.Plan.DueDate)
	assert.Equal(t, []string{"CTR bajo", "CPL alto"}, v.Plan.Indicators)
	assert.Zero(t, v.Progress)
	assert.False(t, v.Overdue)

	got, err := f.uc.Get(context.Background(), v.Plan.ID)
	require.NoError(t, err)
	require.Len(t, got.Plan.Tasks, 2)
	assert.Equal(t, "revisar campañas", got.Plan.Tasks[0].Title)
	assert.Equal(t, entity.TaskAction, got.Plan.Tasks[0].TaskType)
}

func TestCreate_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := dto.CreateActionPlanRequest{ClientID: "c1", ProblemType: "x", Severity: "leve", Indicators: []string{"a"}}

	_, err := f.uc.Create(ctx, entity.Caller{UserID: "u", Role: entity.RoleAdsManager}, base)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	in := base
	in.Indicators = []string{" ", ""}
	_, err = f.uc.Create(ctx, gestor, in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	in = base
	in.Severity = "grave"
	_, err = f.uc.Create(ctx, gestor, in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	in = base
	in.Tasks = []dto.CreateTaskRequest{{Title: "t", TaskType: "otro"}}
	_, err = f.uc.Create(ctx, gestor, in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	in = base
	in.ClientID = "nope"
	_, err = f.uc.Create(ctx, gestor, in)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreate_ClienteArchivado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.store.Clients().GetByID(ctx, "c1")
	require.NoError(t, err)
	c.Status = entity.ClientStatusChurned
	c.Archived = true
	require.NoError(t, f.store.Clients().Update(ctx, c))

	_, err = f.uc.Create(ctx, gestor, dto.CreateActionPlanRequest{ClientID: "c1", ProblemType: "x", Severity: "leve", Indicators: []string{"a"}})
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	plans, err := f.uc.List(ctx, "c1", "")
	require.NoError(t, err)
	assert.Empty(t, plans)
}

// ── Checklist ────────────────────────────────────────────────────────────────

func TestToggleTask_NoCambiaEstadoDelPlan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.create(t, "leve", "única tarea")
	taskID := v.Plan.Tasks[0].ID

	task, err := f.uc.ToggleTask(ctx, taskID, true)
	require.NoError(t, err)
	assert.True(t, task.IsCompleted)
	require.NotNil(t, task.CompletedAt)

	got, err := f.uc.Get(ctx, v.Plan.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PlanActive, got.Plan.Status, "100% de tareas no completa el plan")
	assert.Equal(t, 100.0, got.Progress)

	task, err = f.uc.ToggleTask(ctx, taskID, false)
	require.NoError(t, err)
	assert.False(t, task.IsCompleted)
	assert.Nil(t, task.CompletedAt)
}

func TestAddTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.create(t, "moderado", "a")

	_, err := f.uc.AddTask(ctx, v.Plan.ID, dto.CreateTaskRequest{Title: "b", TaskType: "quick_win"})
	require.NoError(t, err)
	_, err = f.uc.AddTask(ctx, "nope", dto.CreateTaskRequest{Title: "b"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := f.uc.Get(ctx, v.Plan.ID)
	require.NoError(t, err)
	require.Len(t, got.Plan.Tasks, 2)
	assert.Equal(t, entity.TaskQuickWin, got.Plan.Tasks[1].TaskType)
}

func TestToggleTask_NoExiste(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.ToggleTask(context.Background(), "nope", true)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ── Estado ───────────────────────────────────────────────────────────────────

func TestUpdateStatus_NoTocaTareas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.create(t, "leve", "a", "b")

	got, err := f.uc.UpdateStatus(ctx, gestor, v.Plan.ID, "completed")
	require.NoError(t, err)
	assert.Equal(t, entity.PlanCompleted, got.Plan.Status)
	for _, task := range got.Plan.Tasks {
		assert.False(t, task.IsCompleted)
	}
	assert.Zero(t, got.Progress)
}

func TestUpdateStatus_Transiciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.create(t, "leve")

	_, err := f.uc.UpdateStatus(ctx, gestor, v.Plan.ID, "active")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.UpdateStatus(ctx, gestor, v.Plan.ID, "cancelled")
	require.NoError(t, err)

	_, err = f.uc.UpdateStatus(ctx, gestor, v.Plan.ID, "completed")
	assert.ErrorIs(t, err, domain.ErrInvalidState, "los estados terminales no salen")

	_, err = f.uc.UpdateStatus(ctx, gestor, "nope", "completed")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOverdue_SoloActivosVencidos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	active := f.create(t, "leve")
	closed := f.create(t, "leve")
	_, err := f.uc.UpdateStatus(ctx, gestor, closed.Plan.ID, "completed")
	require.NoError(t, err)

	f.clock.T = testNow.AddDate(0, 0, 31)

	got, err := f.uc.Get(ctx, active.Plan.ID)
	require.NoError(t, err)
	assert.True(t, got.Overdue)

	got, err = f.uc.Get(ctx, closed.Plan.ID)
	require.NoError(t, err)
	assert.False(t, got.Overdue)
}

func TestList_PorEstado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t, "leve")
	f.create(t, "moderado")
	_, err := f.uc.UpdateStatus(ctx, gestor, a.Plan.ID, "cancelled")
	require.NoError(t, err)

	list, err := f.uc.List(ctx, "", "active")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = f.uc.List(ctx, "", "archived")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ── Borrado ──────────────────────────────────────────────────────────────────

func TestDelete_Cascada(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.create(t, "critico", "a")
	taskID := v.Plan.Tasks[0].ID

	require.NoError(t, f.uc.Delete(ctx, v.Plan.ID))

	_, err := f.uc.Get(ctx, v.Plan.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.uc.ToggleTask(ctx, taskID, true)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, f.uc.Delete(ctx, v.Plan.ID), domain.ErrNotFound)
}
