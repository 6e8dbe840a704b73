package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/agencia-lifecycle/internal/domain"
	"github.com/jhoicas/agencia-lifecycle/internal/domain/entity"
	"github.com/jhoicas/agencia-lifecycle/internal/domain/repository"
	"github.com/jhoicas/agencia-lifecycle/internal/infrastructure/postgres"
)

// Los ids que no son UUID se resuelven como "no existe" sin llegar a la base
// (el Querier es nil: cualquier consulta haría panic).

func TestIDMalFormado_ClienteNoExiste(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewClientRepository(nil)

	c, err := repo.GetByID(ctx, "abc")
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = repo.GetForUpdate(ctx, "abc")
	require.NoError(t, err)
	assert.Nil(t, c)

	ok, err := repo.StartDistrato(ctx, "abc", entity.DistratoChurnSolicitado, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIDMalFormado_RegistroDeActivosYChurns(t *testing.T) {
	ctx := context.Background()
	active := postgres.NewActiveClientRepository(nil)

	a, err := active.GetByClientID(ctx, "abc")
	require.NoError(t, err)
	assert.Nil(t, a)
	assert.NoError(t, active.Delete(ctx, "abc"))
	err = active.Upsert(ctx, &entity.ActiveClientContract{ClientID: "abc"})
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	churns, err := postgres.NewProductChurnRepository(nil).ListByClient(ctx, "abc")
	require.NoError(t, err)
	assert.Empty(t, churns)
}

func TestIDMalFormado_ComisionNoExiste(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewCommissionRepository(nil)

	c, err := repo.GetByID(ctx, "1; DROP TABLE commissions")
	require.NoError(t, err)
	assert.Nil(t, c)

	ok, err := repo.MarkPaid(ctx, "abc", time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIDMalFormado_PlanYTareaNoExisten(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewActionPlanRepository(nil)

	p, err := repo.GetByID(ctx, "abc")
	require.NoError(t, err)
	assert.Nil(t, p)

	list, err := repo.List(ctx, repository.ActionPlanFilter{ClientID: "abc"})
	require.NoError(t, err)
	assert.Empty(t, list)

	ok, err := repo.UpdateStatus(ctx, "abc", entity.PlanActive, entity.PlanCompleted, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.Delete(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)

	task, err := repo.GetTask(ctx, "abc")
	require.NoError(t, err)
	assert.Nil(t, task)

	assert.True(t, errors.Is(repo.SetTaskCompleted(ctx, "abc", true, nil), domain.ErrNotFound))
	assert.True(t, errors.Is(repo.CreateTask(ctx, &entity.ActionPlanTask{PlanID: "abc"}), domain.ErrNotFound))
}
