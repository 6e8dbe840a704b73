package observability_test

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/agencia-lifecycle/internal/domain/entity"
	"github.com/jhoicas/agencia-lifecycle/internal/infrastructure/observability"
)

func TestMetrics_ContadoresDeNegocio(t *testing.T) {
	m := observability.NewMetrics()

	m.IncChurn(entity.ChurnKindGlobal, entity.TrackWithContract)
	m.IncChurn(entity.ChurnKindGlobal, entity.TrackWithContract)
	m.AddCommissions(entity.CommissionTypeSale, 3)
	m.IncRestore()
	m.IncCommissionPaid()
	m.IncPlanTransition(entity.PlanCompleted)

	n, err := testutil.GatherAndCount(m.Registry,
		"lifecycle_churns_total",
		"lifecycle_commissions_created_total",
		"lifecycle_restores_total",
		"lifecycle_commissions_paid_total",
		"lifecycle_action_plan_transitions_total",
	)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestMetrics_RegistryPropio(t *testing.T) {
	// dos instancias no colisionan
	assert.NotPanics(t, func() {
		observability.NewMetrics()
		observability.NewMetrics()
	})
}

func TestMetrics_MiddlewareYHandler(t *testing.T) {
	m := observability.NewMetrics()
	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/metrics", m.Handler())
	app.Get("/api/clients/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNotFound) })

	resp, err := app.Test(httptest.NewRequest("GET", "/api/clients/abc", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `lifecycle_http_requests_total{code="404",method="GET",route="/api/clients/:id"} 1`)
}
