// Package observability expone métricas Prometheus del motor y del transporte HTTP.
package observability

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/agencia-lifecycle/internal/application/ports"
	"github.com/jhoicas/agencia-lifecycle/internal/domain/entity"
)

var _ ports.LifecycleMetrics = (*Metrics)(nil)

// Metrics contadores de negocio y de HTTP en un registry propio
// (NewMetrics se puede llamar varias veces en tests sin "duplicate collector").
type Metrics struct {
	Registry *prometheus.Registry

	churns          *prometheus.CounterVec
	restores        prometheus.Counter
	commissions     *prometheus.CounterVec
	commissionsPaid prometheus.Counter
	planTransitions *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// NewMetrics crea el registry y registra todas las métricas.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		churns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lifecycle_churns_total",
				Help: "Churns iniciados por tipo (global|product) y pista de distrato.",
			},
			[]string{"kind", "track"},
		),
		restores: factory.NewCounter(prometheus.CounterOpts{
			Name: "lifecycle_restores_total",
			Help: "Clientes restaurados desde churn.",
		}),
		commissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lifecycle_commissions_created_total",
				Help: "Filas de comisión creadas por tipo.",
			},
			[]string{"type"},
		),
		commissionsPaid: factory.NewCounter(prometheus.CounterOpts{
			Name: "lifecycle_commissions_paid_total",
			Help: "Comisiones marcadas como pagadas.",
		}),
		planTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lifecycle_action_plan_transitions_total",
				Help: "Cierres de planes de acción por estado destino.",
			},
			[]string{"to"},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lifecycle_http_requests_total",
				Help: "Solicitudes HTTP por ruta, método y código.",
			},
			[]string{"route", "method", "code"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lifecycle_http_request_duration_seconds",
				Help:    "Duración de las solicitudes HTTP por ruta.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
	}
}

func (m *Metrics) IncChurn(kind string, track entity.DistratoTrack) {
	m.churns.WithLabelValues(kind, string(track)).Inc()
}

func (m *Metrics) IncRestore() { m.restores.Inc() }

func (m *Metrics) AddCommissions(t entity.CommissionType, n int) {
	m.commissions.WithLabelValues(string(t)).Add(float64(n))
}

func (m *Metrics) IncCommissionPaid() { m.commissionsPaid.Inc() }

func (m *Metrics) IncPlanTransition(to entity.PlanStatus) {
	m.planTransitions.WithLabelValues(string(to)).Inc()
}

// Middleware registra cantidad y duración por ruta registrada (no por path crudo, para acotar cardinalidad).
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		route := c.Route().Path
		m.httpRequests.WithLabelValues(route, c.Method(), strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(route, c.Method()).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler expone el registry en formato Prometheus sobre fiber.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
}
