package ports

import (
	"context"

	"github.com/jhoicas/agencia-lifecycle/internal/domain/entity"
)

// ChurnPublisher publica las notificaciones de churn hacia otros sistemas.
// Se invoca después del commit; la fila persistida es el registro de la notificación.
type ChurnPublisher interface {
	PublishChurn(ctx context.Context, n *entity.ChurnNotification) error
}

// LifecycleMetrics contadores de negocio del motor.
type LifecycleMetrics interface {
	IncChurn(kind string, track entity.DistratoTrack)
	IncRestore()
	AddCommissions(t entity.CommissionType, n int)
	IncCommissionPaid()
	IncPlanTransition(to entity.PlanStatus)
}

// NopMetrics implementación vacía de LifecycleMetrics.
type NopMetrics struct{}

func (NopMetrics) IncChurn(string, entity.DistratoTrack)     {}
func (NopMetrics) IncRestore()                               {}
func (NopMetrics) AddCommissions(entity.CommissionType, int) {}
func (NopMetrics) IncCommissionPaid()                        {}
func (NopMetrics) IncPlanTransition(entity.PlanStatus)       {}
