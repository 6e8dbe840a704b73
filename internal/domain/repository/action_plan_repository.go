package repository

import (
	"context"
	"time"

	"github.com/jhoicas/agencia-lifecycle/internal/domain/entity"
)

// ActionPlanFilter filtros para listar planes.
type ActionPlanFilter struct {
	ClientID string
	Status   *entity.PlanStatus
}

// ActionPlanRepository define el puerto de persistencia para ActionPlan y sus tareas.
type ActionPlanRepository interface {
	Create(ctx context.Context, plan *entity.ActionPlan) error
	// GetByID devuelve el plan con sus tareas; (nil, nil) si no existe.
	GetByID(ctx context.Context, id string) (*entity.ActionPlan, error)
	List(ctx context.Context, filter ActionPlanFilter) ([]*entity.ActionPlan, error)
	// UpdateStatus escribe el nuevo estado solo si el actual es from; false si no se actualizó.
	UpdateStatus(ctx context.Context, id string, from, to entity.PlanStatus, now time.Time) (bool, error)
	// Delete elimina el plan y sus tareas (cascada); false si no existía.
	Delete(ctx context.Context, id string) (bool, error)

	CreateTask(ctx context.Context, task *entity.ActionPlanTask) error
	// GetTask devuelve (nil, nil) si no existe.
	GetTask(ctx context.Context, id string) (*entity.ActionPlanTask, error)
	// SetTaskCompleted cambia solo la tarea indicada; completedAt nil al desmarcar.
	SetTaskCompleted(ctx context.Context, id string, completed bool, completedAt *time.Time) error
}
