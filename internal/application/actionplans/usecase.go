// Package actionplans contiene el motor de planes de acción para clientes en riesgo.
package actionplans

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/agencia-lifecycle/internal/application/dto"
	"github.com/jhoicas/agencia-lifecycle/internal/application/ports"
	"github.com/jhoicas/agencia-lifecycle/internal/domain"
	"github.com/jhoicas/agencia-lifecycle/internal/domain/entity"
	"github.com/jhoicas/agencia-lifecycle/internal/domain/lifecycle"
	"github.com/jhoicas/agencia-lifecycle/internal/domain/repository"
	"github.com/jhoicas/agencia-lifecycle/pkg/logger"
)

// TxRunner ejecuta fn dentro de una transacción con los repositorios de planes y clientes.
type TxRunner interface {
	RunActionPlans(ctx context.Context, fn func(
		planRepo repository.ActionPlanRepository,
		clientRepo repository.ClientRepository,
	) error) error
}

// PlanView plan con sus valores derivados de solo lectura.
type PlanView struct {
	Plan     *entity.ActionPlan
	Progress float64
	Overdue  bool
}

// ActionPlanUseCase alta, checklist, cierre y borrado de planes de acción.
type ActionPlanUseCase struct {
	txRunner TxRunner
	planRepo repository.ActionPlanRepository
	clock    ports.Clock
	metrics  ports.LifecycleMetrics
	log      *logger.Logger
}

// NewActionPlanUseCase construye el caso de uso.
func NewActionPlanUseCase(
	txRunner TxRunner,
	planRepo repository.ActionPlanRepository,
	clock ports.Clock,
	metrics ports.LifecycleMetrics,
	log *logger.Logger,
) *ActionPlanUseCase {
	return &ActionPlanUseCase{txRunner: txRunner, planRepo: planRepo, clock: clock, metrics: metrics, log: log}
}

// Create crea un plan activo con fecha límite según severidad (30/60/90 días).
func (uc *ActionPlanUseCase) Create(ctx context.Context, caller entity.Caller, in dto.CreateActionPlanRequest) (*PlanView, error) {
	if !caller.CanManageActionPlans() {
		return nil, fmt.Errorf("%w: el rol %q no puede crear planes de acción", domain.ErrForbidden, caller.Role)
	}
	sev := entity.Severity(in.Severity)
	if !sev.Valid() {
		return nil, fmt.Errorf("%w: severity debe ser leve, moderado o critico", domain.ErrInvalidInput)
	}
	problem := strings.TrimSpace(in.ProblemType)
	if in.ClientID == "" || problem == "" {
		return nil, fmt.Errorf("%w: client_id y problem_type son requeridos", domain.ErrInvalidInput)
	}
	indicators := lifecycle.NormalizeIndicators(in.Indicators)
	if len(indicators) == 0 {
		return nil, fmt.Errorf("%w: se requiere al menos un indicador", domain.ErrInvalidInput)
	}
	now := uc.clock.Now()
	due, err := lifecycle.DueDate(now, sev)
	if err != nil {
		return nil, err
	}
	plan := &entity.ActionPlan{
		ID:          uuid.New().String(),
		ClientID:    in.ClientID,
		ProblemType: problem,
		Severity:    sev,
		Indicators:  indicators,
		Notes:       in.Notes,
		Status:      entity.PlanActive,
		DueDate:     due,
		CreatedBy:   caller.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, t := range in.Tasks {
		task, err := newTask(plan.ID, t, now)
		if err != nil {
			return nil, err
		}
		plan.Tasks = append(plan.Tasks, task)
	}

	err = uc.txRunner.RunActionPlans(ctx, func(planRepo repository.ActionPlanRepository, clientRepo repository.ClientRepository) error {
		c, err := clientRepo.GetByID(ctx, in.ClientID)
		if err != nil {
			return err
		}
		if c == nil {
			return domain.ErrNotFound
		}
		if c.Archived {
			return fmt.Errorf("%w: el cliente está archivado", domain.ErrInvalidState)
		}
		if err := planRepo.Create(ctx, plan); err != nil {
			return err
		}
		for _, task := range plan.Tasks {
			if err := planRepo.CreateTask(ctx, task); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("plan_id", plan.ID).
		Str("client_id", plan.ClientID).
		Str("severity", string(plan.Severity)).
		Time("due_date", plan.DueDate).
		Msg("plan de acción creado")
	return uc.view(plan), nil
}

// Get devuelve el plan con sus tareas.
func (uc *ActionPlanUseCase) Get(ctx context.Context, id string) (*PlanView, error) {
	plan, err := uc.planRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, domain.ErrNotFound
	}
	return uc.view(plan), nil
}

// List lista planes por cliente y/o estado.
func (uc *ActionPlanUseCase) List(ctx context.Context, clientID, status string) ([]*PlanView, error) {
	f := repository.ActionPlanFilter{ClientID: clientID}
	if status != "" {
		st := entity.PlanStatus(status)
		if !st.Valid() {
			return nil, fmt.Errorf("%w: status desconocido %q", domain.ErrInvalidInput, status)
		}
		f.Status = &st
	}
	plans, err := uc.planRepo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]*PlanView, 0, len(plans))
	for _, p := range plans {
		out = append(out, uc.view(p))
	}
	return out, nil
}

// AddTask agrega una tarea al checklist del plan.
func (uc *ActionPlanUseCase) AddTask(ctx context.Context, planID string, in dto.CreateTaskRequest) (*entity.ActionPlanTask, error) {
	task, err := newTask(planID, in, uc.clock.Now())
	if err != nil {
		return nil, err
	}
	err = uc.txRunner.RunActionPlans(ctx, func(planRepo repository.ActionPlanRepository, _ repository.ClientRepository) error {
		plan, err := planRepo.GetByID(ctx, planID)
		if err != nil {
			return err
		}
		if plan == nil {
			return domain.ErrNotFound
		}
		return planRepo.CreateTask(ctx, task)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// ToggleTask marca o desmarca una tarea. Nunca cambia el estado del plan:
// completar todas las tareas no completa el plan.
func (uc *ActionPlanUseCase) ToggleTask(ctx context.Context, taskID string, completed bool) (*entity.ActionPlanTask, error) {
	var out *entity.ActionPlanTask
	err := uc.txRunner.RunActionPlans(ctx, func(planRepo repository.ActionPlanRepository, _ repository.ClientRepository) error {
		task, err := planRepo.GetTask(ctx, taskID)
		if err != nil {
			return err
		}
		if task == nil {
			return domain.ErrNotFound
		}
		task.IsCompleted = completed
		task.CompletedAt = nil
		if completed {
			now := uc.clock.Now()
			task.CompletedAt = &now
		}
		if err := planRepo.SetTaskCompleted(ctx, task.ID, task.IsCompleted, task.CompletedAt); err != nil {
			return err
		}
		out = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStatus cierra un plan activo (completed o cancelled). Concurrencia optimista:
// la escritura exige status = active; si otra operación cerró el plan primero → ErrConflict.
func (uc *ActionPlanUseCase) UpdateStatus(ctx context.Context, caller entity.Caller, planID, status string) (*PlanView, error) {
	to := entity.PlanStatus(status)
	var out *entity.ActionPlan
	err := uc.txRunner.RunActionPlans(ctx, func(planRepo repository.ActionPlanRepository, _ repository.ClientRepository) error {
		plan, err := planRepo.GetByID(ctx, planID)
		if err != nil {
			return err
		}
		if plan == nil {
			return domain.ErrNotFound
		}
		if err := lifecycle.CloseStatus(plan, to); err != nil {
			return err
		}
		now := uc.clock.Now()
		ok, err := planRepo.UpdateStatus(ctx, planID, entity.PlanActive, to, now)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: el plan fue cerrado por otra operación", domain.ErrConflict)
		}
		plan.Status = to
		plan.UpdatedAt = now
		out = plan
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.metrics.IncPlanTransition(to)
	uc.log.Info().
		Str("plan_id", planID).
		Str("status", string(to)).
		Str("user_id", caller.UserID).
		Msg("plan de acción cerrado")
	return uc.view(out), nil
}

// Delete elimina el plan y sus tareas en cualquier estado.
func (uc *ActionPlanUseCase) Delete(ctx context.Context, planID string) error {
	return uc.txRunner.RunActionPlans(ctx, func(planRepo repository.ActionPlanRepository, _ repository.ClientRepository) error {
		ok, err := planRepo.Delete(ctx, planID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrNotFound
		}
		return nil
	})
}

func (uc *ActionPlanUseCase) view(p *entity.ActionPlan) *PlanView {
	return &PlanView{
		Plan:     p,
		Progress: lifecycle.Progress(p.Tasks),
		Overdue:  lifecycle.IsOverdue(p, uc.clock.Now()),
	}
}

func newTask(planID string, in dto.CreateTaskRequest, now time.Time) (*entity.ActionPlanTask, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title de la tarea es requerido", domain.ErrInvalidInput)
	}
	tt := entity.TaskType(in.TaskType)
	if in.TaskType == "" {
		tt = entity.TaskAction
	}
	if !tt.Valid() {
		return nil, fmt.Errorf("%w: task_type debe ser action, quick_win o deliverable", domain.ErrInvalidInput)
	}
	return &entity.ActionPlanTask{
		ID:        uuid.New().String(),
		PlanID:    planID,
		Title:     title,
		TaskType:  tt,
		CreatedAt: now,
	}, nil
}
