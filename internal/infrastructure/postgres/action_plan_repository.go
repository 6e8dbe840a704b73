package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/agencia-lifecycle/internal/domain"
	"github.com/jhoicas/agencia-lifecycle/internal/domain/entity"
	"github.com/jhoicas/agencia-lifecycle/internal/domain/repository"
)

var _ repository.ActionPlanRepository = (*ActionPlanRepo)(nil)

// ActionPlanRepo planes de acción y su checklist.
type ActionPlanRepo struct {
	q Querier
}

// NewActionPlanRepository construye el adaptador.
func NewActionPlanRepository(q Querier) *ActionPlanRepo {
	return &ActionPlanRepo{q: q}
}

const (
	planColumns = `id, client_id, problem_type, severity, indicators, notes, status, due_date,
		created_by, created_at, updated_at`
	taskColumns = `id, plan_id, title, task_type, is_completed, completed_at, created_at`
)

// Create persiste el plan (sin tareas; ver CreateTask).
func (r *ActionPlanRepo) Create(ctx context.Context, p *entity.ActionPlan) error {
	query := `INSERT INTO action_plans (` + planColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.ClientID, p.ProblemType, string(p.Severity), p.Indicators, p.Notes, string(p.Status),
		p.DueDate, p.CreatedBy, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("insert action plan: %w", err)
	}
	return nil
}

// GetByID obtiene el plan con sus tareas; (nil, nil) si no existe.
func (r *ActionPlanRepo) GetByID(ctx context.Context, id string) (*entity.ActionPlan, error) {
	if !validID(id) {
		return nil, nil
	}
	p, err := scanPlan(r.q.QueryRow(ctx, `SELECT `+planColumns+` FROM action_plans WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get action plan: %w", err)
	}
	tasks, err := r.tasks(ctx, `WHERE plan_id = $1`, id)
	if err != nil {
		return nil, err
	}
	p.Tasks = tasks[p.ID]
	return p, nil
}

// List planes filtrados por cliente y/o estado, con sus tareas.
func (r *ActionPlanRepo) List(ctx context.Context, f repository.ActionPlanFilter) ([]*entity.ActionPlan, error) {
	var (
		where []string
		args  []any
	)
	if f.ClientID != "" {
		if !validID(f.ClientID) {
			return []*entity.ActionPlan{}, nil
		}
		args = append(args, f.ClientID)
		where = append(where, fmt.Sprintf("client_id = $%d", len(args)))
	}
	if f.Status != nil {
		args = append(args, string(*f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	query := `SELECT ` + planColumns + ` FROM action_plans`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list action plans: %w", err)
	}
	var (
		list []*entity.ActionPlan
		ids  []string
	)
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan action plan: %w", err)
		}
		list = append(list, p)
		ids = append(ids, p.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return list, nil
	}

	tasks, err := r.tasks(ctx, `WHERE plan_id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	for _, p := range list {
		p.Tasks = tasks[p.ID]
	}
	return list, nil
}

// UpdateStatus concurrencia optimista: solo escribe si el estado actual es from.
func (r *ActionPlanRepo) UpdateStatus(ctx context.Context, id string, from, to entity.PlanStatus, now time.Time) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	tag, err := r.q.Exec(ctx,
		`UPDATE action_plans SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`,
		id, string(from), string(to), now,
	)
	if err != nil {
		return false, fmt.Errorf("update action plan status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Delete elimina el plan; las tareas caen por ON DELETE CASCADE.
func (r *ActionPlanRepo) Delete(ctx context.Context, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	tag, err := r.q.Exec(ctx, `DELETE FROM action_plans WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete action plan: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// CreateTask agrega una tarea al plan.
func (r *ActionPlanRepo) CreateTask(ctx context.Context, t *entity.ActionPlanTask) error {
	if !validID(t.PlanID) {
		return domain.ErrNotFound
	}
	query := `INSERT INTO action_plan_tasks (` + taskColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query, t.ID, t.PlanID, t.Title, string(t.TaskType), t.IsCompleted, t.CompletedAt, t.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("insert action plan task: %w", err)
	}
	return nil
}

// GetTask obtiene una tarea; (nil, nil) si no existe.
func (r *ActionPlanRepo) GetTask(ctx context.Context, id string) (*entity.ActionPlanTask, error) {
	if !validID(id) {
		return nil, nil
	}
	t, err := scanTask(r.q.QueryRow(ctx, `SELECT `+taskColumns+` FROM action_plan_tasks WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get action plan task: %w", err)
	}
	return t, nil
}

// SetTaskCompleted cambia solo la tarea indicada.
func (r *ActionPlanRepo) SetTaskCompleted(ctx context.Context, id string, completed bool, completedAt *time.Time) error {
	if !validID(id) {
		return domain.ErrNotFound
	}
	tag, err := r.q.Exec(ctx,
		`UPDATE action_plan_tasks SET is_completed = $2, completed_at = $3 WHERE id = $1`,
		id, completed, completedAt,
	)
	if err != nil {
		return fmt.Errorf("toggle action plan task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// tasks devuelve las tareas agrupadas por plan, en orden de alta.
func (r *ActionPlanRepo) tasks(ctx context.Context, where string, arg any) (map[string][]*entity.ActionPlanTask, error) {
	rows, err := r.q.Query(ctx, `SELECT `+taskColumns+` FROM action_plan_tasks `+where+` ORDER BY created_at, seq`, arg)
	if err != nil {
		return nil, fmt.Errorf("list action plan tasks: %w", err)
	}
	defer rows.Close()
	out := map[string][]*entity.ActionPlanTask{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan action plan task: %w", err)
		}
		out[t.PlanID] = append(out[t.PlanID], t)
	}
	return out, rows.Err()
}

func scanPlan(row pgx.Row) (*entity.ActionPlan, error) {
	var (
		p                entity.ActionPlan
		severity, status string
	)
	err := row.Scan(&p.ID, &p.ClientID, &p.ProblemType, &severity, &p.Indicators, &p.Notes, &status,
		&p.DueDate, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Severity = entity.Severity(severity)
	p.Status = entity.PlanStatus(status)
	return &p, nil
}

func scanTask(row pgx.Row) (*entity.ActionPlanTask, error) {
	var (
		t  entity.ActionPlanTask
		tt string
	)
	if err := row.Scan(&t.ID, &t.PlanID, &t.Title, &tt, &t.IsCompleted, &t.CompletedAt, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.TaskType = entity.TaskType(tt)
	return &t, nil
}
