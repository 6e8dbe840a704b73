package dto

import (
	"time"

	"github.com/jhoicas/agencia-lifecycle/internal/domain/entity"
)

// CreateActionPlanRequest body para POST /api/action-plans.
type CreateActionPlanRequest struct {
	ClientID    string              `json:"client_id"`
	ProblemType string              `json:"problem_type"`
	Severity    string              `json:"severity"` // leve | moderado | critico
	Indicators  []string            `json:"indicators"`
	Notes       string              `json:"notes,omitempty"`
	Tasks       []CreateTaskRequest `json:"tasks,omitempty"`
}

// CreateTaskRequest tarea del checklist.
type CreateTaskRequest struct {
	Title    string `json:"title"`
	TaskType string `json:"task_type"` // action | quick_win | deliverable
}

// ToggleTaskRequest body para PATCH /api/action-plans/tasks/:taskId.
type ToggleTaskRequest struct {
	Completed bool `json:"completed"`
}

// UpdatePlanStatusRequest body para PATCH /api/action-plans/:id/status.
type UpdatePlanStatusRequest struct {
	Status string `json:"status"` // completed | cancelled
}

// ActionPlanResponse plan con tareas y valores derivados (progress, overdue).
type ActionPlanResponse struct {
	ID          string         `json:"id"`
	ClientID    string         `json:"client_id"`
	ProblemType string         `json:"problem_type"`
	Severity    string         `json:"severity"`
	Indicators  []string       `json:"indicators"`
	Notes       string         `json:"notes,omitempty"`
	Status      string         `json:"status"`
	DueDate     string         `json:"due_date"`
	CreatedAt   time.Time      `json:"created_at"`
	Progress    float64        `json:"progress"`
	Overdue     bool           `json:"overdue"`
	Tasks       []TaskResponse `json:"tasks"`
}

// TaskResponse tarea en respuestas.
type TaskResponse struct {
	ID          string     `json:"id"`
	PlanID      string     `json:"plan_id"`
	Title       string     `json:"title"`
	TaskType    string     `json:"task_type"`
	IsCompleted bool       `json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewTaskResponse mapea la tarea.
func NewTaskResponse(t *entity.ActionPlanTask) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		PlanID:      t.PlanID,
		Title:       t.Title,
		TaskType:    string(t.TaskType),
		IsCompleted: t.IsCompleted,
		CompletedAt: t.CompletedAt,
	}
}

// NewActionPlanResponse mapea el plan; progress y overdue llegan ya calculados.
func NewActionPlanResponse(p *entity.ActionPlan, progress float64, overdue bool) ActionPlanResponse {
	resp := ActionPlanResponse{
		ID:          p.ID,
		ClientID:    p.ClientID,
		ProblemType: p.ProblemType,
		Severity:    string(p.Severity),
		Indicators:  p.Indicators,
		Notes:       p.Notes,
		Status:      string(p.Status),
		DueDate:     p.DueDate.Format("2006-01-02"),
		CreatedAt:   p.CreatedAt,
		Progress:    progress,
		Overdue:     overdue,
		Tasks:       make([]TaskResponse, 0, len(p.Tasks)),
	}
	for _, t := range p.Tasks {
		resp.Tasks = append(resp.Tasks, NewTaskResponse(t))
	}
	return resp
}
