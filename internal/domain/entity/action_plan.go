package entity

import "time"

// Severity severidad del problema detectado; define el plazo del plan.
type Severity string

const (
	SeverityLeve     Severity = "leve"
	SeverityModerado Severity = "moderado"
	SeverityCritico  Severity = "critico"
)

// Valid informa si la severidad es conocida.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLeve, SeverityModerado, SeverityCritico:
		return true
	}
	return false
}

// PlanStatus estado del plan de acción. completed y cancelled son terminales.
type PlanStatus string

const (
	PlanActive    PlanStatus = "active"
	PlanCompleted PlanStatus = "completed"
	PlanCancelled PlanStatus = "cancelled"
)

// Valid informa si el estado es conocido.
func (s PlanStatus) Valid() bool {
	switch s {
	case PlanActive, PlanCompleted, PlanCancelled:
		return true
	}
	return false
}

// IsTerminal informa si el estado no admite más transiciones.
func (s PlanStatus) IsTerminal() bool {
	return s == PlanCompleted || s == PlanCancelled
}

// TaskType tipo de tarea del checklist.
type TaskType string

const (
	TaskAction      TaskType = "action"
	TaskQuickWin    TaskType = "quick_win"
	TaskDeliverable TaskType = "deliverable"
)

// Valid informa si el tipo es conocido.
func (t TaskType) Valid() bool {
	switch t {
	case TaskAction, TaskQuickWin, TaskDeliverable:
		return true
	}
	return false
}

// ActionPlan plan de remediación para un cliente en riesgo.
type ActionPlan struct {
	ID          string
	ClientID    string
	ProblemType string
	Severity    Severity
	Indicators  []string
	Notes       string
	Status      PlanStatus
	DueDate     time.Time
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Tasks       []*ActionPlanTask
}

// ActionPlanTask tarea del checklist; pertenece exclusivamente a su plan.
type ActionPlanTask struct {
	ID          string
	PlanID      string
	Title       string
	TaskType    TaskType
	IsCompleted bool
	CompletedAt *time.Time
	CreatedAt   time.Time
}
