package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/agencia-lifecycle/internal/domain"
	"github.com/jhoicas/agencia-lifecycle/internal/domain/entity"
)

// PlanPeriodDays plazo en días según severidad.
var PlanPeriodDays = map[entity.Severity]int{
	entity.SeverityLeve:     30,
	entity.SeverityModerado: 60,
	entity.SeverityCritico:  90,
}

// DueDate fecha límite del plan: createdAt + 30/60/90 días.
func DueDate(createdAt time.Time, sev entity.Severity) (time.Time, error) {
	days, ok := PlanPeriodDays[sev]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: severidad desconocida %q", domain.ErrInvalidInput, sev)
	}
	return createdAt.AddDate(0, 0, days), nil
}

// NormalizeIndicators recorta, descarta vacíos y elimina duplicados conservando el orden.
func NormalizeIndicators(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Progress porcentaje de tareas completadas (0 si no hay tareas).
func Progress(tasks []*entity.ActionPlanTask) float64 {
	if len(tasks) == 0 {
		return 0
	}
	done := 0
	for _, t := range tasks {
		if t.IsCompleted {
			done++
		}
	}
	return float64(done) * 100 / float64(len(tasks))
}

// IsOverdue plan activo con fecha límite vencida. Solo observacional.
func IsOverdue(p *entity.ActionPlan, now time.Time) bool {
	return p.Status == entity.PlanActive && p.DueDate.Before(now)
}

// CloseStatus valida la transición active → completed|cancelled.
func CloseStatus(p *entity.ActionPlan, to entity.PlanStatus) error {
	if to != entity.PlanCompleted && to != entity.PlanCancelled {
		return fmt.Errorf("%w: estado destino debe ser completed o cancelled", domain.ErrInvalidInput)
	}
	if p.Status != entity.PlanActive {
		return fmt.Errorf("%w: el plan no está activo (%s)", domain.ErrInvalidState, p.Status)
	}
	return nil
}
