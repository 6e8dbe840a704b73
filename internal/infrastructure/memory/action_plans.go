package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/agencia-lifecycle/internal/domain"
	"github.com/jhoicas/agencia-lifecycle/internal/domain/entity"
	"github.com/jhoicas/agencia-lifecycle/internal/domain/repository"
)

type actionPlanRepo struct {
	st   *Store
	inTx bool
}

func (r *actionPlanRepo) Create(_ context.Context, p *entity.ActionPlan) error {
	return r.st.read(r.inTx, func(s *state) error {
		if _, ok := s.plans[p.ID]; ok {
			return fmt.Errorf("%w: plan %s", domain.ErrDuplicate, p.ID)
		}
		cp := *p
		cp.Indicators = append([]string(nil), p.Indicators...)
		cp.Tasks = nil
		s.plans[p.ID] = cp
		s.track(p.ID)
		return nil
	})
}

func (r *actionPlanRepo) GetByID(_ context.Context, id string) (*entity.ActionPlan, error) {
	var out *entity.ActionPlan
	err := r.st.read(r.inTx, func(s *state) error {
		if p, ok := s.plans[id]; ok {
			out = s.planWithTasks(p)
		}
		return nil
	})
	return out, err
}

func (r *actionPlanRepo) List(_ context.Context, f repository.ActionPlanFilter) ([]*entity.ActionPlan, error) {
	var out []*entity.ActionPlan
	err := r.st.read(r.inTx, func(s *state) error {
		for _, p := range s.plans {
			if f.ClientID != "" && p.ClientID != f.ClientID {
				continue
			}
			if f.Status != nil && p.Status != *f.Status {
				continue
			}
			out = append(out, s.planWithTasks(p))
		}
		sortByCreated(s, out, func(p *entity.ActionPlan) (time.Time, string) { return p.CreatedAt, p.ID })
		return nil
	})
	return out, err
}

func (r *actionPlanRepo) UpdateStatus(_ context.Context, id string, from, to entity.PlanStatus, now time.Time) (bool, error) {
	var ok bool
	err := r.st.read(r.inTx, func(s *state) error {
		p, found := s.plans[id]
		if !found || p.Status != from {
			return nil
		}
		p.Status = to
		p.UpdatedAt = now
		s.plans[id] = p
		ok = true
		return nil
	})
	return ok, err
}

func (r *actionPlanRepo) Delete(_ context.Context, id string) (bool, error) {
	var ok bool
	err := r.st.read(r.inTx, func(s *state) error {
		if _, found := s.plans[id]; !found {
			return nil
		}
		delete(s.plans, id)
		for tid, t := range s.tasks {
			if t.PlanID == id {
				delete(s.tasks, tid)
			}
		}
		ok = true
		return nil
	})
	return ok, err
}

func (r *actionPlanRepo) CreateTask(_ context.Context, t *entity.ActionPlanTask) error {
	return r.st.read(r.inTx, func(s *state) error {
		if _, ok := s.plans[t.PlanID]; !ok {
			return domain.ErrNotFound
		}
		if _, ok := s.tasks[t.ID]; ok {
			return fmt.Errorf("%w: tarea %s", domain.ErrDuplicate, t.ID)
		}
		cp := *t
		cp.CompletedAt = cloneTime(t.CompletedAt)
		s.tasks[t.ID] = cp
		s.track(t.ID)
		return nil
	})
}

func (r *actionPlanRepo) GetTask(_ context.Context, id string) (*entity.ActionPlanTask, error) {
	var out *entity.ActionPlanTask
	err := r.st.read(r.inTx, func(s *state) error {
		if t, ok := s.tasks[id]; ok {
			t.CompletedAt = cloneTime(t.CompletedAt)
			out = &t
		}
		return nil
	})
	return out, err
}

func (r *actionPlanRepo) SetTaskCompleted(_ context.Context, id string, completed bool, completedAt *time.Time) error {
	return r.st.read(r.inTx, func(s *state) error {
		t, ok := s.tasks[id]
		if !ok {
			return domain.ErrNotFound
		}
		t.IsCompleted = completed
		t.CompletedAt = cloneTime(completedAt)
		s.tasks[id] = t
		return nil
	})
}

func (s *state) planWithTasks(p entity.ActionPlan) *entity.ActionPlan {
	p.Indicators = append([]string(nil), p.Indicators...)
	p.Tasks = nil
	for _, t := range s.tasks {
		if t.PlanID == p.ID {
			cp := t
			cp.CompletedAt = cloneTime(t.CompletedAt)
			p.Tasks = append(p.Tasks, &cp)
		}
	}
	sortByCreated(s, p.Tasks, func(t *entity.ActionPlanTask) (time.Time, string) { return t.CreatedAt, t.ID })
	return &p
}
