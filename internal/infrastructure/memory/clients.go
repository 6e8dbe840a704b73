package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/agencia-lifecycle/internal/domain"
	"github.com/jhoicas/agencia-lifecycle/internal/domain/entity"
	"github.com/jhoicas/agencia-lifecycle/internal/domain/repository"
)

type clientRepo struct {
	st   *Store
	inTx bool
}

func (r *clientRepo) Create(_ context.Context, c *entity.Client) error {
	return r.st.read(r.inTx, func(s *state) error {
		if _, ok := s.clients[c.ID]; ok {
			return fmt.Errorf("%w: cliente %s", domain.ErrDuplicate, c.ID)
		}
		s.clients[c.ID] = cloneClient(*c)
		s.track(c.ID)
		return nil
	})
}

func (r *clientRepo) GetByID(_ context.Context, id string) (*entity.Client, error) {
	var out *entity.Client
	err := r.st.read(r.inTx, func(s *state) error {
		if c, ok := s.clients[id]; ok {
			cp := cloneClient(c)
			out = &cp
		}
		return nil
	})
	return out, err
}

// GetForUpdate: el lock del store ya serializa la transacción completa.
func (r *clientRepo) GetForUpdate(ctx context.Context, id string) (*entity.Client, error) {
	return r.GetByID(ctx, id)
}

func (r *clientRepo) List(_ context.Context, f repository.ClientFilter) ([]*entity.Client, error) {
	var out []*entity.Client
	err := r.st.read(r.inTx, func(s *state) error {
		for _, c := range s.clients {
			if f.Status != nil && c.Status != *f.Status {
				continue
			}
			if c.Archived && !f.IncludeArchived {
				continue
			}
			cp := cloneClient(c)
			out = append(out, &cp)
		}
		sortByCreated(s, out, func(c *entity.Client) (time.Time, string) { return c.CreatedAt, c.ID })
		return nil
	})
	if err != nil {
		return nil, err
	}
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []*entity.Client{}, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *clientRepo) Update(_ context.Context, c *entity.Client) error {
	return r.st.read(r.inTx, func(s *state) error {
		if _, ok := s.clients[c.ID]; !ok {
			return domain.ErrNotFound
		}
		s.clients[c.ID] = cloneClient(*c)
		return nil
	})
}

func (r *clientRepo) StartDistrato(_ context.Context, clientID string, step entity.DistratoStep, enteredAt time.Time) (bool, error) {
	var ok bool
	err := r.st.read(r.inTx, func(s *state) error {
		c, found := s.clients[clientID]
		if !found || c.DistratoStep != nil {
			return nil
		}
		c.Status = entity.ClientStatusChurned
		c.DistratoStep = &step
		c.DistratoEnteredAt = &enteredAt
		c.UpdatedAt = enteredAt
		s.clients[clientID] = c
		ok = true
		return nil
	})
	return ok, err
}

type activeRepo struct {
	st   *Store
	inTx bool
}

func (r *activeRepo) GetByClientID(_ context.Context, clientID string) (*entity.ActiveClientContract, error) {
	var out *entity.ActiveClientContract
	err := r.st.read(r.inTx, func(s *state) error {
		if a, ok := s.active[clientID]; ok {
			a.ContractExpiresAt = cloneTime(a.ContractExpiresAt)
			out = &a
		}
		return nil
	})
	return out, err
}

func (r *activeRepo) Upsert(_ context.Context, a *entity.ActiveClientContract) error {
	return r.st.read(r.inTx, func(s *state) error {
		cp := *a
		cp.ContractExpiresAt = cloneTime(a.ContractExpiresAt)
		s.active[a.ClientID] = cp
		return nil
	})
}

func (r *activeRepo) Delete(_ context.Context, clientID string) error {
	return r.st.read(r.inTx, func(s *state) error {
		delete(s.active, clientID)
		return nil
	})
}

type productChurnRepo struct {
	st   *Store
	inTx bool
}

func (r *productChurnRepo) Create(_ context.Context, pc *entity.ProductChurn) error {
	return r.st.read(r.inTx, func(s *state) error {
		key := churnKey{clientID: pc.ClientID, slug: pc.ProductSlug}
		if _, ok := s.churnIndex[key]; ok {
			return fmt.Errorf("%w: churn de %s para el cliente %s", domain.ErrDuplicate, pc.ProductSlug, pc.ClientID)
		}
		s.productChurns[pc.ID] = *pc
		s.churnIndex[key] = pc.ID
		s.track(pc.ID)
		return nil
	})
}

func (r *productChurnRepo) ListByClient(_ context.Context, clientID string) ([]*entity.ProductChurn, error) {
	return r.list(func(pc entity.ProductChurn) bool { return pc.ClientID == clientID })
}

func (r *productChurnRepo) ListByProduct(_ context.Context, slug entity.ProductSlug) ([]*entity.ProductChurn, error) {
	return r.list(func(pc entity.ProductChurn) bool { return slug == "" || pc.ProductSlug == slug })
}

func (r *productChurnRepo) list(match func(entity.ProductChurn) bool) ([]*entity.ProductChurn, error) {
	var out []*entity.ProductChurn
	err := r.st.read(r.inTx, func(s *state) error {
		for _, pc := range s.productChurns {
			if match(pc) {
				cp := pc
				out = append(out, &cp)
			}
		}
		sortByCreated(s, out, func(pc *entity.ProductChurn) (time.Time, string) { return pc.InitiatedAt, pc.ID })
		return nil
	})
	return out, err
}

type notificationRepo struct {
	st   *Store
	inTx bool
}

func (r *notificationRepo) Create(_ context.Context, n *entity.ChurnNotification) error {
	return r.st.read(r.inTx, func(s *state) error {
		s.notifications = append(s.notifications, *n)
		return nil
	})
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
