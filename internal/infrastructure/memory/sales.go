package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/agencia-lifecycle/internal/domain"
	"github.com/jhoicas/agencia-lifecycle/internal/domain/entity"
)

type saleRepo struct {
	st   *Store
	inTx bool
}

func (r *saleRepo) Create(_ context.Context, sale *entity.Sale) error {
	return r.st.read(r.inTx, func(s *state) error {
		if _, ok := s.sales[sale.ID]; ok {
			return fmt.Errorf("%w: venta %s", domain.ErrDuplicate, sale.ID)
		}
		s.sales[sale.ID] = *sale
		s.track(sale.ID)
		return nil
	})
}

func (r *saleRepo) ListByClient(_ context.Context, clientID string) ([]*entity.Sale, error) {
	var out []*entity.Sale
	err := r.st.read(r.inTx, func(s *state) error {
		for _, v := range s.sales {
			if v.ClientID == clientID {
				cp := v
				out = append(out, &cp)
			}
		}
		sortByCreated(s, out, func(v *entity.Sale) (time.Time, string) { return v.CreatedAt, v.ID })
		return nil
	})
	return out, err
}

type upsellRepo struct {
	st   *Store
	inTx bool
}

func (r *upsellRepo) Create(_ context.Context, u *entity.Upsell) error {
	return r.st.read(r.inTx, func(s *state) error {
		if _, ok := s.upsells[u.ID]; ok {
			return fmt.Errorf("%w: upsell %s", domain.ErrDuplicate, u.ID)
		}
		s.upsells[u.ID] = *u
		s.track(u.ID)
		return nil
	})
}

func (r *upsellRepo) ListByClient(_ context.Context, clientID string) ([]*entity.Upsell, error) {
	var out []*entity.Upsell
	err := r.st.read(r.inTx, func(s *state) error {
		for _, v := range s.upsells {
			if v.ClientID == clientID {
				cp := v
				out = append(out, &cp)
			}
		}
		sortByCreated(s, out, func(v *entity.Upsell) (time.Time, string) { return v.CreatedAt, v.ID })
		return nil
	})
	return out, err
}

type commissionRepo struct {
	st   *Store
	inTx bool
}

// CreateBatch es todo o nada: valida las claves únicas antes de escribir.
func (r *commissionRepo) CreateBatch(_ context.Context, list []*entity.Commission) error {
	return r.st.read(r.inTx, func(s *state) error {
		seen := map[commissionKey]bool{}
		for _, c := range list {
			key := commissionKey{typ: c.Type, sourceID: c.SourceID, recipient: c.RecipientRole}
			if _, ok := s.commissionIdx[key]; ok || seen[key] {
				return fmt.Errorf("%w: comisión %s/%s/%s", domain.ErrDuplicate, c.Type, c.SourceID, c.RecipientRole)
			}
			if _, ok := s.commissions[c.ID]; ok {
				return fmt.Errorf("%w: comisión %s", domain.ErrDuplicate, c.ID)
			}
			seen[key] = true
		}
		for _, c := range list {
			s.commissions[c.ID] = *c
			s.track(c.ID)
			s.commissionIdx[commissionKey{typ: c.Type, sourceID: c.SourceID, recipient: c.RecipientRole}] = c.ID
		}
		return nil
	})
}

func (r *commissionRepo) GetByID(_ context.Context, id string) (*entity.Commission, error) {
	var out *entity.Commission
	err := r.st.read(r.inTx, func(s *state) error {
		if c, ok := s.commissions[id]; ok {
			c.PaidAt = cloneTime(c.PaidAt)
			out = &c
		}
		return nil
	})
	return out, err
}

func (r *commissionRepo) MarkPaid(_ context.Context, id string, paidAt time.Time) (bool, error) {
	var ok bool
	err := r.st.read(r.inTx, func(s *state) error {
		c, found := s.commissions[id]
		if !found || c.Type != entity.CommissionTypeUpsell || c.Status != entity.CommissionPending {
			return nil
		}
		c.Status = entity.CommissionPaid
		c.PaidAt = &paidAt
		s.commissions[id] = c
		ok = true
		return nil
	})
	return ok, err
}

func (r *commissionRepo) ListBetween(_ context.Context, from, to *time.Time) ([]*entity.Commission, error) {
	var out []*entity.Commission
	err := r.st.read(r.inTx, func(s *state) error {
		for _, c := range s.commissions {
			if from != nil && c.CreatedAt.Before(*from) {
				continue
			}
			if to != nil && !c.CreatedAt.Before(*to) {
				continue
			}
			cp := c
			cp.PaidAt = cloneTime(c.PaidAt)
			out = append(out, &cp)
		}
		sortByCreated(s, out, func(c *entity.Commission) (time.Time, string) { return c.CreatedAt, c.ID })
		return nil
	})
	return out, err
}
