// Package memory implementa los puertos de repositorio y los TxRunner en memoria.
// Se usa en tests y con APP_STORE=memory para levantar la API sin base de datos.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/agencia-lifecycle/internal/domain/entity"
	"github.com/jhoicas/agencia-lifecycle/internal/domain/repository"
)

type churnKey struct {
	clientID string
	slug     entity.ProductSlug
}

type commissionKey struct {
	typ       entity.CommissionType
	sourceID  string
	recipient entity.RecipientRole
}

// state tablas en memoria. Las entidades se guardan por valor: lecturas y escrituras copian.
type state struct {
	clients       map[string]entity.Client
	active        map[string]entity.ActiveClientContract
	productChurns map[string]entity.ProductChurn
	churnIndex    map[churnKey]string
	notifications []entity.ChurnNotification
	sales         map[string]entity.Sale
	upsells       map[string]entity.Upsell
	commissions   map[string]entity.Commission
	commissionIdx map[commissionKey]string
	plans         map[string]entity.ActionPlan
	tasks         map[string]entity.ActionPlanTask
	// orden de inserción por ID, desempata filas con el mismo created_at
	seq   int64
	order map[string]int64
}

func newState() *state {
	return &state{
		clients:       map[string]entity.Client{},
		active:        map[string]entity.ActiveClientContract{},
		productChurns: map[string]entity.ProductChurn{},
		churnIndex:    map[churnKey]string{},
		sales:         map[string]entity.Sale{},
		upsells:       map[string]entity.Upsell{},
		commissions:   map[string]entity.Commission{},
		commissionIdx: map[commissionKey]string{},
		plans:         map[string]entity.ActionPlan{},
		tasks:         map[string]entity.ActionPlanTask{},
		order:         map[string]int64{},
	}
}

func (s *state) track(id string) {
	s.seq++
	s.order[id] = s.seq
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.clients {
		c.clients[k] = cloneClient(v)
	}
	for k, v := range s.active {
		c.active[k] = v
	}
	for k, v := range s.productChurns {
		c.productChurns[k] = v
	}
	for k, v := range s.churnIndex {
		c.churnIndex[k] = v
	}
	c.notifications = append([]entity.ChurnNotification(nil), s.notifications...)
	for k, v := range s.sales {
		c.sales[k] = v
	}
	for k, v := range s.upsells {
		c.upsells[k] = v
	}
	for k, v := range s.commissions {
		c.commissions[k] = v
	}
	for k, v := range s.commissionIdx {
		c.commissionIdx[k] = v
	}
	for k, v := range s.plans {
		v.Indicators = append([]string(nil), v.Indicators...)
		c.plans[k] = v
	}
	for k, v := range s.tasks {
		c.tasks[k] = v
	}
	c.seq = s.seq
	for k, v := range s.order {
		c.order[k] = v
	}
	return c
}

// Store base de datos en memoria. Las transacciones se serializan con mu y
// se revierten restaurando la copia tomada al inicio.
type Store struct {
	mu sync.Mutex
	s  *state
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{s: newState()}
}

// run ejecuta fn con el lock tomado; si fn falla restaura el estado previo.
func (st *Store) run(ctx context.Context, fn func(tx *Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	snapshot := st.s.clone()
	if err := fn(st); err != nil {
		st.s = snapshot
		return err
	}
	return nil
}

// read ejecuta fn con el lock tomado, salvo dentro de una transacción (inTx).
func (st *Store) read(inTx bool, fn func(s *state) error) error {
	if !inTx {
		st.mu.Lock()
		defer st.mu.Unlock()
	}
	return fn(st.s)
}

// Repositorios fuera de transacción.

func (st *Store) Clients() repository.ClientRepository             { return &clientRepo{st: st} }
func (st *Store) ActiveClients() repository.ActiveClientRepository { return &activeRepo{st: st} }
func (st *Store) ProductChurns() repository.ProductChurnRepository { return &productChurnRepo{st: st} }
func (st *Store) Notifications() repository.ChurnNotificationRepository {
	return &notificationRepo{st: st}
}
func (st *Store) Sales() repository.SaleRepository             { return &saleRepo{st: st} }
func (st *Store) Upsells() repository.UpsellRepository         { return &upsellRepo{st: st} }
func (st *Store) Commissions() repository.CommissionRepository { return &commissionRepo{st: st} }
func (st *Store) ActionPlans() repository.ActionPlanRepository { return &actionPlanRepo{st: st} }

// RunClients implementa clients.TxRunner.
func (st *Store) RunClients(ctx context.Context, fn func(repository.ClientRepository, repository.ActiveClientRepository) error) error {
	return st.run(ctx, func(tx *Store) error {
		return fn(&clientRepo{st: tx, inTx: true}, &activeRepo{st: tx, inTx: true})
	})
}

// RunSales implementa clients.TxRunner.
func (st *Store) RunSales(ctx context.Context, fn func(
	repository.ClientRepository,
	repository.SaleRepository,
	repository.UpsellRepository,
	repository.CommissionRepository,
) error) error {
	return st.run(ctx, func(tx *Store) error {
		return fn(
			&clientRepo{st: tx, inTx: true},
			&saleRepo{st: tx, inTx: true},
			&upsellRepo{st: tx, inTx: true},
			&commissionRepo{st: tx, inTx: true},
		)
	})
}

// RunChurn implementa clients.TxRunner.
func (st *Store) RunChurn(ctx context.Context, fn func(
	repository.ClientRepository,
	repository.ActiveClientRepository,
	repository.ProductChurnRepository,
	repository.ChurnNotificationRepository,
) error) error {
	return st.run(ctx, func(tx *Store) error {
		return fn(
			&clientRepo{st: tx, inTx: true},
			&activeRepo{st: tx, inTx: true},
			&productChurnRepo{st: tx, inTx: true},
			&notificationRepo{st: tx, inTx: true},
		)
	})
}

// RunCommissions implementa commissions.TxRunner.
func (st *Store) RunCommissions(ctx context.Context, fn func(repository.CommissionRepository) error) error {
	return st.run(ctx, func(tx *Store) error {
		return fn(&commissionRepo{st: tx, inTx: true})
	})
}

// RunActionPlans implementa actionplans.TxRunner.
func (st *Store) RunActionPlans(ctx context.Context, fn func(repository.ActionPlanRepository, repository.ClientRepository) error) error {
	return st.run(ctx, func(tx *Store) error {
		return fn(&actionPlanRepo{st: tx, inTx: true}, &clientRepo{st: tx, inTx: true})
	})
}

// NotificationsFor devuelve las notificaciones emitidas para el cliente (tests e inspección).
func (st *Store) NotificationsFor(clientID string) []entity.ChurnNotification {
	st.mu.Lock()
	defer st.mu.Unlock()
	var out []entity.ChurnNotification
	for _, n := range st.s.notifications {
		if n.ClientID == clientID {
			out = append(out, n)
		}
	}
	return out
}

func cloneClient(c entity.Client) entity.Client {
	c.ContractedProducts = append([]entity.ProductSlug(nil), c.ContractedProducts...)
	if c.DistratoStep != nil {
		step := *c.DistratoStep
		c.DistratoStep = &step
	}
	c.DistratoEnteredAt = cloneTime(c.DistratoEnteredAt)
	c.OnboardingStartedAt = cloneTime(c.OnboardingStartedAt)
	c.CampaignPublishedAt = cloneTime(c.CampaignPublishedAt)
	return c
}

// sortByCreated ordena por created_at y, a igualdad, por orden de inserción.
func sortByCreated[T any](s *state, list []T, key func(T) (time.Time, string)) {
	sort.SliceStable(list, func(i, j int) bool {
		ti, idi := key(list[i])
		tj, idj := key(list[j])
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return s.order[idi] < s.order[idj]
	})
}
