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

var _ repository.ClientRepository = (*ClientRepo)(nil)

// ClientRepo implementación de ClientRepository (usable con pool o tx).
type ClientRepo struct {
	q Querier
}

// NewClientRepository construye el adaptador. Pasar pool o tx (Querier).
func NewClientRepository(q Querier) *ClientRepo {
	return &ClientRepo{q: q}
}

const clientColumns = `id, name, status, archived, distrato_step, distrato_entered_at, contracted_products,
	sales_percentage, monthly_value, entry_date, onboarding_started_at, campaign_published_at,
	created_at, updated_at`

// Create persiste un nuevo cliente.
func (r *ClientRepo) Create(ctx context.Context, c *entity.Client) error {
	query := `INSERT INTO clients (` + clientColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.Name, string(c.Status), c.Archived, stepText(c.DistratoStep), c.DistratoEnteredAt,
		slugsToText(c.ContractedProducts), c.SalesPercentage, c.MonthlyValue, c.EntryDate,
		c.OnboardingStartedAt, c.CampaignPublishedAt, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

// GetByID obtiene un cliente por ID; (nil, nil) si no existe.
func (r *ClientRepo) GetByID(ctx context.Context, id string) (*entity.Client, error) {
	return r.get(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id)
}

// GetForUpdate obtiene el cliente bloqueando la fila hasta el fin de la transacción.
func (r *ClientRepo) GetForUpdate(ctx context.Context, id string) (*entity.Client, error) {
	return r.get(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1 FOR UPDATE`, id)
}

func (r *ClientRepo) get(ctx context.Context, query, id string) (*entity.Client, error) {
	if !validID(id) {
		return nil, nil
	}
	c, err := scanClient(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get client: %w", err)
	}
	return c, nil
}

// List lista clientes por estado y archivo, ordenados por fecha de alta.
func (r *ClientRepo) List(ctx context.Context, f repository.ClientFilter) ([]*entity.Client, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != nil {
		args = append(args, string(*f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if !f.IncludeArchived {
		where = append(where, "archived = FALSE")
	}
	query := `SELECT ` + clientColumns + ` FROM clients`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at, id`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()
	var list []*entity.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// Update persiste estado, hitos, productos y campos de distrato.
func (r *ClientRepo) Update(ctx context.Context, c *entity.Client) error {
	query := `
		UPDATE clients SET name = $2, status = $3, archived = $4, distrato_step = $5,
			distrato_entered_at = $6, contracted_products = $7, sales_percentage = $8,
			monthly_value = $9, onboarding_started_at = $10, campaign_published_at = $11, updated_at = $12
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		c.ID, c.Name, string(c.Status), c.Archived, stepText(c.DistratoStep), c.DistratoEnteredAt,
		slugsToText(c.ContractedProducts), c.SalesPercentage, c.MonthlyValue,
		c.OnboardingStartedAt, c.CampaignPublishedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// StartDistrato escribe los campos de distrato solo si no hay uno en curso.
func (r *ClientRepo) StartDistrato(ctx context.Context, clientID string, step entity.DistratoStep, enteredAt time.Time) (bool, error) {
	if !validID(clientID) {
		return false, nil
	}
	query := `
		UPDATE clients SET status = $2, distrato_step = $3, distrato_entered_at = $4, updated_at = $4
		WHERE id = $1 AND distrato_step IS NULL`
	tag, err := r.q.Exec(ctx, query, clientID, string(entity.ClientStatusChurned), string(step), enteredAt)
	if err != nil {
		return false, fmt.Errorf("start distrato: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func scanClient(row pgx.Row) (*entity.Client, error) {
	var (
		c        entity.Client
		status   string
		step     *string
		products []string
	)
	err := row.Scan(
		&c.ID, &c.Name, &status, &c.Archived, &step, &c.DistratoEnteredAt, &products,
		&c.SalesPercentage, &c.MonthlyValue, &c.EntryDate, &c.OnboardingStartedAt, &c.CampaignPublishedAt,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Status = entity.ClientStatus(status)
	if step != nil {
		s := entity.DistratoStep(*step)
		c.DistratoStep = &s
	}
	c.ContractedProducts = textToSlugs(products)
	return &c, nil
}

func stepText(s *entity.DistratoStep) *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}

var _ repository.ActiveClientRepository = (*ActiveClientRepo)(nil)

// ActiveClientRepo registro de clientes activos.
type ActiveClientRepo struct {
	q Querier
}

// NewActiveClientRepository construye el adaptador.
func NewActiveClientRepository(q Querier) *ActiveClientRepo {
	return &ActiveClientRepo{q: q}
}

// GetByClientID devuelve (nil, nil) si el cliente no está en el registro.
func (r *ActiveClientRepo) GetByClientID(ctx context.Context, clientID string) (*entity.ActiveClientContract, error) {
	if !validID(clientID) {
		return nil, nil
	}
	query := `SELECT client_id, contract_expires_at, monthly_value, updated_at FROM active_clients WHERE client_id = $1`
	var a entity.ActiveClientContract
	err := r.q.QueryRow(ctx, query, clientID).Scan(&a.ClientID, &a.ContractExpiresAt, &a.MonthlyValue, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active client: %w", err)
	}
	return &a, nil
}

// Upsert inserta o reemplaza el vencimiento del contrato.
func (r *ActiveClientRepo) Upsert(ctx context.Context, a *entity.ActiveClientContract) error {
	query := `
		INSERT INTO active_clients (client_id, contract_expires_at, monthly_value, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (client_id) DO UPDATE
		SET contract_expires_at = EXCLUDED.contract_expires_at,
			monthly_value = EXCLUDED.monthly_value,
			updated_at = EXCLUDED.updated_at`
	if !validID(a.ClientID) {
		return domain.ErrNotFound
	}
	if _, err := r.q.Exec(ctx, query, a.ClientID, a.ContractExpiresAt, a.MonthlyValue, a.UpdatedAt); err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("upsert active client: %w", err)
	}
	return nil
}

// Delete saca al cliente del registro (idempotente).
func (r *ActiveClientRepo) Delete(ctx context.Context, clientID string) error {
	if !validID(clientID) {
		return nil
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM active_clients WHERE client_id = $1`, clientID); err != nil {
		return fmt.Errorf("delete active client: %w", err)
	}
	return nil
}

var _ repository.ProductChurnRepository = (*ProductChurnRepo)(nil)

// ProductChurnRepo churn por producto.
type ProductChurnRepo struct {
	q Querier
}

// NewProductChurnRepository construye el adaptador.
func NewProductChurnRepository(q Querier) *ProductChurnRepo {
	return &ProductChurnRepo{q: q}
}

const productChurnColumns = `id, client_id, product_slug, step, initiated_at, has_valid_contract, monthly_value`

// Create inserta el churn; la unicidad (client_id, product_slug) la garantiza la DB.
func (r *ProductChurnRepo) Create(ctx context.Context, pc *entity.ProductChurn) error {
	query := `INSERT INTO product_churns (` + productChurnColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query,
		pc.ID, pc.ClientID, string(pc.ProductSlug), string(pc.Step), pc.InitiatedAt, pc.HasValidContract, pc.MonthlyValue,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert product churn: %w", err)
	}
	return nil
}

// ListByClient churns del cliente.
func (r *ProductChurnRepo) ListByClient(ctx context.Context, clientID string) ([]*entity.ProductChurn, error) {
	if !validID(clientID) {
		return []*entity.ProductChurn{}, nil
	}
	return r.list(ctx, `SELECT `+productChurnColumns+` FROM product_churns WHERE client_id = $1 ORDER BY initiated_at, id`, clientID)
}

// ListByProduct churns del producto; slug vacío = todos.
func (r *ProductChurnRepo) ListByProduct(ctx context.Context, slug entity.ProductSlug) ([]*entity.ProductChurn, error) {
	if slug == "" {
		return r.list(ctx, `SELECT `+productChurnColumns+` FROM product_churns ORDER BY initiated_at, id`)
	}
	return r.list(ctx, `SELECT `+productChurnColumns+` FROM product_churns WHERE product_slug = $1 ORDER BY initiated_at, id`, string(slug))
}

func (r *ProductChurnRepo) list(ctx context.Context, query string, args ...any) ([]*entity.ProductChurn, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list product churns: %w", err)
	}
	defer rows.Close()
	var list []*entity.ProductChurn
	for rows.Next() {
		var (
			pc         entity.ProductChurn
			slug, step string
		)
		if err := rows.Scan(&pc.ID, &pc.ClientID, &slug, &step, &pc.InitiatedAt, &pc.HasValidContract, &pc.MonthlyValue); err != nil {
			return nil, fmt.Errorf("scan product churn: %w", err)
		}
		pc.ProductSlug = entity.ProductSlug(slug)
		pc.Step = entity.DistratoStep(step)
		list = append(list, &pc)
	}
	return list, rows.Err()
}

var _ repository.ChurnNotificationRepository = (*ChurnNotificationRepo)(nil)

// ChurnNotificationRepo notificaciones de churn emitidas.
type ChurnNotificationRepo struct {
	q Querier
}

// NewChurnNotificationRepository construye el adaptador.
func NewChurnNotificationRepository(q Querier) *ChurnNotificationRepo {
	return &ChurnNotificationRepo{q: q}
}

// Create persiste la notificación.
func (r *ChurnNotificationRepo) Create(ctx context.Context, n *entity.ChurnNotification) error {
	query := `
		INSERT INTO churn_notifications
			(id, client_id, client_name, kind, product_slug, distrato_step, monthly_value, created_by, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		n.ID, n.ClientID, n.ClientName, n.Kind, string(n.ProductSlug), string(n.DistratoStep),
		n.MonthlyValue, n.CreatedBy, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert churn notification: %w", err)
	}
	return nil
}
