package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/agencia-lifecycle/internal/domain"
	"github.com/jhoicas/agencia-lifecycle/internal/domain/entity"
	"github.com/jhoicas/agencia-lifecycle/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo ventas (solo inserción y lectura).
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador.
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// Create persiste la venta con el porcentaje copiado del cliente.
func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	query := `
		INSERT INTO sales (id, client_id, value, sale_date, commission_percentage, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query, s.ID, s.ClientID, s.Value, s.SaleDate, s.CommissionPercentage, s.CreatedBy, s.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

// ListByClient ventas del cliente por fecha de registro.
func (r *SaleRepo) ListByClient(ctx context.Context, clientID string) ([]*entity.Sale, error) {
	if !validID(clientID) {
		return nil, nil
	}
	query := `
		SELECT id, client_id, value, sale_date, commission_percentage, created_by, created_at
		FROM sales WHERE client_id = $1 ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()
	var list []*entity.Sale
	for rows.Next() {
		var s entity.Sale
		if err := rows.Scan(&s.ID, &s.ClientID, &s.Value, &s.SaleDate, &s.CommissionPercentage, &s.CreatedBy, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}

var _ repository.UpsellRepository = (*UpsellRepo)(nil)

// UpsellRepo upsells.
type UpsellRepo struct {
	q Querier
}

// NewUpsellRepository construye el adaptador.
func NewUpsellRepository(q Querier) *UpsellRepo {
	return &UpsellRepo{q: q}
}

// Create persiste el upsell.
func (r *UpsellRepo) Create(ctx context.Context, u *entity.Upsell) error {
	query := `
		INSERT INTO upsells (id, client_id, product_slug, monthly_value, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query, u.ID, u.ClientID, string(u.ProductSlug), u.MonthlyValue, u.CreatedBy, u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("insert upsell: %w", err)
	}
	return nil
}

// ListByClient upsells del cliente.
func (r *UpsellRepo) ListByClient(ctx context.Context, clientID string) ([]*entity.Upsell, error) {
	if !validID(clientID) {
		return nil, nil
	}
	query := `
		SELECT id, client_id, product_slug, monthly_value, created_by, created_at
		FROM upsells WHERE client_id = $1 ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("list upsells: %w", err)
	}
	defer rows.Close()
	var list []*entity.Upsell
	for rows.Next() {
		var (
			u    entity.Upsell
			slug string
		)
		if err := rows.Scan(&u.ID, &u.ClientID, &slug, &u.MonthlyValue, &u.CreatedBy, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan upsell: %w", err)
		}
		u.ProductSlug = entity.ProductSlug(slug)
		list = append(list, &u)
	}
	return list, rows.Err()
}
