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

var _ repository.CommissionRepository = (*CommissionRepo)(nil)

// CommissionRepo comisiones de ventas y upsells.
type CommissionRepo struct {
	q Querier
}

// NewCommissionRepository construye el adaptador.
func NewCommissionRepository(q Querier) *CommissionRepo {
	return &CommissionRepo{q: q}
}

const commissionColumns = `id, type, source_id, client_id, value, status, recipient_role, created_at, paid_at`

// CreateBatch inserta todas las filas en un solo statement; UNIQUE (type, source_id, recipient_role)
// hace que reintentar la misma fuente falle con ErrDuplicate.
func (r *CommissionRepo) CreateBatch(ctx context.Context, list []*entity.Commission) error {
	if len(list) == 0 {
		return nil
	}
	var (
		sb   strings.Builder
		args = make([]any, 0, len(list)*9)
	)
	sb.WriteString(`INSERT INTO commissions (` + commissionColumns + `) VALUES `)
	for i, c := range list {
		if i > 0 {
			sb.WriteString(", ")
		}
		n := i * 9
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4, n+5, n+6, n+7, n+8, n+9)
		args = append(args, c.ID, string(c.Type), c.SourceID, c.ClientID, c.Value, string(c.Status),
			string(c.RecipientRole), c.CreatedAt, c.PaidAt)
	}
	if _, err := r.q.Exec(ctx, sb.String(), args...); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert commissions: %w", err)
	}
	return nil
}

// GetByID obtiene una comisión; (nil, nil) si no existe.
func (r *CommissionRepo) GetByID(ctx context.Context, id string) (*entity.Commission, error) {
	if !validID(id) {
		return nil, nil
	}
	c, err := scanCommission(r.q.QueryRow(ctx, `SELECT `+commissionColumns+` FROM commissions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get commission: %w", err)
	}
	return c, nil
}

// MarkPaid solo cambia filas de upsell pendientes.
func (r *CommissionRepo) MarkPaid(ctx context.Context, id string, paidAt time.Time) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	query := `
		UPDATE commissions SET status = $2, paid_at = $3
		WHERE id = $1 AND type = $4 AND status = $5`
	tag, err := r.q.Exec(ctx, query, id, string(entity.CommissionPaid), paidAt,
		string(entity.CommissionTypeUpsell), string(entity.CommissionPending))
	if err != nil {
		return false, fmt.Errorf("mark commission paid: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListBetween comisiones creadas en [from, to).
func (r *CommissionRepo) ListBetween(ctx context.Context, from, to *time.Time) ([]*entity.Commission, error) {
	query := `
		SELECT ` + commissionColumns + ` FROM commissions
		WHERE ($1::timestamptz IS NULL OR created_at >= $1)
		  AND ($2::timestamptz IS NULL OR created_at < $2)
		ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("list commissions: %w", err)
	}
	defer rows.Close()
	var list []*entity.Commission
	for rows.Next() {
		c, err := scanCommission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan commission: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func scanCommission(row pgx.Row) (*entity.Commission, error) {
	var (
		c                   entity.Commission
		typ, status, target string
	)
	if err := row.Scan(&c.ID, &typ, &c.SourceID, &c.ClientID, &c.Value, &status, &target, &c.CreatedAt, &c.PaidAt); err != nil {
		return nil, err
	}
	c.Type = entity.CommissionType(typ)
	c.Status = entity.CommissionStatus(status)
	c.RecipientRole = entity.RecipientRole(target)
	return &c, nil
}
