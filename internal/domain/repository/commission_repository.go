package repository

import (
	"context"
	"time"

	"github.com/jhoicas/agencia-lifecycle/internal/domain/entity"
)

// CommissionRepository define el puerto de persistencia para Commission.
type CommissionRepository interface {
	// CreateBatch inserta todas las filas; domain.ErrDuplicate si ya existen para la misma fuente y rol.
	CreateBatch(ctx context.Context, list []*entity.Commission) error
	// GetByID devuelve (nil, nil) si no existe.
	GetByID(ctx context.Context, id string) (*entity.Commission, error)
	// MarkPaid pasa pending → paid solo para upsell; false si la fila ya no cumplía la condición.
	MarkPaid(ctx context.Context, id string, paidAt time.Time) (bool, error)
	// ListBetween lista comisiones creadas en [from, to); nil = sin límite.
	ListBetween(ctx context.Context, from, to *time.Time) ([]*entity.Commission, error)
}
