package repository

import (
	"context"
	"time"

	"github.com/jhoicas/agencia-lifecycle/internal/domain/entity"
)

// ClientFilter filtros para listar clientes.
type ClientFilter struct {
	Status          *entity.ClientStatus
	IncludeArchived bool
	Limit           int
	Offset          int
}

// ClientRepository define el puerto de persistencia para Client.
type ClientRepository interface {
	Create(ctx context.Context, client *entity.Client) error
	// GetByID devuelve (nil, nil) si el cliente no existe.
	GetByID(ctx context.Context, id string) (*entity.Client, error)
	// GetForUpdate igual que GetByID pero bloquea la fila (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.Client, error)
	List(ctx context.Context, filter ClientFilter) ([]*entity.Client, error)
	// Update persiste estado, hitos, productos y campos de distrato.
	Update(ctx context.Context, client *entity.Client) error
	// StartDistrato escribe los campos de distrato solo si distrato_step IS NULL.
	// Devuelve false si otra transacción ya inició el distrato.
	StartDistrato(ctx context.Context, clientID string, step entity.DistratoStep, enteredAt time.Time) (bool, error)
}

// ActiveClientRepository registro de "clientes activos" con el vencimiento del contrato.
type ActiveClientRepository interface {
	// GetByClientID devuelve (nil, nil) si el cliente no está en el registro.
	GetByClientID(ctx context.Context, clientID string) (*entity.ActiveClientContract, error)
	Upsert(ctx context.Context, contract *entity.ActiveClientContract) error
	Delete(ctx context.Context, clientID string) error
}

// ProductChurnRepository define el puerto de persistencia para ProductChurn.
type ProductChurnRepository interface {
	// Create devuelve domain.ErrDuplicate si ya existe churn para (cliente, producto).
	Create(ctx context.Context, churn *entity.ProductChurn) error
	ListByClient(ctx context.Context, clientID string) ([]*entity.ProductChurn, error)
	// ListByProduct lista todos los churns del producto; slug vacío = todos.
	ListByProduct(ctx context.Context, slug entity.ProductSlug) ([]*entity.ProductChurn, error)
}

// ChurnNotificationRepository persiste las notificaciones de churn emitidas.
type ChurnNotificationRepository interface {
	Create(ctx context.Context, n *entity.ChurnNotification) error
}
