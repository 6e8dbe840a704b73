package repository

import (
	"context"

	"github.com/jhoicas/agencia-lifecycle/internal/domain/entity"
)

// SaleRepository define el puerto de persistencia para Sale (solo inserción y lectura).
type SaleRepository interface {
	Create(ctx context.Context, sale *entity.Sale) error
	ListByClient(ctx context.Context, clientID string) ([]*entity.Sale, error)
}

// UpsellRepository define el puerto de persistencia para Upsell.
type UpsellRepository interface {
	Create(ctx context.Context, upsell *entity.Upsell) error
	ListByClient(ctx context.Context, clientID string) ([]*entity.Upsell, error)
}
