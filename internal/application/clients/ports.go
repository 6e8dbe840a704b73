package clients

import (
	"context"

	"github.com/jhoicas/agencia-lifecycle/internal/domain/repository"
)

// TxRunner ejecuta callbacks dentro de una transacción, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace rollback: ninguna escritura parcial queda persistida.
type TxRunner interface {
	RunClients(ctx context.Context, fn func(
		clientRepo repository.ClientRepository,
		activeRepo repository.ActiveClientRepository,
	) error) error

	RunSales(ctx context.Context, fn func(
		clientRepo repository.ClientRepository,
		saleRepo repository.SaleRepository,
		upsellRepo repository.UpsellRepository,
		commissionRepo repository.CommissionRepository,
	) error) error

	RunChurn(ctx context.Context, fn func(
		clientRepo repository.ClientRepository,
		activeRepo repository.ActiveClientRepository,
		productChurnRepo repository.ProductChurnRepository,
		notificationRepo repository.ChurnNotificationRepository,
	) error) error
}
