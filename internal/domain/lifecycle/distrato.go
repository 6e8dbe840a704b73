package lifecycle

import (
	"fmt"
	"time"

	"github.com/jhoicas/agencia-lifecycle/internal/domain"
	"github.com/jhoicas/agencia-lifecycle/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// TrackFor la vigencia del contrato es el único criterio de la pista: 4 pasos con contrato, 2 sin él.
func TrackFor(hasValidContract bool) entity.DistratoTrack {
	if hasValidContract {
		return entity.TrackWithContract
	}
	return entity.TrackWithoutContract
}

// StartGlobalDistrato marca el cliente como churned y fija el primer paso de la pista.
// Devuelve ErrConflict si ya hay un distrato en curso.
func StartGlobalDistrato(c *entity.Client, hasValidContract bool, now time.Time) error {
	if c.InDistrato() {
		return fmt.Errorf("%w: el cliente ya tiene un distrato en curso", domain.ErrConflict)
	}
	step := TrackFor(hasValidContract).FirstStep()
	entered := now
	c.Status = entity.ClientStatusChurned
	c.DistratoStep = &step
	c.DistratoEnteredAt = &entered
	c.UpdatedAt = now
	return nil
}

// NewProductChurn construye el churn de un producto sin tocar el estado global del cliente.
func NewProductChurn(id, clientID string, slug entity.ProductSlug, monthlyValue decimal.Decimal, hasValidContract bool, now time.Time) (*entity.ProductChurn, error) {
	if slug == "" {
		return nil, fmt.Errorf("%w: product_slug requerido", domain.ErrInvalidInput)
	}
	if monthlyValue.IsNegative() {
		return nil, fmt.Errorf("%w: el valor mensual no puede ser negativo", domain.ErrInvalidInput)
	}
	if err := ValidateMoney("monthly_value", monthlyValue); err != nil {
		return nil, err
	}
	return &entity.ProductChurn{
		ID:               id,
		ClientID:         clientID,
		ProductSlug:      slug,
		Step:             TrackFor(hasValidContract).FirstStep(),
		InitiatedAt:      now,
		HasValidContract: hasValidContract,
		MonthlyValue:     monthlyValue,
	}, nil
}

// ChurnedProducts agrupa los slugs con churn por cliente.
func ChurnedProducts(rows []*entity.ProductChurn) map[string][]entity.ProductSlug {
	out := make(map[string][]entity.ProductSlug)
	for _, r := range rows {
		out[r.ClientID] = append(out[r.ClientID], r.ProductSlug)
	}
	return out
}
