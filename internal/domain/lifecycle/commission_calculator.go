// Package lifecycle contiene las reglas puras del ciclo de vida del cliente:
// cálculo y reparto de comisiones, pista de distrato, restauración de estado y plazos de planes.
package lifecycle

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/agencia-lifecycle/internal/domain"
	"github.com/jhoicas/agencia-lifecycle/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// UpsellCommissionRate tasa fija sobre el valor mensual de un upsell.
var UpsellCommissionRate = decimal.RequireFromString("0.07")

var (
	hundred = decimal.NewFromInt(100)
	three   = decimal.NewFromInt(3)
	// NUMERIC(14,2)
	maxMoney = decimal.RequireFromString("999999999999.99")
)

// SaleCommissionTotal total de comisión de una venta: value × percentage / 100, redondeado al centavo.
func SaleCommissionTotal(value, percentage decimal.Decimal) decimal.Decimal {
	return value.Mul(percentage).Div(hundred).Round(2)
}

// SplitSaleCommission reparte total en tres partes en centavos enteros.
// Cada rol recibe floor(centavos/3); el residuo va al primer rol de entity.SaleRecipients.
func SplitSaleCommission(total decimal.Decimal) [3]decimal.Decimal {
	cents := total.Round(2).Shift(2)
	share := cents.Div(three).Floor()
	rem := cents.Sub(share.Mul(three))
	parts := [3]decimal.Decimal{share.Add(rem), share, share}
	for i := range parts {
		parts[i] = parts[i].Shift(-2)
	}
	return parts
}

// SaleCommissions genera las filas de comisión de una venta.
// Con porcentaje cero no se crea ninguna fila.
func SaleCommissions(sale *entity.Sale, now time.Time) ([]*entity.Commission, error) {
	if !sale.Value.IsPositive() {
		return nil, fmt.Errorf("%w: el valor de la venta debe ser mayor que cero", domain.ErrInvalidInput)
	}
	if err := ValidateMoney("value", sale.Value); err != nil {
		return nil, err
	}
	if err := ValidatePercentage(sale.CommissionPercentage); err != nil {
		return nil, err
	}
	if sale.CommissionPercentage.IsZero() {
		return nil, nil
	}
	parts := SplitSaleCommission(SaleCommissionTotal(sale.Value, sale.CommissionPercentage))
	out := make([]*entity.Commission, 0, len(parts))
	for i, role := range entity.SaleRecipients {
		out = append(out, &entity.Commission{
			ID:            uuid.New().String(),
			Type:          entity.CommissionTypeSale,
			SourceID:      sale.ID,
			ClientID:      sale.ClientID,
			Value:         parts[i],
			Status:        entity.CommissionPending,
			RecipientRole: role,
			CreatedAt:     now,
		})
	}
	return out, nil
}

// UpsellCommission genera la única comisión de un upsell (7% del valor mensual).
func UpsellCommission(upsell *entity.Upsell, now time.Time) (*entity.Commission, error) {
	if !upsell.MonthlyValue.IsPositive() {
		return nil, fmt.Errorf("%w: el valor mensual del upsell debe ser mayor que cero", domain.ErrInvalidInput)
	}
	if err := ValidateMoney("monthly_value", upsell.MonthlyValue); err != nil {
		return nil, err
	}
	return &entity.Commission{
		ID:            uuid.New().String(),
		Type:          entity.CommissionTypeUpsell,
		SourceID:      upsell.ID,
		ClientID:      upsell.ClientID,
		Value:         upsell.MonthlyValue.Mul(UpsellCommissionRate).Round(2),
		Status:        entity.CommissionPending,
		RecipientRole: entity.RecipientConsultorComercial,
		CreatedAt:     now,
	}, nil
}

// CanMarkPaid valida la transición pending → paid. Solo comisiones de upsell.
func CanMarkPaid(c *entity.Commission) error {
	if c.Type != entity.CommissionTypeUpsell {
		return fmt.Errorf("%w: solo comisiones de upsell pueden marcarse como pagadas", domain.ErrInvalidState)
	}
	if c.Status != entity.CommissionPending {
		return fmt.Errorf("%w: la comisión ya está pagada", domain.ErrInvalidState)
	}
	return nil
}

// ValidatePercentage exige un porcentaje en [0, 100] con a lo sumo dos decimales.
func ValidatePercentage(p decimal.Decimal) error {
	if p.IsNegative() || p.GreaterThan(hundred) {
		return fmt.Errorf("%w: el porcentaje debe estar entre 0 y 100", domain.ErrInvalidInput)
	}
	if !p.Equal(p.Round(2)) {
		return fmt.Errorf("%w: el porcentaje admite a lo sumo dos decimales", domain.ErrInvalidInput)
	}
	return nil
}

// ValidateMoney exige un importe representable en centavos: dos decimales como máximo
// y dentro del rango de NUMERIC(14,2). El signo lo valida cada operación.
func ValidateMoney(field string, v decimal.Decimal) error {
	if !v.Equal(v.Round(2)) {
		return fmt.Errorf("%w: %s admite a lo sumo dos decimales", domain.ErrInvalidInput, field)
	}
	if v.Abs().GreaterThan(maxMoney) {
		return fmt.Errorf("%w: %s excede el máximo permitido", domain.ErrInvalidInput, field)
	}
	return nil
}

// GroupCommissions agrupa por rol receptor y mes UTC de creación (YYYY-MM), ordenado por mes y rol.
func GroupCommissions(list []*entity.Commission) []entity.CommissionGroup {
	type key struct {
		role  entity.RecipientRole
		month string
	}
	groups := make(map[key]*entity.CommissionGroup)
	for _, c := range list {
		k := key{role: c.RecipientRole, month: c.CreatedAt.UTC().Format("2006-01")}
		g, ok := groups[k]
		if !ok {
			g = &entity.CommissionGroup{RecipientRole: k.role, Month: k.month}
			groups[k] = g
		}
		g.Count++
		g.Total = g.Total.Add(c.Value)
		if c.Status == entity.CommissionPaid {
			g.Paid = g.Paid.Add(c.Value)
		} else {
			g.Pending = g.Pending.Add(c.Value)
		}
	}
	out := make([]entity.CommissionGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Month != out[j].Month {
			return out[i].Month < out[j].Month
		}
		return out[i].RecipientRole < out[j].RecipientRole
	})
	return out
}
