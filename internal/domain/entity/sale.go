package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale venta registrada para un cliente. Inmutable una vez creada.
type Sale struct {
	ID                   string
	ClientID             string
	Value                decimal.Decimal
	SaleDate             time.Time
	CommissionPercentage decimal.Decimal // copiado de Client.SalesPercentage al registrar
	CreatedBy            string
	CreatedAt            time.Time
}

// Upsell producto o servicio adicional vendido a un cliente existente.
type Upsell struct {
	ID           string
	ClientID     string
	ProductSlug  ProductSlug
	MonthlyValue decimal.Decimal
	CreatedBy    string
	CreatedAt    time.Time
}
