package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de notificación de churn.
const (
	ChurnKindGlobal  = "global"
	ChurnKindProduct = "product"
)

// ChurnNotification registro emitido al iniciar un churn (global o por producto).
type ChurnNotification struct {
	ID           string
	ClientID     string
	ClientName   string
	Kind         string
	ProductSlug  ProductSlug // vacío en churn global
	DistratoStep DistratoStep
	MonthlyValue decimal.Decimal
	CreatedBy    string
	CreatedAt    time.Time
}
