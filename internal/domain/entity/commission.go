package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// CommissionType origen de la comisión.
type CommissionType string

const (
	CommissionTypeSale   CommissionType = "sale"
	CommissionTypeUpsell CommissionType = "upsell"
)

// CommissionStatus estado de pago de la comisión.
type CommissionStatus string

const (
	CommissionPending CommissionStatus = "pending"
	CommissionPaid    CommissionStatus = "paid"
)

// RecipientRole rol que recibe la comisión.
type RecipientRole string

const (
	RecipientAdsManager         RecipientRole = "ads_manager"
	RecipientSucessoCliente     RecipientRole = "sucesso_cliente"
	RecipientConsultorComercial RecipientRole = "consultor_comercial"
)

// SaleRecipients orden fijo de reparto; el primero recibe el residuo de centavos.
var SaleRecipients = [3]RecipientRole{
	RecipientAdsManager,
	RecipientSucessoCliente,
	RecipientConsultorComercial,
}

// Commission fila de comisión. Se escribe una sola vez; solo Status/PaidAt cambian.
type Commission struct {
	ID            string
	Type          CommissionType
	SourceID      string // Sale.ID o Upsell.ID
	ClientID      string
	Value         decimal.Decimal
	Status        CommissionStatus
	RecipientRole RecipientRole
	CreatedAt     time.Time
	PaidAt        *time.Time
}

// CommissionGroup total de comisiones de un rol en un mes.
type CommissionGroup struct {
	RecipientRole RecipientRole
	Month         string // YYYY-MM
	Count         int
	Total         decimal.Decimal
	Pending       decimal.Decimal
	Paid          decimal.Decimal
}
