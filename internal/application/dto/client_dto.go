package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/agencia-lifecycle/internal/domain/entity"
)

// CreateClientRequest body para POST /api/clients.
type CreateClientRequest struct {
	Name               string          `json:"name"`
	SalesPercentage    decimal.Decimal `json:"sales_percentage"`
	MonthlyValue       decimal.Decimal `json:"monthly_value"`
	EntryDate          string          `json:"entry_date,omitempty"` // YYYY-MM-DD; vacío = hoy
	ContractedProducts []string        `json:"contracted_products,omitempty"`
}

// UpsertContractRequest body para PUT /api/clients/:id/contract.
type UpsertContractRequest struct {
	ContractExpiresAt *time.Time      `json:"contract_expires_at"`
	MonthlyValue      decimal.Decimal `json:"monthly_value"`
}

// RegisterSaleRequest body para POST /api/clients/:id/sales.
type RegisterSaleRequest struct {
	Value    decimal.Decimal `json:"value"`
	SaleDate string          `json:"sale_date,omitempty"` // YYYY-MM-DD; vacío = hoy
}

// RegisterUpsellRequest body para POST /api/clients/:id/upsells.
type RegisterUpsellRequest struct {
	ProductSlug  string          `json:"product_slug"`
	MonthlyValue decimal.Decimal `json:"monthly_value"`
}

// ProductChurnRequest body para POST /api/clients/:id/products/:slug/churn.
type ProductChurnRequest struct {
	MonthlyValue     decimal.Decimal `json:"monthly_value"`
	HasValidContract bool            `json:"has_valid_contract"`
}

// ClientListQuery filtros de GET /api/clients.
type ClientListQuery struct {
	Status          string `query:"status"`
	Product         string `query:"product"`
	ProductChurned  *bool  `query:"product_churned"`
	IncludeArchived bool   `query:"include_archived"`
	PageRequest
}

// ClientResponse cliente en respuestas.
type ClientResponse struct {
	ID                  string          `json:"id"`
	Name                string          `json:"name"`
	Status              string          `json:"status"`
	Archived            bool            `json:"archived"`
	DistratoStep        *string         `json:"distrato_step"`
	DistratoEnteredAt   *time.Time      `json:"distrato_entered_at"`
	ContractedProducts  []string        `json:"contracted_products"`
	ChurnedProducts     []string        `json:"churned_products,omitempty"`
	SalesPercentage     decimal.Decimal `json:"sales_percentage"`
	MonthlyValue        decimal.Decimal `json:"monthly_value"`
	EntryDate           string          `json:"entry_date"`
	OnboardingStartedAt *time.Time      `json:"onboarding_started_at,omitempty"`
	CampaignPublishedAt *time.Time      `json:"campaign_published_at,omitempty"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// NewClientResponse mapea la entidad a su representación HTTP.
func NewClientResponse(c *entity.Client, churned []entity.ProductSlug) ClientResponse {
	resp := ClientResponse{
		ID:                  c.ID,
		Name:                c.Name,
		Status:              string(c.Status),
		Archived:            c.Archived,
		DistratoEnteredAt:   c.DistratoEnteredAt,
		ContractedProducts:  slugsToStrings(c.ContractedProducts),
		ChurnedProducts:     slugsToStrings(churned),
		SalesPercentage:     c.SalesPercentage,
		MonthlyValue:        c.MonthlyValue,
		EntryDate:           c.EntryDate.Format("2006-01-02"),
		OnboardingStartedAt: c.OnboardingStartedAt,
		CampaignPublishedAt: c.CampaignPublishedAt,
		UpdatedAt:           c.UpdatedAt,
	}
	if c.DistratoStep != nil {
		s := string(*c.DistratoStep)
		resp.DistratoStep = &s
	}
	return resp
}

func slugsToStrings(in []entity.ProductSlug) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, string(s))
	}
	return out
}

// SaleResponse venta registrada.
type SaleResponse struct {
	ID                   string          `json:"id"`
	ClientID             string          `json:"client_id"`
	Value                decimal.Decimal `json:"value"`
	SaleDate             string          `json:"sale_date"`
	CommissionPercentage decimal.Decimal `json:"commission_percentage"`
}

// NewSaleResponse mapea la venta.
func NewSaleResponse(s *entity.Sale) SaleResponse {
	return SaleResponse{
		ID:                   s.ID,
		ClientID:             s.ClientID,
		Value:                s.Value,
		SaleDate:             s.SaleDate.Format("2006-01-02"),
		CommissionPercentage: s.CommissionPercentage,
	}
}

// UpsellResponse upsell registrado.
type UpsellResponse struct {
	ID           string          `json:"id"`
	ClientID     string          `json:"client_id"`
	ProductSlug  string          `json:"product_slug"`
	MonthlyValue decimal.Decimal `json:"monthly_value"`
	CreatedAt    time.Time       `json:"created_at"`
}

// NewUpsellResponse mapea el upsell.
func NewUpsellResponse(u *entity.Upsell) UpsellResponse {
	return UpsellResponse{
		ID:           u.ID,
		ClientID:     u.ClientID,
		ProductSlug:  string(u.ProductSlug),
		MonthlyValue: u.MonthlyValue,
		CreatedAt:    u.CreatedAt,
	}
}

// ProductChurnResponse churn de producto.
type ProductChurnResponse struct {
	ID               string          `json:"id"`
	ClientID         string          `json:"client_id"`
	ProductSlug      string          `json:"product_slug"`
	Step             string          `json:"step"`
	InitiatedAt      time.Time       `json:"initiated_at"`
	HasValidContract bool            `json:"has_valid_contract"`
	MonthlyValue     decimal.Decimal `json:"monthly_value"`
}

// NewProductChurnResponse mapea el churn de producto.
func NewProductChurnResponse(p *entity.ProductChurn) ProductChurnResponse {
	return ProductChurnResponse{
		ID:               p.ID,
		ClientID:         p.ClientID,
		ProductSlug:      string(p.ProductSlug),
		Step:             string(p.Step),
		InitiatedAt:      p.InitiatedAt,
		HasValidContract: p.HasValidContract,
		MonthlyValue:     p.MonthlyValue,
	}
}
