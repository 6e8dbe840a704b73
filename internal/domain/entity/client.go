package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ClientStatus estado comercial del cliente.
type ClientStatus string

const (
	ClientStatusNew               ClientStatus = "new_client"
	ClientStatusOnboarding        ClientStatus = "onboarding"
	ClientStatusCampaignPublished ClientStatus = "campaign_published"
	ClientStatusChurned           ClientStatus = "churned"
)

// Valid informa si el estado pertenece al conjunto cerrado.
func (s ClientStatus) Valid() bool {
	switch s {
	case ClientStatusNew, ClientStatusOnboarding, ClientStatusCampaignPublished, ClientStatusChurned:
		return true
	}
	return false
}

// ParseClientStatus convierte texto a ClientStatus; ok=false si no es un estado conocido.
func ParseClientStatus(s string) (ClientStatus, bool) {
	st := ClientStatus(s)
	return st, st.Valid()
}

// Client registro canónico del cliente y sus campos de ciclo de vida.
// DistratoStep != nil sii el cliente está en un distrato global activo.
// Archived implica Status == ClientStatusChurned.
type Client struct {
	ID                  string
	Name                string
	Status              ClientStatus
	Archived            bool
	DistratoStep        *DistratoStep
	DistratoEnteredAt   *time.Time
	ContractedProducts  []ProductSlug
	SalesPercentage     decimal.Decimal // 0..100
	MonthlyValue        decimal.Decimal
	EntryDate           time.Time
	OnboardingStartedAt *time.Time
	CampaignPublishedAt *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// InDistrato informa si hay un distrato global en curso.
func (c *Client) InDistrato() bool {
	return c.DistratoStep != nil
}

// HasProduct informa si el producto está contratado.
func (c *Client) HasProduct(slug ProductSlug) bool {
	for _, p := range c.ContractedProducts {
		if p == slug {
			return true
		}
	}
	return false
}

// AddProduct agrega el producto al conjunto contratado (sin duplicar).
func (c *Client) AddProduct(slug ProductSlug) {
	if !c.HasProduct(slug) {
		c.ContractedProducts = append(c.ContractedProducts, slug)
	}
}

// ActiveClientContract fila del registro de "clientes activos" con el vencimiento del contrato.
type ActiveClientContract struct {
	ClientID          string
	ContractExpiresAt *time.Time // nil = sin contrato firmado
	MonthlyValue      decimal.Decimal
	UpdatedAt         time.Time
}

// IsValidAt informa si el contrato sigue vigente en el instante now.
func (a *ActiveClientContract) IsValidAt(now time.Time) bool {
	return a != nil && a.ContractExpiresAt != nil && a.ContractExpiresAt.After(now)
}
