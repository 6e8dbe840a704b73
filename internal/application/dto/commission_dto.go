package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/agencia-lifecycle/internal/domain/entity"
)

// CommissionResponse comisión en respuestas.
type CommissionResponse struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	SourceID      string          `json:"source_id"`
	ClientID      string          `json:"client_id"`
	Value         decimal.Decimal `json:"value"`
	Status        string          `json:"status"`
	RecipientRole string          `json:"recipient_role"`
	CreatedAt     time.Time       `json:"created_at"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
}

// NewCommissionResponse mapea la comisión.
func NewCommissionResponse(c *entity.Commission) CommissionResponse {
	return CommissionResponse{
		ID:            c.ID,
		Type:          string(c.Type),
		SourceID:      c.SourceID,
		ClientID:      c.ClientID,
		Value:         c.Value,
		Status:        string(c.Status),
		RecipientRole: string(c.RecipientRole),
		CreatedAt:     c.CreatedAt,
		PaidAt:        c.PaidAt,
	}
}

// CommissionGroupResponse total por rol receptor y mes.
type CommissionGroupResponse struct {
	RecipientRole string          `json:"recipient_role"`
	Month         string          `json:"month"`
	Count         int             `json:"count"`
	Total         decimal.Decimal `json:"total"`
	Pending       decimal.Decimal `json:"pending"`
	Paid          decimal.Decimal `json:"paid"`
}

// NewCommissionGroupResponses mapea la agrupación.
func NewCommissionGroupResponses(groups []entity.CommissionGroup) []CommissionGroupResponse {
	out := make([]CommissionGroupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, CommissionGroupResponse{
			RecipientRole: string(g.RecipientRole),
			Month:         g.Month,
			Count:         g.Count,
			Total:         g.Total,
			Pending:       g.Pending,
			Paid:          g.Paid,
		})
	}
	return out
}
