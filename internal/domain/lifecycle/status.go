package lifecycle

import (
	"fmt"
	"time"

	"github.com/jhoicas/agencia-lifecycle/internal/domain"
	"github.com/jhoicas/agencia-lifecycle/internal/domain/entity"
)

// MilestoneStatus estado derivado de los hitos: el hito más reciente gana
// (campaña publicada > onboarding iniciado > cliente nuevo).
func MilestoneStatus(c *entity.Client) entity.ClientStatus {
	switch {
	case c.CampaignPublishedAt != nil:
		return entity.ClientStatusCampaignPublished
	case c.OnboardingStartedAt != nil:
		return entity.ClientStatusOnboarding
	default:
		return entity.ClientStatusNew
	}
}

// Restore saca al cliente del distrato global y del archivo, recalculando el estado por hitos.
func Restore(c *entity.Client, now time.Time) {
	c.Archived = false
	c.DistratoStep = nil
	c.DistratoEnteredAt = nil
	c.Status = MilestoneStatus(c)
	c.UpdatedAt = now
}

// Archive archiva un cliente; solo permitido con estado churned.
func Archive(c *entity.Client, now time.Time) error {
	if c.Status != entity.ClientStatusChurned {
		return fmt.Errorf("%w: solo clientes en churn pueden archivarse", domain.ErrInvalidState)
	}
	c.Archived = true
	c.UpdatedAt = now
	return nil
}

// StartOnboarding registra el hito de onboarding y avanza el estado si corresponde.
func StartOnboarding(c *entity.Client, now time.Time) error {
	if c.Status == entity.ClientStatusChurned {
		return fmt.Errorf("%w: el cliente está en churn", domain.ErrInvalidState)
	}
	if c.OnboardingStartedAt == nil {
		t := now
		c.OnboardingStartedAt = &t
	}
	c.Status = MilestoneStatus(c)
	c.UpdatedAt = now
	return nil
}

// PublishCampaign registra el hito de campaña publicada.
func PublishCampaign(c *entity.Client, now time.Time) error {
	if c.Status == entity.ClientStatusChurned {
		return fmt.Errorf("%w: el cliente está en churn", domain.ErrInvalidState)
	}
	if c.CampaignPublishedAt == nil {
		t := now
		c.CampaignPublishedAt = &t
	}
	c.Status = MilestoneStatus(c)
	c.UpdatedAt = now
	return nil
}
