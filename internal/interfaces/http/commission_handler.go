package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/agencia-lifecycle/internal/application/commissions"
	"github.com/jhoicas/agencia-lifecycle/internal/application/dto"
)

// CommissionHandler maneja resumen y pago de comisiones.
type CommissionHandler struct {
	uc *commissions.CommissionUseCase
}

// NewCommissionHandler construye el handler.
func NewCommissionHandler(uc *commissions.CommissionUseCase) *CommissionHandler {
	return &CommissionHandler{uc: uc}
}

// Summary GET /api/commissions/summary?from=YYYY-MM-DD&to=YYYY-MM-DD
// @Summary     Resumen por rol y mes
// @Tags        commissions
// @Security    BearerAuth
// @Produce     json
// @Param       from query string false "YYYY-MM-DD inclusive"
// @Param       to query string false "YYYY-MM-DD exclusive"
// @Success     200 {object} map[string]interface{}
// @Failure     400 {object} dto.ErrorResponse
// @Router      /commissions/summary [get]
func (h *CommissionHandler) Summary(c *fiber.Ctx) error {
	from, err := parseQueryDate(c.Query("from"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from debe tener formato YYYY-MM-DD"})
	}
	to, err := parseQueryDate(c.Query("to"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "to debe tener formato YYYY-MM-DD"})
	}
	groups, err := h.uc.Summary(c.UserContext(), from, to)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"groups": dto.NewCommissionGroupResponses(groups)})
}

// MarkPaid POST /api/commissions/:id/pay
// @Summary     Marcar comisión de upsell como pagada
// @Tags        commissions
// @Security    BearerAuth
// @Produce     json
// @Param       id path string true "ID de la comisión"
// @Success     200 {object} dto.CommissionResponse
// @Failure     400 {object} dto.ErrorResponse
// @Failure     404 {object} dto.ErrorResponse
// @Router      /commissions/{id}/pay [post]
func (h *CommissionHandler) MarkPaid(c *fiber.Ctx) error {
	cm, err := h.uc.MarkPaid(c.UserContext(), GetCaller(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewCommissionResponse(cm))
}

func parseQueryDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
