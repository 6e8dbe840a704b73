package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/agencia-lifecycle/internal/application/actionplans"
	"github.com/jhoicas/agencia-lifecycle/internal/application/dto"
)

// ActionPlanHandler maneja los planes de acción y su checklist.
type ActionPlanHandler struct {
	uc *actionplans.ActionPlanUseCase
}

// NewActionPlanHandler construye el handler.
func NewActionPlanHandler(uc *actionplans.ActionPlanUseCase) *ActionPlanHandler {
	return &ActionPlanHandler{uc: uc}
}

func planResponse(v *actionplans.PlanView) dto.ActionPlanResponse {
	return dto.NewActionPlanResponse(v.Plan, v.Progress, v.Overdue)
}

// Create POST /api/action-plans
// @Summary     Crear plan de acción
// @Tags        action-plans
// @Security    BearerAuth
// @Produce     json
// @Accept      json
// @Param       body body dto.CreateActionPlanRequest true "payload"
// @Success     201 {object} dto.ActionPlanResponse
// @Failure     400 {object} dto.ErrorResponse
// @Router      /action-plans [post]
func (h *ActionPlanHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateActionPlanRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	v, err := h.uc.Create(c.UserContext(), GetCaller(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(planResponse(v))
}

// List GET /api/action-plans?client_id=&status=
// @Summary     Listar planes
// @Tags        action-plans
// @Security    BearerAuth
// @Produce     json
// @Param       client_id query string false "ID del cliente"
// @Param       status query string false "active | completed | cancelled"
// @Success     200 {object} map[string]interface{}
// @Failure     400 {object} dto.ErrorResponse
// @Router      /action-plans [get]
func (h *ActionPlanHandler) List(c *fiber.Ctx) error {
	list, err := h.uc.List(c.UserContext(), c.Query("client_id"), c.Query("status"))
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.ActionPlanResponse, 0, len(list))
	for _, v := range list {
		out = append(out, planResponse(v))
	}
	return c.JSON(fiber.Map{"items": out})
}

// Get GET /api/action-plans/:id
// @Summary     Obtener plan
// @Tags        action-plans
// @Security    BearerAuth
// @Produce     json
// @Param       id path string true "ID del plan"
// @Success     200 {object} dto.ActionPlanResponse
// @Failure     400 {object} dto.ErrorResponse
// @Failure     404 {object} dto.ErrorResponse
// @Router      /action-plans/{id} [get]
func (h *ActionPlanHandler) Get(c *fiber.Ctx) error {
	v, err := h.uc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(planResponse(v))
}

// AddTask POST /api/action-plans/:id/tasks
// @Summary     Agregar tarea
// @Tags        action-plans
// @Security    BearerAuth
// @Produce     json
// @Accept      json
// @Param       id path string true "ID del plan"
// @Param       body body dto.CreateTaskRequest true "payload"
// @Success     201 {object} dto.TaskResponse
// @Failure     400 {object} dto.ErrorResponse
// @Failure     404 {object} dto.ErrorResponse
// @Router      /action-plans/{id}/tasks [post]
func (h *ActionPlanHandler) AddTask(c *fiber.Ctx) error {
	var in dto.CreateTaskRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	t, err := h.uc.AddTask(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewTaskResponse(t))
}

// ToggleTask PATCH /api/action-plans/tasks/:taskId
// @Summary     Marcar o desmarcar tarea
// @Tags        action-plans
// @Security    BearerAuth
// @Produce     json
// @Accept      json
// @Param       taskId path string true "ID de la tarea"
// @Param       body body dto.ToggleTaskRequest true "payload"
// @Success     200 {object} dto.TaskResponse
// @Failure     400 {object} dto.ErrorResponse
// @Failure     404 {object} dto.ErrorResponse
// @Router      /action-plans/tasks/{taskId} [patch]
func (h *ActionPlanHandler) ToggleTask(c *fiber.Ctx) error {
	var in dto.ToggleTaskRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	t, err := h.uc.ToggleTask(c.UserContext(), c.Params("taskId"), in.Completed)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewTaskResponse(t))
}

// UpdateStatus PATCH /api/action-plans/:id/status
// @Summary     Cerrar plan
// @Tags        action-plans
// @Security    BearerAuth
// @Produce     json
// @Accept      json
// @Param       id path string true "ID del plan"
// @Param       body body dto.UpdatePlanStatusRequest true "payload"
// @Success     200 {object} dto.ActionPlanResponse
// @Failure     400 {object} dto.ErrorResponse
// @Failure     404 {object} dto.ErrorResponse
// @Router      /action-plans/{id}/status [patch]
func (h *ActionPlanHandler) UpdateStatus(c *fiber.Ctx) error {
	var in dto.UpdatePlanStatusRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	v, err := h.uc.UpdateStatus(c.UserContext(), GetCaller(c), c.Params("id"), in.Status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(planResponse(v))
}

// Delete DELETE /api/action-plans/:id
// @Summary     Eliminar plan
// @Tags        action-plans
// @Security    BearerAuth
// @Produce     json
// @Param       id path string true "ID del plan"
// @Success     204
// @Failure     400 {object} dto.ErrorResponse
// @Failure     404 {object} dto.ErrorResponse
// @Router      /action-plans/{id} [delete]
func (h *ActionPlanHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
