package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/agencia-lifecycle/internal/application/clients"
	"github.com/jhoicas/agencia-lifecycle/internal/application/dto"
	"github.com/jhoicas/agencia-lifecycle/internal/domain"
	"github.com/jhoicas/agencia-lifecycle/internal/domain/entity"
)

// ClientHandler maneja las peticiones HTTP del ciclo de vida del cliente.
type ClientHandler struct {
	clients *clients.ClientUseCase
	sales   *clients.SalesUseCase
	churn   *clients.ChurnUseCase
}

// NewClientHandler construye el handler.
func NewClientHandler(c *clients.ClientUseCase, s *clients.SalesUseCase, ch *clients.ChurnUseCase) *ClientHandler {
	return &ClientHandler{clients: c, sales: s, churn: ch}
}

// Create POST /api/clients
// @Summary     Crear cliente
// @Tags        clients
// @Security    BearerAuth
// @Produce     json
// @Accept      json
// @Param       body body dto.CreateClientRequest true "payload"
// @Success     201 {object} dto.ClientResponse
// @Failure     400 {object} dto.ErrorResponse
// @Router      /clients [post]
func (h *ClientHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateClientRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	client, err := h.clients.Create(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewClientResponse(client, nil))
}

// List GET /api/clients?status=&product=&product_churned=&include_archived=&limit=&offset=
// @Summary     Listar clientes
// @Tags        clients
// @Security    BearerAuth
// @Produce     json
// @Param       status query string false "new_client | onboarding | campaign_published | churned"
// @Param       product query string false "slug de producto"
// @Param       product_churned query bool false "con o sin churn del producto"
// @Success     200 {object} map[string]interface{}
// @Failure     400 {object} dto.ErrorResponse
// @Router      /clients [get]
func (h *ClientHandler) List(c *fiber.Ctx) error {
	var q dto.ClientListQuery
	if err := c.QueryParser(&q); err != nil {
		return respondError(c, domain.ErrInvalidInput)
	}
	q.DefaultPage()
	f := clients.ListFilter{
		Product:         entity.NewProductSlug(q.Product),
		ProductChurned:  q.ProductChurned,
		IncludeArchived: q.IncludeArchived,
		Limit:           q.Limit,
		Offset:          q.Offset,
	}
	if q.Status != "" {
		st, ok := entity.ParseClientStatus(q.Status)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "status desconocido"})
		}
		f.Status = &st
	}
	list, err := h.clients.List(c.UserContext(), f)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.ClientResponse, 0, len(list))
	for _, v := range list {
		out = append(out, dto.NewClientResponse(v.Client, v.ChurnedProducts))
	}
	return c.JSON(fiber.Map{
		"items": out,
		"page":  dto.PageResponse{Limit: q.Limit, Offset: q.Offset},
	})
}

// Get GET /api/clients/:id
// @Summary     Obtener cliente
// @Tags        clients
// @Security    BearerAuth
// @Produce     json
// @Param       id path string true "ID del cliente"
// @Success     200 {object} dto.ClientResponse
// @Failure     400 {object} dto.ErrorResponse
// @Failure     404 {object} dto.ErrorResponse
// @Router      /clients/{id} [get]
func (h *ClientHandler) Get(c *fiber.Ctx) error {
	v, err := h.clients.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewClientResponse(v.Client, v.ChurnedProducts))
}

// StartOnboarding POST /api/clients/:id/onboarding
// @Summary     Iniciar onboarding
// @Tags        clients
// @Security    BearerAuth
// @Produce     json
// @Param       id path string true "ID del cliente"
// @Success     200 {object} dto.ClientResponse
// @Failure     400 {object} dto.ErrorResponse
// @Failure     404 {object} dto.ErrorResponse
// @Router      /clients/{id}/onboarding [post]
func (h *ClientHandler) StartOnboarding(c *fiber.Ctx) error {
	client, err := h.clients.StartOnboarding(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewClientResponse(client, nil))
}

// PublishCampaign POST /api/clients/:id/campaign
// @Summary     Publicar campaña
// @Tags        clients
// @Security    BearerAuth
// @Produce     json
// @Param       id path string true "ID del cliente"
// @Success     200 {object} dto.ClientResponse
// @Failure     400 {object} dto.ErrorResponse
// @Failure     404 {object} dto.ErrorResponse
// @Router      /clients/{id}/campaign [post]
func (h *ClientHandler) PublishCampaign(c *fiber.Ctx) error {
	client, err := h.clients.PublishCampaign(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewClientResponse(client, nil))
}

// UpsertContract PUT /api/clients/:id/contract
// @Summary     Registrar o actualizar contrato
// @Tags        clients
// @Security    BearerAuth
// @Produce     json
// @Accept      json
// @Param       id path string true "ID del cliente"
// @Param       body body dto.UpsertContractRequest true "payload"
// @Success     200 {object} map[string]interface{}
// @Failure     400 {object} dto.ErrorResponse
// @Failure     404 {object} dto.ErrorResponse
// @Router      /clients/{id}/contract [put]
func (h *ClientHandler) UpsertContract(c *fiber.Ctx) error {
	var in dto.UpsertContractRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	contract, err := h.clients.UpsertContract(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"client_id":           contract.ClientID,
		"contract_expires_at": contract.ContractExpiresAt,
		"monthly_value":       contract.MonthlyValue,
	})
}

// RegisterSale POST /api/clients/:id/sales
// @Summary     Registrar venta
// @Tags        sales
// @Security    BearerAuth
// @Produce     json
// @Accept      json
// @Param       id path string true "ID del cliente"
// @Param       body body dto.RegisterSaleRequest true "payload"
// @Success     201 {object} map[string]interface{}
// @Failure     400 {object} dto.ErrorResponse
// @Failure     404 {object} dto.ErrorResponse
// @Router      /clients/{id}/sales [post]
func (h *ClientHandler) RegisterSale(c *fiber.Ctx) error {
	var in dto.RegisterSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	sale, list, err := h.sales.RegisterSale(c.UserContext(), GetCaller(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.CommissionResponse, 0, len(list))
	for _, cm := range list {
		out = append(out, dto.NewCommissionResponse(cm))
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"sale":        dto.NewSaleResponse(sale),
		"commissions": out,
	})
}

// RegisterUpsell POST /api/clients/:id/upsells
// @Summary     Registrar upsell
// @Tags        sales
// @Security    BearerAuth
// @Produce     json
// @Accept      json
// @Param       id path string true "ID del cliente"
// @Param       body body dto.RegisterUpsellRequest true "payload"
// @Success     201 {object} map[string]interface{}
// @Failure     400 {object} dto.ErrorResponse
// @Failure     404 {object} dto.ErrorResponse
// @Router      /clients/{id}/upsells [post]
func (h *ClientHandler) RegisterUpsell(c *fiber.Ctx) error {
	var in dto.RegisterUpsellRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	upsell, commission, err := h.sales.RegisterUpsell(c.UserContext(), GetCaller(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"upsell":     dto.NewUpsellResponse(upsell),
		"commission": dto.NewCommissionResponse(commission),
	})
}

// InitiateGlobalChurn POST /api/clients/:id/churn
// @Summary     Iniciar churn global
// @Tags        churn
// @Security    BearerAuth
// @Produce     json
// @Param       id path string true "ID del cliente"
// @Success     200 {object} dto.ClientResponse
// @Failure     400 {object} dto.ErrorResponse
// @Failure     404 {object} dto.ErrorResponse
// @Router      /clients/{id}/churn [post]
func (h *ClientHandler) InitiateGlobalChurn(c *fiber.Ctx) error {
	client, err := h.churn.InitiateGlobalChurn(c.UserContext(), GetCaller(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewClientResponse(client, nil))
}

// InitiateProductChurn POST /api/clients/:id/products/:slug/churn
// @Summary     Iniciar churn de producto
// @Tags        churn
// @Security    BearerAuth
// @Produce     json
// @Accept      json
// @Param       id path string true "ID del cliente"
// @Param       slug path string true "producto"
// @Param       body body dto.ProductChurnRequest true "payload"
// @Success     201 {object} dto.ProductChurnResponse
// @Failure     400 {object} dto.ErrorResponse
// @Failure     404 {object} dto.ErrorResponse
// @Router      /clients/{id}/products/{slug}/churn [post]
func (h *ClientHandler) InitiateProductChurn(c *fiber.Ctx) error {
	var in dto.ProductChurnRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
	}
	pc, err := h.churn.InitiateProductChurn(c.UserContext(), GetCaller(c), c.Params("id"), c.Params("slug"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewProductChurnResponse(pc))
}

// Restore POST /api/clients/:id/restore
// @Summary     Restaurar cliente
// @Tags        churn
// @Security    BearerAuth
// @Produce     json
// @Param       id path string true "ID del cliente"
// @Success     200 {object} dto.ClientResponse
// @Failure     400 {object} dto.ErrorResponse
// @Failure     404 {object} dto.ErrorResponse
// @Router      /clients/{id}/restore [post]
func (h *ClientHandler) Restore(c *fiber.Ctx) error {
	client, err := h.clients.Restore(c.UserContext(), GetCaller(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewClientResponse(client, nil))
}

// Archive POST /api/clients/:id/archive
// @Summary     Archivar cliente
// @Tags        clients
// @Security    BearerAuth
// @Produce     json
// @Param       id path string true "ID del cliente"
// @Success     200 {object} dto.ClientResponse
// @Failure     400 {object} dto.ErrorResponse
// @Failure     404 {object} dto.ErrorResponse
// @Router      /clients/{id}/archive [post]
func (h *ClientHandler) Archive(c *fiber.Ctx) error {
	client, err := h.clients.Archive(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.NewClientResponse(client, nil))
}
