package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/agencia-lifecycle/internal/application/actionplans"
	"github.com/jhoicas/agencia-lifecycle/internal/application/clients"
	"github.com/jhoicas/agencia-lifecycle/internal/application/commissions"
	"github.com/jhoicas/agencia-lifecycle/internal/domain/entity"
	"github.com/jhoicas/agencia-lifecycle/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ClientUC     *clients.ClientUseCase
	SalesUC      *clients.SalesUseCase
	ChurnUC      *clients.ChurnUseCase
	CommissionUC *commissions.CommissionUseCase
	ActionPlanUC *actionplans.ActionPlanUseCase
	JWTSecret    string
	Log          *logger.Logger // nil = sin access log
}

// Router registra las rutas de la API. Todas las rutas bajo /api exigen Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")
	if deps.Log != nil {
		api.Use(AccessLog(deps.Log))
	}
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Clients
	clientHandler := NewClientHandler(deps.ClientUC, deps.SalesUC, deps.ChurnUC)
	cl := protected.Group("/clients")
	cl.Post("/", clientHandler.Create)
	cl.Get("/", clientHandler.List)
	cl.Get("/:id", clientHandler.Get)
	cl.Post("/:id/onboarding", clientHandler.StartOnboarding)
	cl.Post("/:id/campaign", clientHandler.PublishCampaign)
	cl.Put("/:id/contract", clientHandler.UpsertContract)
	cl.Post("/:id/sales", clientHandler.RegisterSale)
	cl.Post("/:id/upsells", clientHandler.RegisterUpsell)
	cl.Post("/:id/churn", clientHandler.InitiateGlobalChurn)
	cl.Post("/:id/products/:slug/churn", clientHandler.InitiateProductChurn)
	cl.Post("/:id/restore", clientHandler.Restore)
	cl.Post("/:id/archive", clientHandler.Archive)

	// Commissions
	commissionHandler := NewCommissionHandler(deps.CommissionUC)
	cm := protected.Group("/commissions")
	cm.Get("/summary", commissionHandler.Summary)
	cm.Post("/:id/pay", RequireRole(entity.RoleAdmin, entity.RoleGestor), commissionHandler.MarkPaid)

	// Action plans; /tasks/:taskId antes de /:id
	planHandler := NewActionPlanHandler(deps.ActionPlanUC)
	ap := protected.Group("/action-plans")
	ap.Post("/", planHandler.Create)
	ap.Get("/", planHandler.List)
	ap.Patch("/tasks/:taskId", planHandler.ToggleTask)
	ap.Get("/:id", planHandler.Get)
	ap.Post("/:id/tasks", planHandler.AddTask)
	ap.Patch("/:id/status", planHandler.UpdateStatus)
	ap.Delete("/:id", planHandler.Delete)
}

// AccessLog registra cada petición; los 5xx incluyen el error original.
func AccessLog(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		ev := log.Info()
		if status >= fiber.StatusInternalServerError {
			ev = log.Error()
			if cause, ok := c.Locals(localError).(error); ok {
				ev = ev.Err(cause)
			}
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("user_id", GetUserID(c)).
			Msg("http request")
		return err
	}
}
