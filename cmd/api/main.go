package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/swaggo/swag"

	_ "github.com/jhoicas/agencia-lifecycle/docs"
	"github.com/jhoicas/agencia-lifecycle/internal/application/actionplans"
	"github.com/jhoicas/agencia-lifecycle/internal/application/clients"
	"github.com/jhoicas/agencia-lifecycle/internal/application/commissions"
	"github.com/jhoicas/agencia-lifecycle/internal/application/ports"
	"github.com/jhoicas/agencia-lifecycle/internal/infrastructure/events"
	"github.com/jhoicas/agencia-lifecycle/internal/infrastructure/memory"
	"github.com/jhoicas/agencia-lifecycle/internal/infrastructure/observability"
	"github.com/jhoicas/agencia-lifecycle/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/agencia-lifecycle/internal/interfaces/http"
	"github.com/jhoicas/agencia-lifecycle/pkg/config"
	"github.com/jhoicas/agencia-lifecycle/pkg/logger"
)

// @title                      Agencia Lifecycle API
// @version                    1.0
// @description                Ciclo de vida de clientes de la agencia: registro, comisiones, distrato y planes de acción.
// @BasePath                   /api
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.Log.Level,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("store", cfg.App.Store).
		Msg("iniciando aplicación")

	ctx := context.Background()
	clock := ports.SystemClock{}
	metrics := observability.NewMetrics()

	// Publicador de churn: Kafka si hay brokers; si no, solo queda la fila persistida.
	var publisher ports.ChurnPublisher = events.NopPublisher{}
	var kafkaPub *events.KafkaPublisher
	if cfg.Kafka.Enabled() {
		kafkaPub = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.ChurnTopic)
		publisher = kafkaPub
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.ChurnTopic).Msg("publicación de churn habilitada")
	}

	deps := httpRouter.RouterDeps{JWTSecret: cfg.JWT.Secret, Log: log.Named("http")}
	if cfg.App.UsesMemoryStore() {
		store := memory.NewStore()
		deps.ClientUC = clients.NewClientUseCase(store, store.Clients(), store.ProductChurns(), clock, metrics, log.Named("clients"))
		deps.SalesUC = clients.NewSalesUseCase(store, clock, metrics, log.Named("sales"))
		deps.ChurnUC = clients.NewChurnUseCase(store, publisher, clock, metrics, log.Named("churn"))
		deps.CommissionUC = commissions.NewCommissionUseCase(store, store.Commissions(), clock, metrics, log.Named("commissions"))
		deps.ActionPlanUC = actionplans.NewActionPlanUseCase(store, store.ActionPlans(), clock, metrics, log.Named("action_plans"))
		log.Warn().Msg("store en memoria: los datos se pierden al reiniciar")
	} else {
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()

		txRunner := postgres.NewTxRunner(pool)
		deps.ClientUC = clients.NewClientUseCase(txRunner, postgres.NewClientRepository(pool), postgres.NewProductChurnRepository(pool), clock, metrics, log.Named("clients"))
		deps.SalesUC = clients.NewSalesUseCase(txRunner, clock, metrics, log.Named("sales"))
		deps.ChurnUC = clients.NewChurnUseCase(txRunner, publisher, clock, metrics, log.Named("churn"))
		deps.CommissionUC = commissions.NewCommissionUseCase(txRunner, postgres.NewCommissionRepository(pool), clock, metrics, log.Named("commissions"))
		deps.ActionPlanUC = actionplans.NewActionPlanUseCase(txRunner, postgres.NewActionPlanRepository(pool), clock, metrics, log.Named("action_plans"))
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(metrics.Middleware())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Agencia Lifecycle API",
	}))
	app.Get("/swagger.json", func(c *fiber.Ctx) error {
		doc, err := swag.ReadDoc()
		if err != nil {
			return c.SendStatus(fiber.StatusNotFound)
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString(doc)
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		resp := fiber.Map{"status": "ok", "service": cfg.App.Name}
		if kafkaPub != nil {
			resp["publisher"] = kafkaPub.State()
		}
		return c.JSON(resp)
	})
	app.Get("/metrics", metrics.Handler())

	httpRouter.Router(app, deps)

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			log.Error().Err(err).Msg("cerrar publicador de churn")
		}
	}

	log.Info().Msg("aplicación detenida")
}
