// Package main provides the Prosaga API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/prosaga/prosaga/pkg/engine"
	"github.com/prosaga/prosaga/pkg/eventstore"
	"github.com/prosaga/prosaga/pkg/persistence"
	"github.com/prosaga/prosaga/pkg/registry"
	"github.com/prosaga/prosaga/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	engine      *engine.Engine
	store       eventstore.EventStore
	registry    *registry.Registry
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	engine *engine.Engine,
	store eventstore.EventStore,
	registry *registry.Registry,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		engine:      engine,
		store:       store,
		registry:    registry,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.persistence, a.engine, a.store, a.registry, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Prosaga API")
	})

	p := app.Group("/processes")
	p.Get("/", handlers.GetProcesses)
	p.Post("/", handlers.CreateProcess)
	p.Get("/:name", handlers.GetProcess)
	p.Put("/:name", handlers.UpdateProcess)
	p.Delete("/:name", handlers.DeleteProcess)
	p.Post("/:name/execute", handlers.ExecuteProcess)

	e := app.Group("/executions")
	e.Get("/:id", handlers.GetExecution)
	e.Get("/:id/replay", handlers.ReplayExecution)

	app.Get("/steps", handlers.GetSteps)
	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
