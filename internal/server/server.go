package server

import (
	"log"

	"ai-reqextract-be/internal/bootstrap"
	"ai-reqextract-be/internal/config"
	"ai-reqextract-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		// Extraction runs block for minutes; fiber must not cut them off.
		ReadTimeout:  0,
		WriteTimeout: 0,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.App.CorsAllowedOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, X-Api-Key",
		AllowMethods:  "GET, POST, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Content-Type",
	}))

	app.Use(serverutils.ErrorHandlerMiddleware())

	registerRoutes(app, cfg, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	log.Printf("✅ Server is running on http://localhost:%s", s.cfg.App.Port)
	return s.app.Listen(":" + s.cfg.App.Port)
}

func registerRoutes(app *fiber.App, cfg *config.Config, c *bootstrap.Container) {
	api := app.Group("/api")
	auth := serverutils.NewAPIKeyMiddleware(cfg.App.APIKey)

	c.ExtractionController.RegisterRoutes(api, auth)

	app.Get("/healthz", func(ctx *fiber.Ctx) error {
		return ctx.JSON(serverutils.SuccessResponse("ok", nil))
	})
}
