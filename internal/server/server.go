package server

import (
	"fmt"

	"rag-chatbot-be/internal/bootstrap"
	"rag-chatbot-be/internal/config"
	"rag-chatbot-be/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

type Server struct {
	app       *fiber.App
	container *bootstrap.Container
	cfg       *config.Config
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		AppName:   "rag-chatbot-be",
		BodyLimit: cfg.Ingest.MaxUploadMB * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.App.CorsAllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(otelfiber.Middleware())
	app.Use(serverutils.ErrorHandlerMiddleware())

	s := &Server{
		app:       app,
		container: container,
		cfg:       cfg,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.app.Group("/api")

	s.container.HealthController.RegisterRoutes(api)
	s.container.AuthController.RegisterRoutes(api)
	s.container.DocumentController.RegisterRoutes(api)
	s.container.ChatController.RegisterRoutes(api)
	s.container.NotificationHandler.RegisterRoutes(api)
}

func (s *Server) Run() error {
	return s.app.Listen(fmt.Sprintf(":%s", s.cfg.App.Port))
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
