package controller

import (
	"rag-chatbot-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type HealthController struct {
	healthService service.IHealthService
}

func NewHealthController(healthService service.IHealthService) *HealthController {
	return &HealthController{healthService: healthService}
}

func (c *HealthController) RegisterRoutes(router fiber.Router) {
	health := router.Group("/health")
	health.Get("/", c.Check)
	health.Get("/mistral", c.CheckMistral)
	health.Get("/qdrant", c.CheckQdrant)
}

func (c *HealthController) Check(ctx *fiber.Ctx) error {
	resp := c.healthService.Check(ctx.Context())

	status := fiber.StatusOK
	if resp.Status != service.StatusHealthy {
		status = fiber.StatusServiceUnavailable
	}
	return ctx.Status(status).JSON(resp)
}

func (c *HealthController) CheckMistral(ctx *fiber.Ctx) error {
	resp := c.healthService.CheckMistral(ctx.Context())

	status := fiber.StatusOK
	if resp.Status != service.StatusHealthy {
		status = fiber.StatusServiceUnavailable
	}
	return ctx.Status(status).JSON(resp)
}

func (c *HealthController) CheckQdrant(ctx *fiber.Ctx) error {
	resp := c.healthService.CheckQdrant(ctx.Context())

	status := fiber.StatusOK
	if resp.Status != service.StatusHealthy {
		status = fiber.StatusServiceUnavailable
	}
	return ctx.Status(status).JSON(resp)
}
