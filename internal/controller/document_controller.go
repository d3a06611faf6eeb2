package controller

import (
	"io"

	"rag-chatbot-be/internal/pkg/serverutils"
	"rag-chatbot-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type DocumentController struct {
	documentService service.IDocumentService
}

func NewDocumentController(documentService service.IDocumentService) *DocumentController {
	return &DocumentController{documentService: documentService}
}

func (c *DocumentController) RegisterRoutes(router fiber.Router) {
	router.Post("/upload", serverutils.JwtMiddleware, c.Upload)

	documents := router.Group("/documents", serverutils.JwtMiddleware)
	documents.Get("/", c.List)
	documents.Get("/:id", c.Show)
	documents.Delete("/:id", c.Delete)
}

func (c *DocumentController) Upload(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "missing file field")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "unable to open uploaded file")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "unable to read uploaded file")
	}

	resp, err := c.documentService.Upload(ctx.Context(), userId, fileHeader.Filename, data)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("document accepted for indexing", resp))
}

func (c *DocumentController) List(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	resp, err := c.documentService.List(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("documents retrieved", resp))
}

func (c *DocumentController) Show(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid document id")
	}

	resp, err := c.documentService.Show(ctx.Context(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("document retrieved", resp))
}

func (c *DocumentController) Delete(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid document id")
	}

	if err := c.documentService.Delete(ctx.Context(), userId, id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("document deleted", nil))
}

// currentUserId reads the authenticated user set by JwtMiddleware.
func currentUserId(ctx *fiber.Ctx) (uuid.UUID, error) {
	raw, ok := ctx.Locals("user_id").(string)
	if !ok {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "missing authentication")
	}
	userId, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "invalid authentication")
	}
	return userId, nil
}
