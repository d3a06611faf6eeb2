package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"

	"rag-chatbot-be/internal/dto"
	"rag-chatbot-be/internal/pkg/serverutils"
	"rag-chatbot-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

type ChatController struct {
	chatService service.IChatService
}

func NewChatController(chatService service.IChatService) *ChatController {
	return &ChatController{chatService: chatService}
}

func (c *ChatController) RegisterRoutes(router fiber.Router) {
	router.Post("/chat", serverutils.JwtMiddleware, c.SendChat)

	conversations := router.Group("/conversations", serverutils.JwtMiddleware)
	conversations.Get("/", c.ListConversations)
	conversations.Get("/:id", c.GetHistory)
	conversations.Get("/:id/export", c.Export)
	conversations.Delete("/:id", c.DeleteConversation)

	router.Post("/messages/:id/rating", serverutils.JwtMiddleware, c.RateMessage)
}

func (c *ChatController) SendChat(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	var req dto.SendChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if req.Stream {
		return c.streamChat(ctx, userId, &req)
	}

	resp, err := c.chatService.SendChat(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("chat completed", resp))
}

// streamChat delivers the assistant reply as Server-Sent Events. The
// retrieval step runs before the response headers are written so typed
// errors can still surface with their HTTP status.
func (c *ChatController) streamChat(ctx *fiber.Ctx, userId uuid.UUID, req *dto.SendChatRequest) error {
	ctx.Set("Content-Type", "text/event-stream")
	ctx.Set("Cache-Control", "no-cache")
	ctx.Set("Connection", "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")

	// Fiber releases the request context once the handler returns, so
	// the stream writer uses a detached context.
	streamCtx := context.Background()

	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		resp, err := c.chatService.StreamChat(streamCtx, userId, req, func(token string) error {
			payload, _ := json.Marshal(map[string]string{"token": token})
			if _, werr := fmt.Fprintf(w, "data: %s\n\n", payload); werr != nil {
				return werr
			}
			return w.Flush()
		})
		if err != nil {
			payload, _ := json.Marshal(map[string]string{"error": err.Error()})
			fmt.Fprintf(w, "event: error\ndata: %s\n\n", payload)
			w.Flush()
			return
		}

		payload, _ := json.Marshal(resp)
		fmt.Fprintf(w, "event: done\ndata: %s\n\n", payload)
		w.Flush()
	}))

	return nil
}

func (c *ChatController) ListConversations(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	resp, err := c.chatService.ListSessions(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("conversations retrieved", resp))
}

func (c *ChatController) GetHistory(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	sessionId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid conversation id")
	}

	resp, err := c.chatService.GetHistory(ctx.Context(), userId, sessionId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("history retrieved", resp))
}

func (c *ChatController) DeleteConversation(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	sessionId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid conversation id")
	}

	if err := c.chatService.DeleteSession(ctx.Context(), userId, sessionId); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("conversation deleted", nil))
}

func (c *ChatController) RateMessage(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	messageId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid message id")
	}

	var req dto.RateMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	req.Id = messageId
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.chatService.RateMessage(ctx.Context(), userId, &req); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("message rated", nil))
}

func (c *ChatController) Export(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	sessionId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid conversation id")
	}

	format := ctx.Query("format", "markdown")
	content, contentType, err := c.chatService.Export(ctx.Context(), userId, sessionId, format)
	if err != nil {
		return err
	}

	ctx.Set("Content-Type", contentType)
	ctx.Set("Content-Disposition", fmt.Sprintf("attachment; filename=conversation-%s.%s", sessionId, exportExtension(format)))
	return ctx.SendString(content)
}

func exportExtension(format string) string {
	if format == "json" {
		return "json"
	}
	return "md"
}
