package handler

import (
	"os"
	"strings"

	ws "rag-chatbot-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type NotificationHandler struct {
	hub *ws.Hub
}

func NewNotificationHandler(hub *ws.Hub) *NotificationHandler {
	return &NotificationHandler{hub: hub}
}

func (h *NotificationHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws/notifications", h.upgrade, websocket.New(h.serve))
}

// upgrade authenticates the websocket handshake. Browsers cannot set
// headers on WebSocket connections, so the token may arrive as a query
// parameter instead of an Authorization header.
func (h *NotificationHandler) upgrade(ctx *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}

	tokenString := ctx.Query("token")
	if tokenString == "" {
		authHeader := ctx.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}
	if tokenString == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "missing token")
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid claims")
	}
	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid claims")
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid user id")
	}

	ctx.Locals("ws_user_id", userID)
	return ctx.Next()
}

func (h *NotificationHandler) serve(conn *websocket.Conn) {
	userID, ok := conn.Locals("ws_user_id").(uuid.UUID)
	if !ok {
		conn.Close()
		return
	}
	ws.ServeWs(h.hub, conn, userID)
}
