package handlers

import (
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	gatews "github.com/SudeepMi/parking-api/internal/websocket"
	"github.com/SudeepMi/parking-api/pkg/utils"
)

// GateFeedHandler upgrades admin dashboards onto the live session event feed.
type GateFeedHandler struct {
	hub       *gatews.Hub
	jwtSecret string
}

func NewGateFeedHandler(hub *gatews.Hub, jwtSecret string) *GateFeedHandler {
	return &GateFeedHandler{
		hub:       hub,
		jwtSecret: jwtSecret,
	}
}

func (h *GateFeedHandler) WebSocketAuth(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	token := c.Query("token")
	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing token"})
	}

	claims, err := utils.ValidateToken(token, h.jwtSecret)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
	}
	if claims.Role != "admin" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	return c.Next()
}

func (h *GateFeedHandler) HandleWebSocket(conn *websocket.Conn) {
	client := gatews.NewClient(h.hub, conn)
	h.hub.Register(client)

	go client.WritePump()
	client.ReadPump()
}
