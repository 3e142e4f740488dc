package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/SudeepMi/parking-api/internal/config"
)

type docsEndpoint struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
	AdminOnly   bool   `json:"admin_only,omitempty"`
}

var docsEndpoints = []docsEndpoint{
	{Method: "POST", Path: "/api/auth/register", Description: "Create an account and receive a token"},
	{Method: "POST", Path: "/api/auth/login", Description: "Exchange credentials for a token"},
	{Method: "GET", Path: "/api/auth/me", Description: "Current account"},
	{Method: "PUT", Path: "/api/v1/users/location", Description: "Store caller coordinates for nearest lookup"},
	{Method: "POST", Path: "/api/v1/spots", Description: "Create a parking spot", AdminOnly: true},
	{Method: "GET", Path: "/api/v1/spots", Description: "List spots, paginated"},
	{Method: "GET", Path: "/api/v1/spots/nearest", Description: "K spots nearest to the caller's stored location"},
	{Method: "GET", Path: "/api/v1/spots/:id", Description: "Spot detail"},
	{Method: "POST", Path: "/api/v1/reservations", Description: "Reserve a spot"},
	{Method: "GET", Path: "/api/v1/reservations/mine", Description: "Caller's reservations"},
	{Method: "POST", Path: "/api/v1/parkings", Description: "Record vehicle entry for a reservation", AdminOnly: true},
	{Method: "GET", Path: "/api/v1/parkings", Description: "List parking sessions", AdminOnly: true},
	{Method: "GET", Path: "/api/v1/parkings/count", Description: "Total session count", AdminOnly: true},
	{Method: "GET", Path: "/api/v1/parkings/mine", Description: "Caller's parking sessions"},
	{Method: "GET", Path: "/api/v1/parkings/:id", Description: "Session detail with reservation and payment", AdminOnly: true},
	{Method: "PUT", Path: "/api/v1/parkings/:id/exit", Description: "Record exit, compute duration and charge", AdminOnly: true},
	{Method: "PUT", Path: "/api/v1/parkings/:id/verify", Description: "Verify payment and release the vehicle", AdminOnly: true},
	{Method: "POST", Path: "/api/v1/parkings/:id/payments", Description: "Record a payment attempt outcome", AdminOnly: true},
	{Method: "DELETE", Path: "/api/v1/parkings/:id", Description: "Delete a session record", AdminOnly: true},
	{Method: "GET", Path: "/api/v1/ws", Description: "Websocket feed of gate events", AdminOnly: true},
}

// registerDocsRoutes exposes the endpoint catalogue in development only.
func registerDocsRoutes(app *fiber.App, cfg *config.Config) {
	if !cfg.DocsEnabled() {
		return
	}

	app.Get("/docs", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service":   "parking-api",
			"endpoints": docsEndpoints,
		})
	})
}
