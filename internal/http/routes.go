// Package http wires the REST surface. Registration lives apart from
// main so the tests run against the exact production route table.
package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"backend-ticketing/internal/http/handler"
	"backend-ticketing/internal/http/middleware"
	"backend-ticketing/internal/models"
)

func Register(app *fiber.App, h *handler.Handler) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Ticketing API running",
		})
	})

	pm := middleware.RequireRole(h.Users, models.RolePM)
	super := middleware.RequireRole(h.Users, models.RoleSuper)

	// Auth
	app.Post("/api/auth/login", h.Login)

	// Queue (kiosk and display reads are public)
	app.Get("/api/state", h.GetState)
	app.Patch("/api/state", pm, h.UpdateState)
	app.Post("/api/next", pm, h.CallNext)
	app.Get("/api/tickets", h.ListTickets)
	app.Post("/api/ticket", h.IssueTicket)
	app.Patch("/api/ticket/:number", pm, h.UpdateTicket)
	app.Delete("/api/ticket/:number", pm, h.DeleteTicket)
	app.Get("/api/export", h.ExportTickets)

	// RFQ — the fixed paths must come before the :area wildcard
	app.Get("/api/rfq/export", h.ExportRFQs)
	app.Post("/api/rfq/import", super, h.ImportRFQs)
	app.Get("/api/rfq/:area", h.ListRFQs)
	app.Post("/api/rfq/:area", pm, h.CreateRFQ)
	app.Get("/api/rfq/:area/:rfqNo", h.GetRFQ)
	app.Patch("/api/rfq/:area/:rfqNo", pm, h.PatchRFQ)
	app.Get("/api/rfq/:area/:rfqNo/history", h.GetRFQHistory)

	// ===== SUPER ROUTES =====
	app.Get("/api/users", super, h.GetAllUsers)
	app.Post("/api/users", super, h.CreateUser)
	app.Get("/api/users/:username", super, h.GetUser)
	app.Patch("/api/users/:username", super, h.UpdateUser)
	app.Delete("/api/users/:username", super, h.DeleteUser)

	app.Get("/api/logs", super, h.GetLogs)
	app.Post("/api/logs", h.AddLog)
	app.Get("/api/logs/export", super, h.ExportLogs)

	app.Post("/api/reset", super, h.Reset)

	// Display feed
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/display", websocket.New(h.Display.Serve))
}
