package handler

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"backend-ticketing/internal/helper"
	"backend-ticketing/internal/models"
	"backend-ticketing/internal/users"
)

// Reset wipes every ticket, both RFQ areas and the queue pointers.
// Restricted to the superadmin account itself, not just the super role.
func (h *Handler) Reset(c *fiber.Ctx) error {
	if localString(c, "username") != users.DefaultSuperUsername {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only superadmin may reset",
		})
	}

	if err := h.Queue.Reset(c.Context()); err != nil {
		log.Printf("[reset] queue reset failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Reset failed",
		})
	}
	if err := h.RFQ.Reset(c.Context()); err != nil {
		log.Printf("[reset] rfq reset failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Reset failed",
		})
	}

	h.Audit.Try(c.Context(), models.LogEntry{
		Ts:       helper.NowISO(),
		Username: localString(c, "username"),
		Role:     localString(c, "role"),
		Action:   "reset",
		Detail:   "system reset",
	})
	h.Display.Broadcast()

	return c.JSON(fiber.Map{"ok": true})
}
