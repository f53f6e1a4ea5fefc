package handler

import (
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"backend-ticketing/internal/helper"
	"backend-ticketing/internal/models"
	"backend-ticketing/internal/queue"
)

// IssueTicket - public kiosk endpoint. Allocates last+1 and persists the
// record as pending.
func (h *Handler) IssueTicket(c *fiber.Ctx) error {
	var req models.CreateTicketRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}
	}

	number, err := h.Queue.Issue(c.Context(), req)
	if err != nil {
		log.Printf("[ticket] issue failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to issue ticket",
		})
	}

	h.Display.Broadcast()
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"ticketNumber": number,
	})
}

// ListTickets - newest first, with derived fields and the overall
// waiting count.
func (h *Handler) ListTickets(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit < 1 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	tickets, waiting, err := h.Queue.Tickets(c.Context(), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list tickets",
		})
	}

	return c.JSON(fiber.Map{
		"tickets":      tickets,
		"waitingCount": waiting,
	})
}

// UpdateTicket - partial patch of status/note/assignee.
func (h *Handler) UpdateTicket(c *fiber.Ctx) error {
	number, err := strconv.Atoi(c.Params("number"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid ticket number",
		})
	}

	var req models.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	ticket, err := h.Queue.Update(c.Context(), number, req)
	if err != nil {
		switch {
		case errors.Is(err, queue.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Ticket not found",
			})
		case errors.Is(err, queue.ErrInvalidStatus):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Status must be one of pending, processing, replied, completed, cancelled",
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to update ticket",
			})
		}
	}

	h.Audit.Try(c.Context(), models.LogEntry{
		Ts:       helper.NowISO(),
		Username: localString(c, "username"),
		Role:     localString(c, "role"),
		Action:   "ticket:update",
		Detail:   fmt.Sprintf("ticket %d status=%s", number, ticket.Status),
	})
	h.Display.Broadcast()

	return c.JSON(ticket)
}

// DeleteTicket removes the record without renumbering or touching the
// pointers.
func (h *Handler) DeleteTicket(c *fiber.Ctx) error {
	number, err := strconv.Atoi(c.Params("number"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid ticket number",
		})
	}

	if err := h.Queue.Delete(c.Context(), number); err != nil {
		if errors.Is(err, queue.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Ticket not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete ticket",
		})
	}

	h.Audit.Try(c.Context(), models.LogEntry{
		Ts:       helper.NowISO(),
		Username: localString(c, "username"),
		Role:     localString(c, "role"),
		Action:   "ticket:delete",
		Detail:   fmt.Sprintf("ticket %d", number),
	})
	h.Display.Broadcast()

	return c.JSON(fiber.Map{"ok": true})
}
