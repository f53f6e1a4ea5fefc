package handler

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"backend-ticketing/internal/helper"
	"backend-ticketing/internal/models"
	"backend-ticketing/internal/queue"
)

// GetState - public read of the three queue pointers.
func (h *Handler) GetState(c *fiber.Ctx) error {
	state, err := h.Queue.State(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read queue state",
		})
	}
	return c.JSON(state)
}

// UpdateState - admin force-set of any pointer, accepted verbatim. No
// skip logic and no bounds check by design.
func (h *Handler) UpdateState(c *fiber.Ctx) error {
	var req models.UpdateStateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.CurrentNumber == nil && req.NextNumber == nil && req.LastTicket == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Nothing to update",
		})
	}

	state, err := h.Queue.SetState(c.Context(), req)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update queue state",
		})
	}

	h.Audit.Try(c.Context(), models.LogEntry{
		Ts:       helper.NowISO(),
		Username: localString(c, "username"),
		Role:     localString(c, "role"),
		Action:   "state:update",
		Detail:   fmt.Sprintf("current=%d next=%d last=%d", state.CurrentNumber, state.NextNumber, state.LastTicket),
	})
	h.Display.Broadcast()

	return c.JSON(state)
}

// CallNext advances the queue by one (or to the override). Rejected when
// the target would pass the last issued ticket.
func (h *Handler) CallNext(c *fiber.Ctx) error {
	state, err := h.Queue.CallNext(c.Context())
	if err != nil {
		if errors.Is(err, queue.ErrPastLast) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "No ticket to call",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to call next",
		})
	}

	h.Audit.Try(c.Context(), models.LogEntry{
		Ts:       helper.NowISO(),
		Username: localString(c, "username"),
		Role:     localString(c, "role"),
		Action:   "next",
		Detail:   fmt.Sprintf("current=%d", state.CurrentNumber),
	})
	h.Display.Broadcast()

	return c.JSON(state)
}

func localString(c *fiber.Ctx, key string) string {
	if v, ok := c.Locals(key).(string); ok {
		return v
	}
	return ""
}
