package handler

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"backend-ticketing/internal/helper"
	"backend-ticketing/internal/models"
	"backend-ticketing/internal/rfq"
)

// ListRFQs - identifiers of one area, optionally filtered by
// workflowStatus.
func (h *Handler) ListRFQs(c *fiber.Ctx) error {
	area := c.Params("area")
	ids, err := h.RFQ.List(c.Context(), area, c.Query("status"))
	if err != nil {
		if errors.Is(err, rfq.ErrInvalidArea) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Area must be system or mb",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list RFQs",
		})
	}
	return c.JSON(fiber.Map{"ids": ids})
}

// CreateRFQ - manual creation; allocation happens only when no explicit
// identifier is supplied.
func (h *Handler) CreateRFQ(c *fiber.Ctx) error {
	area := c.Params("area")

	var req models.CreateRFQRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}
	}

	rfqNo, err := h.RFQ.Create(c.Context(), area, req.RfqNo)
	if err != nil {
		switch {
		case errors.Is(err, rfq.ErrInvalidArea):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Area must be system or mb",
			})
		case errors.Is(err, rfq.ErrExists):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "RFQ already exists",
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to create RFQ",
			})
		}
	}

	h.Audit.Try(c.Context(), models.LogEntry{
		Ts:       helper.NowISO(),
		Username: localString(c, "username"),
		Role:     localString(c, "role"),
		Action:   "rfq:create",
		Detail:   fmt.Sprintf("%s %s", area, rfqNo),
	})

	return c.JSON(fiber.Map{"ok": true, "rfqNo": rfqNo})
}

// GetRFQ returns the full record hash.
func (h *Handler) GetRFQ(c *fiber.Ctx) error {
	area := c.Params("area")
	rfqNo := c.Params("rfqNo")

	rec, err := h.RFQ.Get(c.Context(), area, rfqNo)
	if err != nil {
		switch {
		case errors.Is(err, rfq.ErrInvalidArea):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Area must be system or mb",
			})
		case errors.Is(err, rfq.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "RFQ not found",
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to read RFQ",
			})
		}
	}
	return c.JSON(rec)
}

// PatchRFQ merges arbitrary string fields. Workflow status is free-form
// on purpose; the three canonical values are only UI suggestions.
func (h *Handler) PatchRFQ(c *fiber.Ctx) error {
	area := c.Params("area")
	rfqNo := c.Params("rfqNo")

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(c.Body(), &raw); err != nil || raw == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	updates := make(map[string]string, len(raw))
	for k, v := range raw {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			updates[k] = s
			continue
		}
		// Non-string values are stored in their JSON form, null is
		// dropped
		if string(v) == "null" {
			continue
		}
		updates[k] = string(v)
	}

	if err := h.RFQ.Patch(c.Context(), area, rfqNo, updates); err != nil {
		switch {
		case errors.Is(err, rfq.ErrInvalidArea):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Area must be system or mb",
			})
		case errors.Is(err, rfq.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "RFQ not found",
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to update RFQ",
			})
		}
	}

	h.Audit.Try(c.Context(), models.LogEntry{
		Ts:       helper.NowISO(),
		Username: localString(c, "username"),
		Role:     localString(c, "role"),
		Action:   "rfq:update",
		Detail:   fmt.Sprintf("%s %s", area, rfqNo),
	})

	return c.JSON(fiber.Map{"ok": true})
}

// GetRFQHistory - the record's patch log, newest first.
func (h *Handler) GetRFQHistory(c *fiber.Ctx) error {
	area := c.Params("area")
	rfqNo := c.Params("rfqNo")

	entries, err := h.RFQ.History(c.Context(), area, rfqNo)
	if err != nil {
		if errors.Is(err, rfq.ErrInvalidArea) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Area must be system or mb",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read history",
		})
	}
	return c.JSON(fiber.Map{"history": entries})
}
