package handler

import (
	"encoding/csv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"backend-ticketing/internal/helper"
	"backend-ticketing/internal/http/middleware"
	"backend-ticketing/internal/models"
)

// GetLogs - recent audit entries, newest first.
func (h *Handler) GetLogs(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 500)
	if limit < 1 {
		limit = 1
	}
	if limit > 1000 {
		limit = 1000
	}

	logs, err := h.Audit.Recent(c.Context(), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read logs",
		})
	}
	count, err := h.Audit.Count(c.Context())
	if err != nil {
		count = 0
	}

	return c.JSON(fiber.Map{
		"logs":  logs,
		"count": count,
	})
}

// AddLog - event sink for client-side actions. Identity comes from the
// Basic header when present, else from the body.
func (h *Handler) AddLog(c *fiber.Ctx) error {
	var body struct {
		Username string `json:"username"`
		Role     string `json:"role"`
		Action   string `json:"action"`
		Detail   string `json:"detail"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}
	}

	username := body.Username
	role := body.Role
	if user, err := middleware.AuthenticateBasic(c, h.Users); err == nil {
		username = user.Username
		role = user.Role
	}
	if role == "" {
		role = "unknown"
	}

	if username == "" || body.Action == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing username or action",
		})
	}

	if err := h.Audit.Add(c.Context(), models.LogEntry{
		Ts:       helper.NowISO(),
		Username: username,
		Role:     role,
		Action:   body.Action,
		Detail:   body.Detail,
	}); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to write log",
		})
	}

	return c.JSON(fiber.Map{"ok": true})
}

// ExportLogs - CSV download. Commas inside values are replaced by spaces
// so downstream tools that split naively stay happy.
func (h *Handler) ExportLogs(c *fiber.Ctx) error {
	logs, err := h.Audit.Recent(c.Context(), 2000)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read logs",
		})
	}

	var sb strings.Builder
	w := csv.NewWriter(&sb)
	_ = w.Write([]string{"ts", "username", "role", "action", "detail"})
	for _, entry := range logs {
		_ = w.Write([]string{
			stripCommas(entry.Ts),
			stripCommas(entry.Username),
			stripCommas(entry.Role),
			stripCommas(entry.Action),
			stripCommas(entry.Detail),
		})
	}
	w.Flush()

	c.Set("Content-Type", "text/csv; charset=utf-8")
	c.Set("Content-Disposition", `attachment; filename="logs.csv"`)
	return c.SendString(sb.String())
}

func stripCommas(s string) string {
	return strings.ReplaceAll(s, ",", " ")
}
