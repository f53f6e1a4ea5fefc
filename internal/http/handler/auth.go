package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"backend-ticketing/internal/helper"
	"backend-ticketing/internal/models"
	"backend-ticketing/internal/users"
)

// Login verifies credentials and returns the role. Nothing is issued or
// stored server-side; clients keep re-presenting the same credentials.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Username == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Username and password are required",
		})
	}

	user, err := h.Users.Verify(c.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid username or password",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Login failed",
		})
	}

	h.Audit.Try(c.Context(), models.LogEntry{
		Ts:       helper.NowISO(),
		Username: user.Username,
		Role:     user.Role,
		Action:   "login",
	})

	return c.JSON(fiber.Map{
		"ok":       true,
		"username": user.Username,
		"role":     user.Role,
	})
}
