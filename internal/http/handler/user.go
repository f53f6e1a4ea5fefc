package handler

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"backend-ticketing/internal/helper"
	"backend-ticketing/internal/models"
	"backend-ticketing/internal/users"
)

// GetAllUsers - usernames and roles only.
func (h *Handler) GetAllUsers(c *fiber.Ctx) error {
	list, err := h.Users.List(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list users",
		})
	}
	return c.JSON(fiber.Map{"users": list})
}

// CreateUser - upsert by username.
func (h *Handler) CreateUser(c *fiber.Ctx) error {
	var req models.UpsertUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Username == "" || req.Password == "" || !models.IsValidRole(req.Role) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Username, password, and role (pm/super/sales) are required",
		})
	}

	saved, err := h.Users.CreateOrUpdate(c.Context(), models.User{
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save user",
		})
	}

	h.Audit.Try(c.Context(), models.LogEntry{
		Ts:       helper.NowISO(),
		Username: localString(c, "username"),
		Role:     localString(c, "role"),
		Action:   "user:create",
		Detail:   fmt.Sprintf("create %s (%s)", req.Username, req.Role),
	})

	return c.JSON(fiber.Map{"ok": true, "user": saved})
}

// GetUser returns the record including the password. Debug-only parity
// with the system this replaces.
func (h *Handler) GetUser(c *fiber.Ctx) error {
	username := c.Params("username")

	user, err := h.Users.Get(c.Context(), username)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "User not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read user",
		})
	}

	return c.JSON(fiber.Map{
		"username": user.Username,
		"role":     user.Role,
		"password": user.Password,
	})
}

// UpdateUser patches password and/or role. The superadmin password is
// locked; an unknown role keeps the existing one.
func (h *Handler) UpdateUser(c *fiber.Ctx) error {
	username := c.Params("username")

	existing, err := h.Users.Get(c.Context(), username)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "User not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read user",
		})
	}

	var req models.PatchUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if username == users.DefaultSuperUsername && req.Password != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "The superadmin password cannot be changed",
		})
	}

	role := existing.Role
	if req.Role != nil && models.IsValidRole(*req.Role) {
		role = *req.Role
	}
	password := existing.Password
	if req.Password != nil && *req.Password != "" {
		password = *req.Password
	}

	saved, err := h.Users.CreateOrUpdate(c.Context(), models.User{
		Username: username,
		Password: password,
		Role:     role,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save user",
		})
	}

	h.Audit.Try(c.Context(), models.LogEntry{
		Ts:       helper.NowISO(),
		Username: localString(c, "username"),
		Role:     localString(c, "role"),
		Action:   "user:update",
		Detail:   fmt.Sprintf("update %s (%s)", username, role),
	})

	return c.JSON(fiber.Map{"ok": true, "user": saved})
}

// DeleteUser removes the record and its list entry.
func (h *Handler) DeleteUser(c *fiber.Ctx) error {
	username := c.Params("username")

	if err := h.Users.Delete(c.Context(), username); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete user",
		})
	}

	h.Audit.Try(c.Context(), models.LogEntry{
		Ts:       helper.NowISO(),
		Username: localString(c, "username"),
		Role:     localString(c, "role"),
		Action:   "user:delete",
		Detail:   fmt.Sprintf("delete %s", username),
	})

	return c.JSON(fiber.Map{"ok": true})
}
