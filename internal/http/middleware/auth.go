package middleware

import (
	"encoding/base64"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"backend-ticketing/internal/models"
	"backend-ticketing/internal/users"
)

// AuthenticateBasic resolves the Basic credential header against the user
// store. No sessions or tokens exist server-side; clients re-present
// credentials on every request.
func AuthenticateBasic(c *fiber.Ctx, us *users.Store) (models.UserInfo, error) {
	header := c.Get("Authorization")
	if !strings.HasPrefix(header, "Basic ") {
		return models.UserInfo{}, users.ErrInvalidCredentials
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(header[len("Basic "):]))
	if err != nil {
		return models.UserInfo{}, users.ErrInvalidCredentials
	}

	username, password, found := strings.Cut(string(decoded), ":")
	if !found || username == "" {
		return models.UserInfo{}, users.ErrInvalidCredentials
	}

	return us.Verify(c.Context(), username, password)
}

// RequireRole gates a route on the given role; super passes every gate.
// The resolved username and role are stored in locals for the handler.
func RequireRole(us *users.Store, role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := AuthenticateBasic(c, us)
		if err != nil {
			if errors.Is(err, users.ErrInvalidCredentials) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "unauthorized",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to verify credentials",
			})
		}

		if user.Role != role && user.Role != models.RoleSuper {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "insufficient role",
			})
		}

		c.Locals("username", user.Username)
		c.Locals("role", user.Role)
		return c.Next()
	}
}
