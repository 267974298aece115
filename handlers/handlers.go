package handlers

import (
	"github.com/gofiber/fiber/v2"

	"mediaforge/auth"
	"mediaforge/models"
)

func principalFromCtx(c *fiber.Ctx) (models.Principal, bool) {
	return auth.PrincipalFromCtx(c)
}

func usernameFromCtx(c *fiber.Ctx) string {
	if principal, ok := auth.PrincipalFromCtx(c); ok {
		return principal.Username
	}
	return ""
}

// HealthCheck reports liveness.
func HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
	})
}
