package auth

import (
	"strings"

	"mediaforge/errors"
	"mediaforge/models"

	"github.com/gofiber/fiber/v2"
)

const principalKey = "principal"

// Middleware extracts the bearer token, validates it, and stores the
// Principal in request locals. Missing and malformed headers fail exactly
// like invalid tokens.
func Middleware(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		const op = "auth.Middleware"

		header := c.Get(fiber.HeaderAuthorization)
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			return errors.Unauthorized(op, nil)
		}

		principal, err := svc.Validate(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			return err
		}

		c.Locals(principalKey, principal)
		return c.Next()
	}
}

// PrincipalFromCtx returns the Principal stored by Middleware.
func PrincipalFromCtx(c *fiber.Ctx) (models.Principal, bool) {
	principal, ok := c.Locals(principalKey).(models.Principal)
	return principal, ok
}
