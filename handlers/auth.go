package handlers

import (
	"github.com/gofiber/fiber/v2"

	"mediaforge/activity"
	"mediaforge/auth"
	"mediaforge/errors"
	"mediaforge/models"
)

type AuthHandler struct {
	service  *auth.Service
	recorder *activity.Recorder
}

func NewAuthHandler(service *auth.Service, recorder *activity.Recorder) *AuthHandler {
	return &AuthHandler{service: service, recorder: recorder}
}

// Register creates a new user account.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req auth.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return errors.InvalidInput("AuthHandler.Register", err, "Invalid request body")
	}

	user, err := h.service.Register(c.Context(), req)
	if err != nil {
		return err
	}

	h.recorder.Record(user.Username, "registered an account", c.IP())

	return c.Status(fiber.StatusCreated).JSON(models.NewUserResponse(user))
}

// Token exchanges form credentials for a bearer token.
func (h *AuthHandler) Token(c *fiber.Ctx) error {
	username := c.FormValue("username")
	password := c.FormValue("password")
	if username == "" || password == "" {
		return errors.Unauthorized("AuthHandler.Token", nil)
	}

	token, user, err := h.service.Issue(c.Context(), username, password)
	if err != nil {
		return err
	}

	h.recorder.Record(user.Username, "logged in", c.IP())

	return c.JSON(fiber.Map{
		"access_token": token,
		"token_type":   "bearer",
	})
}

// Me returns the authenticated principal.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromCtx(c)
	if !ok {
		return errors.Unauthorized("AuthHandler.Me", nil)
	}

	h.recorder.Record(principal.Username, "accessed the root endpoint", c.IP())

	return c.JSON(principal)
}
