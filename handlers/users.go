package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"mediaforge/activity"
	"mediaforge/errors"
	"mediaforge/models"
	"mediaforge/repository"
)

type UserHandler struct {
	repo     repository.UserRepository
	recorder *activity.Recorder
}

func NewUserHandler(repo repository.UserRepository, recorder *activity.Recorder) *UserHandler {
	return &UserHandler{repo: repo, recorder: recorder}
}

// Profile returns a user's public profile.
func (h *UserHandler) Profile(c *fiber.Ctx) error {
	const op = "UserHandler.Profile"

	username := strings.ToLower(c.Params("username"))
	if username == "" {
		return errors.InvalidInput(op, nil, "Username is required")
	}

	user, err := h.repo.FindByUsername(c.Context(), username)
	if err != nil {
		return err
	}

	h.recorder.Record(usernameFromCtx(c), "viewed profile "+username, c.IP())

	return c.JSON(models.NewUserResponse(user))
}
