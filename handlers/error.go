package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"mediaforge/activity"
	"mediaforge/errors"
)

// NewErrorHandler returns the central fiber error handler. AppErrors map to
// their status, category, and safe message; anything else becomes a 500.
// Failures are recorded as activity events too.
func NewErrorHandler(recorder *activity.Recorder, logger *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		kind := errors.KindInternal
		message := "Internal Server Error"

		switch e := err.(type) {
		case *errors.AppError:
			code = e.Code
			kind = e.Kind
			message = e.Message
		case *fiber.Error:
			code = e.Code
			message = e.Message
		}

		logger.WithFields(logrus.Fields{
			"request_id": requestID(c),
			"path":       c.Path(),
			"method":     c.Method(),
			"status":     code,
			"category":   kind,
			"error":      err,
		}).Error("Request error")

		if username := usernameFromCtx(c); username != "" {
			recorder.Record(username, "encountered an error: "+message, c.IP())
		}

		return c.Status(code).JSON(fiber.Map{
			"success":    false,
			"category":   kind,
			"error":      message,
			"request_id": requestID(c),
		})
	}
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok && id != "" {
		return id
	}
	return c.Get("X-Request-ID")
}
