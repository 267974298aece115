package handlers

import (
	"github.com/gofiber/fiber/v2"

	"mediaforge/activity"
	"mediaforge/errors"
	"mediaforge/services/payment"
)

type PaymentHandler struct {
	service  *payment.Service
	recorder *activity.Recorder
}

func NewPaymentHandler(service *payment.Service, recorder *activity.Recorder) *PaymentHandler {
	return &PaymentHandler{service: service, recorder: recorder}
}

type paymentIntentRequest struct {
	Amount    int64  `json:"amount"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type paymentActionRequest struct {
	PaymentIntentID string `json:"paymentIntentId"`
}

// CreateIntent creates a manual-capture payment intent for the caller.
func (h *PaymentHandler) CreateIntent(c *fiber.Ctx) error {
	const op = "PaymentHandler.CreateIntent"

	principal, ok := principalFromCtx(c)
	if !ok {
		return errors.Unauthorized(op, nil)
	}

	var req paymentIntentRequest
	if err := c.BodyParser(&req); err != nil {
		return errors.InvalidInput(op, err, "Invalid request body")
	}

	intent, err := h.service.CreateIntent(c.Context(), principal, req.Amount, req.FirstName, req.LastName)
	if err != nil {
		return err
	}

	h.recorder.Record(principal.Username, "created a payment intent", c.IP())

	return c.JSON(intent)
}

// Capture settles an authorized payment intent.
func (h *PaymentHandler) Capture(c *fiber.Ctx) error {
	const op = "PaymentHandler.Capture"

	var req paymentActionRequest
	if err := c.BodyParser(&req); err != nil {
		return errors.InvalidInput(op, err, "Invalid request body")
	}

	status, err := h.service.Capture(c.Context(), req.PaymentIntentID)
	if err != nil {
		return err
	}

	h.recorder.Record(usernameFromCtx(c), "captured a payment", c.IP())

	return c.JSON(fiber.Map{"status": status})
}

// Cancel voids an uncaptured payment intent.
func (h *PaymentHandler) Cancel(c *fiber.Ctx) error {
	const op = "PaymentHandler.Cancel"

	var req paymentActionRequest
	if err := c.BodyParser(&req); err != nil {
		return errors.InvalidInput(op, err, "Invalid request body")
	}

	status, err := h.service.Cancel(c.Context(), req.PaymentIntentID)
	if err != nil {
		return err
	}

	h.recorder.Record(usernameFromCtx(c), "canceled a payment", c.IP())

	return c.JSON(fiber.Map{"status": status})
}
