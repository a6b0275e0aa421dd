package payment

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/novafs/lms-api/utils/response"
)

// Service applies gateway notifications
type Service interface {
	HandleNotification(ctx context.Context, status string, payload []byte) error
}

// PaymentHandler receives Midtrans webhooks
type PaymentHandler struct {
	service Service
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(service Service) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// HandleMidtrans handles POST /handle-payment-midtrans. The gateway only
// needs a 2xx, so unknown orders still get the success envelope.
func (h *PaymentHandler) HandleMidtrans(c *fiber.Ctx) error {
	// The body buffer is reused by fasthttp after the handler returns
	payload := append([]byte(nil), c.Body()...)

	if err := h.service.HandleNotification(c.UserContext(), c.Query("transaction_status"), payload); err != nil {
		return response.FromError(c, err)
	}

	return response.Success(c, "Handle Payment Success", fiber.Map{})
}
