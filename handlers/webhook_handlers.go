package handlers

import (
	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"

	"github.com/geotsn/aggeliesergasias/internal/payment"
	"github.com/geotsn/aggeliesergasias/utils"
)

// StripeSignatureHeader carries the webhook signature.
const StripeSignatureHeader = "Stripe-Signature"

// StripeWebhook godoc
// @Summary Payment provider webhook
// @Description Verifies the delivery signature and activates the listing a paid checkout session points to. Any non-2xx answer makes the provider redeliver.
// @Tags webhooks
// @Accept  json
// @Produce  json
// @Param   Stripe-Signature header string true "Webhook signature"
// @Success 200 {object} WebhookResponse
// @Failure 400 {object} ErrorResponse "Signature verification failed"
// @Failure 500 {object} ErrorResponse "Store failure, delivery will be retried"
// @Router /webhooks/stripe [post]
func (h *ApplicationHandler) StripeWebhook(c *fiber.Ctx) error {
	// the signature covers the exact bytes received, so the body is not parsed here
	payload := append([]byte(nil), c.Body()...)

	res, err := h.Reconciler.HandleWebhook(c.UserContext(), payload, c.Get(StripeSignatureHeader))
	if err != nil {
		if errors.Is(err, payment.ErrSignature) {
			return utils.RespondWithError(c, fiber.StatusBadRequest, "Webhook signature verification failed")
		}
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not process webhook")
	}

	return c.Status(fiber.StatusOK).JSON(WebhookResponse{
		Received:  true,
		Activated: res.Activated,
		EventType: res.EventType,
		ListingID: res.ListingID,
	})
}
