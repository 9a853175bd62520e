package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/geotsn/aggeliesergasias/internal/intake"
	"github.com/geotsn/aggeliesergasias/utils"
)

// CreateCheckout godoc
// @Summary Start a premium checkout
// @Description Stores the listing as pending and creates a payment session whose client reference points back at it.
// @Tags checkout
// @Accept  json
// @Produce  json
// @Param   listing body intake.Payload true "Premium listing"
// @Success 200 {object} CheckoutSuccessResponse
// @Failure 400 {object} ErrorResponse "Malformed JSON"
// @Failure 422 {object} ValidationErrorResponse "Missing or invalid fields"
// @Failure 502 {object} ErrorResponse "Store or payment provider failure"
// @Router /checkout [post]
func (h *ApplicationHandler) CreateCheckout(c *fiber.Ctx) error {
	var payload intake.Payload
	if err := c.BodyParser(&payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Cannot parse listing JSON: "+err.Error())
	}
	return h.startCheckout(c, payload)
}

func (h *ApplicationHandler) startCheckout(c *fiber.Ctx, payload intake.Payload) error {
	res, err := h.Checkout.StartPremiumCheckout(c.UserContext(), payload, h.origin(c))
	if err != nil {
		return h.respondWithServiceError(c, err)
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, res)
}
