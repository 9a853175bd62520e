package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/geotsn/aggeliesergasias/utils"
)

// RunReconciliation godoc
// @Summary Run a reconciliation sweep
// @Description Lists recent checkout sessions and activates every pending listing that was paid for.
// @Tags admin
// @Produce  json
// @Security BearerAuth
// @Param   window query string false "Look-back window, e.g. 24h"
// @Success 200 {object} ReconcileResponse
// @Failure 400 {object} ErrorResponse "Invalid window"
// @Failure 401 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse "Payment provider failure"
// @Router /admin/reconcile [post]
func (h *ApplicationHandler) RunReconciliation(c *fiber.Ctx) error {
	var window time.Duration
	if raw := c.Query("window"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid window: "+raw)
		}
		window = d
	}

	summary, err := h.Reconciler.Sweep(c.UserContext(), window)
	if err != nil {
		h.Logger.WithError(err).Error("Manual reconciliation failed")
		return utils.RespondWithError(c, fiber.StatusBadGateway, "Reconciliation failed: "+err.Error())
	}

	return c.Status(fiber.StatusOK).JSON(ReconcileResponse{
		Success:           true,
		TotalSessions:     summary.Scanned,
		CompletedSessions: summary.Paid,
		UniquePaidJobs:    summary.Unique,
		ProcessedJobs:     summary.Activated,
		Summary:           summary,
	})
}
