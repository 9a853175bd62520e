package handlers

import (
	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"

	"github.com/geotsn/aggeliesergasias/internal/checkout"
	"github.com/geotsn/aggeliesergasias/internal/listing"
	"github.com/geotsn/aggeliesergasias/internal/payment"
	"github.com/geotsn/aggeliesergasias/internal/reconcile"
	"github.com/geotsn/aggeliesergasias/internal/store"
	"github.com/geotsn/aggeliesergasias/models"
	"github.com/geotsn/aggeliesergasias/utils"
)

// ErrorResponse defines a common structure for error responses.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ValidationErrorResponse is returned with 422 when a posting is rejected.
type ValidationErrorResponse struct {
	Status        string   `json:"status"`
	Message       string   `json:"message"`
	MissingFields []string `json:"missingFields"`
	InvalidFields []string `json:"invalidFields"`
}

// FeedItem is a listing as shown on the board.
type FeedItem struct {
	models.Listing
	DaysLeft int `json:"daysLeft"`
}

// ListingSuccessResponse wraps a single listing.
type ListingSuccessResponse struct {
	Status string   `json:"status"`
	Data   FeedItem `json:"data"`
}

// FeedSuccessResponse wraps the feed.
type FeedSuccessResponse struct {
	Status string     `json:"status"`
	Data   []FeedItem `json:"data"`
}

// CheckoutSuccessResponse wraps the redirect target of a premium checkout.
type CheckoutSuccessResponse struct {
	Status string          `json:"status"`
	Data   checkout.Result `json:"data"`
}

// CategoriesSuccessResponse lists the assignable categories.
type CategoriesSuccessResponse struct {
	Status string            `json:"status"`
	Data   []models.Category `json:"data"`
}

// WebhookResponse acknowledges a verified delivery.
type WebhookResponse struct {
	Received  bool   `json:"received"`
	Activated bool   `json:"activated"`
	EventType string `json:"eventType,omitempty"`
	ListingID string `json:"listingId,omitempty"`
}

// ReconcileResponse reports one sweep.
type ReconcileResponse struct {
	Success           bool              `json:"success"`
	TotalSessions     int               `json:"totalSessions"`
	CompletedSessions int               `json:"completedSessions"`
	UniquePaidJobs    int               `json:"uniquePaidJobs"`
	ProcessedJobs     int               `json:"processedJobs"`
	Summary           reconcile.Summary `json:"summary"`
}

// respondWithServiceError maps domain errors to HTTP statuses.
func (h *ApplicationHandler) respondWithServiceError(c *fiber.Ctx, err error) error {
	if handled, rerr := utils.RespondWithValidationError(c, err); handled {
		return rerr
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		return utils.RespondWithError(c, fiber.StatusNotFound, "Listing not found")
	case errors.Is(err, listing.ErrPremiumNeedsCheckout):
		return utils.RespondWithError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, checkout.ErrStoreInsert), errors.Is(err, listing.ErrStore):
		return utils.RespondWithError(c, fiber.StatusBadGateway, "Could not store listing: "+err.Error())
	case errors.Is(err, payment.ErrProvider):
		return utils.RespondWithError(c, fiber.StatusBadGateway, "Payment provider error: "+err.Error())
	default:
		h.Logger.WithError(err).Error("Unhandled service error")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Internal server error")
	}
}

// origin picks the site the request came from, falling back to PublicURL.
func (h *ApplicationHandler) origin(c *fiber.Ctx) string {
	if o := c.Get(fiber.HeaderOrigin); o != "" {
		return o
	}
	return h.PublicURL
}
