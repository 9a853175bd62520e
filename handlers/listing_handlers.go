package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/geotsn/aggeliesergasias/internal/apply"
	"github.com/geotsn/aggeliesergasias/internal/feed"
	"github.com/geotsn/aggeliesergasias/internal/intake"
	"github.com/geotsn/aggeliesergasias/models"
	"github.com/geotsn/aggeliesergasias/utils"
)

// SubmitListing godoc
// @Summary Post a job listing
// @Description Free listings are published immediately. Premium listings are stored as pending and the response carries the payment page to redirect to.
// @Tags listings
// @Accept  json
// @Produce  json
// @Param   listing body intake.Payload true "Listing to post"
// @Success 201 {object} ListingSuccessResponse "Free listing published"
// @Success 200 {object} CheckoutSuccessResponse "Premium listing pending payment"
// @Failure 400 {object} ErrorResponse "Malformed JSON"
// @Failure 422 {object} ValidationErrorResponse "Missing or invalid fields"
// @Failure 502 {object} ErrorResponse "Store or payment provider failure"
// @Router /listings [post]
func (h *ApplicationHandler) SubmitListing(c *fiber.Ctx) error {
	var payload intake.Payload
	if err := c.BodyParser(&payload); err != nil {
		h.Logger.WithError(err).Warn("Cannot parse listing JSON")
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Cannot parse listing JSON: "+err.Error())
	}

	if strings.EqualFold(strings.TrimSpace(payload.Type), string(models.ListingPremium)) {
		return h.startCheckout(c, payload)
	}

	created, err := h.Listings.Submit(c.UserContext(), payload, h.origin(c))
	if err != nil {
		return h.respondWithServiceError(c, err)
	}
	return utils.RespondWithJSON(c, fiber.StatusCreated, h.feedItem(created))
}

// ListListings godoc
// @Summary Browse the job feed
// @Description Active, unexpired listings. Premium listings come first, then the most recently posted.
// @Tags listings
// @Produce  json
// @Param   category query string false "Category, or all"
// @Param   q        query string false "Case-insensitive match on title, company or location"
// @Param   lang     query string false "Translation locale (en, zh, ru, es, de)"
// @Success 200 {object} FeedSuccessResponse
// @Failure 500 {object} ErrorResponse
// @Router /listings [get]
func (h *ApplicationHandler) ListListings(c *fiber.Ctx) error {
	q := feed.Query{
		Category: c.Query("category"),
		Term:     c.Query("q"),
		Locale:   models.Locale(strings.ToLower(c.Query("lang"))),
	}

	listings, err := h.Feed.Query(c.UserContext(), q)
	if err != nil {
		h.Logger.WithError(err).WithFields(logrus.Fields{
			"category": q.Category,
			"term":     q.Term,
		}).Error("Feed query failed")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not load listings")
	}

	items := make([]FeedItem, 0, len(listings))
	for _, l := range listings {
		items = append(items, h.feedItem(l))
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, items)
}

// GetListing godoc
// @Summary Get a listing
// @Description Returns the listing while it is visible on the board.
// @Tags listings
// @Produce  json
// @Param   id   path  string true  "Listing ID"
// @Param   lang query string false "Translation locale"
// @Success 200 {object} ListingSuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /listings/{id} [get]
func (h *ApplicationHandler) GetListing(c *fiber.Ctx) error {
	l, err := h.Feed.Get(c.UserContext(), c.Params("id"), models.Locale(strings.ToLower(c.Query("lang"))))
	if err != nil {
		return h.respondWithServiceError(c, err)
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, h.feedItem(l))
}

// ApplyToListing godoc
// @Summary Apply by email
// @Description Redirects to a pre-filled compose window for the listing's contact address.
// @Tags listings
// @Param   id     path  string true  "Listing ID"
// @Param   client query string false "gmail, outlook, yahoo or default"
// @Success 302 "Redirect to the compose URL"
// @Failure 404 {object} ErrorResponse
// @Router /listings/{id}/apply [get]
func (h *ApplicationHandler) ApplyToListing(c *fiber.Ctx) error {
	l, err := h.Feed.Get(c.UserContext(), c.Params("id"), "")
	if err != nil {
		return h.respondWithServiceError(c, err)
	}

	link, ok := apply.ForListing(apply.ParseClient(c.Query("client")), l)
	if !ok {
		return utils.RespondWithError(c, fiber.StatusNotFound, "Listing has no contact email")
	}
	return c.Redirect(link, fiber.StatusFound)
}

// ListCategories godoc
// @Summary List categories
// @Tags listings
// @Produce  json
// @Success 200 {object} CategoriesSuccessResponse
// @Router /categories [get]
func (h *ApplicationHandler) ListCategories(c *fiber.Ctx) error {
	return utils.RespondWithJSON(c, fiber.StatusOK, models.Categories)
}

func (h *ApplicationHandler) feedItem(l models.Listing) FeedItem {
	return FeedItem{Listing: l, DaysLeft: l.DaysLeft(h.now())}
}
