package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/geotsn/aggeliesergasias/middleware"
)

// RegisterRoutes mounts the API v1 routes on app.
func (h *ApplicationHandler) RegisterRoutes(app fiber.Router, adminToken string) {
	apiV1 := app.Group("/api/v1")

	apiV1.Get("/categories", h.ListCategories)

	apiV1.Post("/listings", h.SubmitListing)
	apiV1.Get("/listings", h.ListListings)
	apiV1.Get("/listings/:id", h.GetListing)
	apiV1.Get("/listings/:id/apply", h.ApplyToListing)

	apiV1.Post("/checkout", h.CreateCheckout)

	apiV1.Post("/webhooks/stripe", h.StripeWebhook)

	admin := apiV1.Group("/admin", middleware.AdminAuth(adminToken))
	admin.Post("/reconcile", h.RunReconciliation)
}
