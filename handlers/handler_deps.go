package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/geotsn/aggeliesergasias/internal/checkout"
	"github.com/geotsn/aggeliesergasias/internal/feed"
	"github.com/geotsn/aggeliesergasias/internal/intake"
	"github.com/geotsn/aggeliesergasias/internal/reconcile"
	"github.com/geotsn/aggeliesergasias/models"
)

// ListingSubmitter publishes free listings.
type ListingSubmitter interface {
	Submit(ctx context.Context, payload intake.Payload, origin string) (models.Listing, error)
}

// CheckoutStarter creates pending premium listings and their payment sessions.
type CheckoutStarter interface {
	StartPremiumCheckout(ctx context.Context, payload intake.Payload, origin string) (checkout.Result, error)
}

// FeedReader serves the public feed.
type FeedReader interface {
	Query(ctx context.Context, q feed.Query) ([]models.Listing, error)
	Get(ctx context.Context, id string, locale models.Locale) (models.Listing, error)
}

// Reconciler activates paid listings.
type Reconciler interface {
	Sweep(ctx context.Context, window time.Duration) (reconcile.Summary, error)
	HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) (reconcile.WebhookResult, error)
}

// ApplicationHandler holds shared dependencies for handlers.
type ApplicationHandler struct {
	Listings   ListingSubmitter
	Checkout   CheckoutStarter
	Feed       FeedReader
	Reconciler Reconciler
	Logger     logrus.FieldLogger
	// PublicURL is the site origin used when a request carries no Origin header.
	PublicURL string

	now func() time.Time
}

// NewApplicationHandler creates a new ApplicationHandler with the given dependencies.
func NewApplicationHandler(listings ListingSubmitter, co CheckoutStarter, fd FeedReader, rec Reconciler, logger logrus.FieldLogger, publicURL string) *ApplicationHandler {
	return &ApplicationHandler{
		Listings:   listings,
		Checkout:   co,
		Feed:       fd,
		Reconciler: rec,
		Logger:     logger,
		PublicURL:  strings.TrimRight(publicURL, "/"),
		now:        time.Now,
	}
}
