package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	fiberSwagger "github.com/swaggo/fiber-swagger"

	"github.com/geotsn/aggeliesergasias/config"
	_ "github.com/geotsn/aggeliesergasias/docs"
	"github.com/geotsn/aggeliesergasias/handlers"
	"github.com/geotsn/aggeliesergasias/internal/checkout"
	"github.com/geotsn/aggeliesergasias/internal/feed"
	"github.com/geotsn/aggeliesergasias/internal/listing"
	"github.com/geotsn/aggeliesergasias/internal/payment"
	"github.com/geotsn/aggeliesergasias/internal/reconcile"
	"github.com/geotsn/aggeliesergasias/middleware"
	"github.com/geotsn/aggeliesergasias/utils"
)

// @title Aggelies Ergasias API
// @version 1.0
// @description Job board: free and premium listings, checkout and payment reconciliation.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := config.InitLogger(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	if cfg.Stripe.PaymentLink == "" {
		if err := cfg.RequireStripe(); err != nil {
			config.Log.WithError(err).Fatal("Premium checkout needs a Stripe key or a payment link")
		}
	}
	if err := cfg.RequireWebhook(); err != nil {
		config.Log.WithError(err).Warn("Webhook deliveries will be rejected; rely on the reconciliation sweep")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listingStore, closeStore, err := config.OpenStore(ctx, cfg, config.Log)
	if err != nil {
		config.Log.WithError(err).Fatal("Failed to open listing store")
	}
	defer closeStore()

	provider := payment.NewStripeProvider(cfg.StripeProviderConfig(), config.Log)
	policy := cfg.Policy()

	var bridgeOpts []checkout.Option
	if cfg.Stripe.PaymentLink != "" {
		bridgeOpts = append(bridgeOpts, checkout.WithPaymentLink(cfg.Stripe.PaymentLink))
	}

	h := handlers.NewApplicationHandler(
		listing.NewService(listingStore, policy, config.Log),
		checkout.NewBridge(listingStore, provider, policy, cfg.Pricing(), config.Log, bridgeOpts...),
		feed.New(listingStore),
		reconcile.New(listingStore, provider, cfg.SweepConfig(), config.Log),
		config.Log,
		cfg.Server.PublicURL,
	)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return utils.RespondWithError(c, code, err.Error())
		},
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.RequestLogger(config.Log))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  "ok",
			"message": "Job board API is healthy",
		})
	})
	app.Get("/swagger/*", fiberSwagger.WrapHandler)

	h.RegisterRoutes(app, cfg.Admin.Token)

	go func() {
		config.Log.WithField("addr", cfg.Server.Addr).Info("Starting job board API")
		if err := app.Listen(cfg.Server.Addr); err != nil {
			config.Log.WithError(err).Error("Server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	config.Log.Info("Shutting down job board API")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		config.Log.WithError(err).Error("Graceful shutdown failed")
	}
}
