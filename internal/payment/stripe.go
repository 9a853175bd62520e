package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// StripeConfig configures StripeProvider.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Timeout       time.Duration
	PageLimit     int64
	// BaseURL overrides the API endpoint; empty means api.stripe.com.
	BaseURL string
}

// StripeProvider implements Provider on top of stripe-go.
type StripeProvider struct {
	api           *client.API
	webhookSecret string
	pageLimit     int64
	log           logrus.FieldLogger
}

// NewStripeProvider builds a client with its own backends so that the secret
// key and timeouts never leak into the stripe package globals.
func NewStripeProvider(cfg StripeConfig, log logrus.FieldLogger) *StripeProvider {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	backendConfig := &stripe.BackendConfig{
		HTTPClient:    httpClient,
		LeveledLogger: log,
	}
	if cfg.BaseURL != "" {
		backendConfig.URL = stripe.String(cfg.BaseURL)
	}

	backends := &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, backendConfig),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, backendConfig),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, backendConfig),
	}

	pageLimit := cfg.PageLimit
	if pageLimit <= 0 {
		pageLimit = 100
	}

	return &StripeProvider{
		api:           client.New(cfg.SecretKey, backends),
		webhookSecret: cfg.WebhookSecret,
		pageLimit:     pageLimit,
		log:           log,
	}
}

// CreateCheckoutSession creates a payment-mode session with a single line item.
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req SessionRequest) (Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(req.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(req.ProductName),
						Description: stripe.String(req.Description),
					},
					UnitAmount: stripe.Int64(req.AmountCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.ClientReference),
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	s, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return Session{}, errors.Mark(errors.Wrap(err, "creating checkout session"), ErrProvider)
	}
	return toSession(s), nil
}

// ListSessions pages through every session created since the given time.
func (p *StripeProvider) ListSessions(ctx context.Context, since time.Time) ([]Session, error) {
	params := &stripe.CheckoutSessionListParams{}
	params.Context = ctx
	params.Limit = stripe.Int64(p.pageLimit)
	params.Filters.AddFilter("created", "gte", strconv.FormatInt(since.Unix(), 10))
	params.AddExpand("data.payment_intent")

	var sessions []Session
	it := p.api.CheckoutSessions.List(params)
	for it.Next() {
		sessions = append(sessions, toSession(it.CheckoutSession()))
	}
	if err := it.Err(); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "listing checkout sessions"), ErrProvider)
	}

	p.log.WithField("sessions", len(sessions)).Debug("Listed checkout sessions")
	return sessions, nil
}

// VerifyEvent checks the Stripe-Signature header. The event's API version is
// not required to match the library's since only session fields are read.
func (p *StripeProvider) VerifyEvent(payload []byte, signatureHeader string) (Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signatureHeader, p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return Event{}, errors.Mark(errors.Wrap(err, "verifying webhook"), ErrSignature)
	}

	out := Event{ID: ev.ID, Type: string(ev.Type)}
	if ev.Data == nil || !strings.HasPrefix(out.Type, "checkout.session.") {
		return out, nil
	}

	var cs stripe.CheckoutSession
	if err := json.Unmarshal(ev.Data.Raw, &cs); err != nil {
		p.log.WithError(err).WithFields(logrus.Fields{
			"event_id": ev.ID,
			"type":     out.Type,
		}).Warn("Acknowledging checkout event with undecodable session")
		return out, nil
	}
	out.HasSession = true
	out.Session = toSession(&cs)
	return out, nil
}

func toSession(s *stripe.CheckoutSession) Session {
	out := Session{
		ID:              s.ID,
		URL:             s.URL,
		Status:          string(s.Status),
		PaymentStatus:   string(s.PaymentStatus),
		ClientReference: s.ClientReferenceID,
		Metadata:        s.Metadata,
	}
	if s.Created > 0 {
		out.Created = time.Unix(s.Created, 0).UTC()
	}
	if s.PaymentIntent != nil {
		out.PaymentIntentStatus = string(s.PaymentIntent.Status)
	}
	return out
}
