// Package checkout hands premium postings over to the hosted payment page.
// The pending row is always written before any payment session exists.
package checkout

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"github.com/geotsn/aggeliesergasias/internal/intake"
	"github.com/geotsn/aggeliesergasias/internal/listing"
	"github.com/geotsn/aggeliesergasias/internal/payment"
	"github.com/geotsn/aggeliesergasias/internal/store"
	"github.com/geotsn/aggeliesergasias/models"
)

// ErrStoreInsert is returned when the pending row could not be written; no
// payment session is created in that case.
var ErrStoreInsert = errors.New("could not store pending listing")

// MetadataListingID is the session metadata key holding the listing id.
const MetadataListingID = "listing_id"

// Pricing describes the premium line item.
type Pricing struct {
	ProductName string
	AmountCents int64
	Currency    string
}

// DefaultPricing is 3.99 EUR for a "Premium Job Listing".
func DefaultPricing() Pricing {
	return Pricing{
		ProductName: "Premium Job Listing",
		AmountCents: 399,
		Currency:    "eur",
	}
}

// Result is what the caller needs to redirect the employer.
type Result struct {
	ListingID   string `json:"listingId"`
	RedirectURL string `json:"redirectUrl"`
	SessionID   string `json:"sessionId,omitempty"`
	Reference   string `json:"reference"`
}

// Bridge creates pending premium listings and their payment sessions.
type Bridge struct {
	store       store.Store
	provider    payment.Provider
	policy      listing.Policy
	pricing     Pricing
	paymentLink string
	now         func() time.Time
	log         logrus.FieldLogger
}

// Option customizes a Bridge.
type Option func(*Bridge)

// WithPaymentLink makes the bridge redirect to a pre-provisioned payment link
// with the reference appended, instead of creating a session server-side.
func WithPaymentLink(link string) Option {
	return func(b *Bridge) { b.paymentLink = link }
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(b *Bridge) { b.now = now }
}

// NewBridge wires the premium path. provider may be nil only when a payment
// link is configured.
func NewBridge(s store.Store, provider payment.Provider, policy listing.Policy, pricing Pricing, log logrus.FieldLogger, opts ...Option) *Bridge {
	b := &Bridge{
		store:    s,
		provider: provider,
		policy:   policy,
		pricing:  pricing,
		now:      time.Now,
		log:      log,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// StartPremiumCheckout validates the payload, inserts the pending row and
// returns the URL of the payment page. origin is the site the employer came
// from; success and cancel pages hang off it.
func (b *Bridge) StartPremiumCheckout(ctx context.Context, payload intake.Payload, origin string) (Result, error) {
	payload.Type = string(models.ListingPremium)
	posting, err := intake.Validate(payload)
	if err != nil {
		return Result{}, err
	}

	origin = strings.TrimRight(origin, "/")
	row := b.policy.NewListing(posting, b.now(), origin)

	created, err := b.store.Insert(ctx, row)
	if err != nil {
		b.log.WithError(err).WithField("title", row.Title).Error("Pending listing insert failed, checkout aborted")
		return Result{}, errors.Mark(errors.Wrap(err, "inserting pending listing"), ErrStoreInsert)
	}

	logEntry := b.log.WithField("listing_id", created.ID)

	ref, err := EncodeReference(Reference{
		ID:      created.ID,
		Title:   created.Title,
		Company: created.Company,
	})
	if err != nil {
		return Result{}, err
	}

	if b.paymentLink != "" {
		redirect, err := appendReference(b.paymentLink, ref)
		if err != nil {
			return Result{}, err
		}
		logEntry.Info("Premium listing pending, redirecting to payment link")
		return Result{ListingID: created.ID, RedirectURL: redirect, Reference: ref}, nil
	}
	if b.provider == nil {
		return Result{}, errors.New("no payment provider configured")
	}

	session, err := b.provider.CreateCheckoutSession(ctx, payment.SessionRequest{
		ProductName:     b.pricing.ProductName,
		Description:     fmt.Sprintf("%s at %s", created.Title, created.Company),
		AmountCents:     b.pricing.AmountCents,
		Currency:        b.pricing.Currency,
		SuccessURL:      origin + "/success",
		CancelURL:       origin + "/cancel",
		ClientReference: ref,
		Metadata:        map[string]string{MetadataListingID: created.ID},
	})
	if err != nil {
		// the pending row stays behind; it is never shown and never activated
		logEntry.WithError(err).Error("Checkout session creation failed")
		return Result{}, err
	}

	logEntry.WithField("session_id", session.ID).Info("Checkout session created")
	return Result{
		ListingID:   created.ID,
		RedirectURL: session.URL,
		SessionID:   session.ID,
		Reference:   ref,
	}, nil
}

func appendReference(link, ref string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", errors.Wrap(err, "parsing payment link")
	}
	q := u.Query()
	q.Set("client_reference_id", ref)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
