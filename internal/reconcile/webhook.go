package reconcile

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/geotsn/aggeliesergasias/internal/checkout"
	"github.com/geotsn/aggeliesergasias/internal/payment"
)

// WebhookResult describes what a delivery did.
type WebhookResult struct {
	EventID   string `json:"eventId"`
	EventType string `json:"eventType"`
	Handled   bool   `json:"handled"`
	Activated bool   `json:"activated"`
	ListingID string `json:"listingId,omitempty"`
}

// HandleWebhook verifies the delivery before anything else. Verification
// failures come back marked with payment.ErrSignature and store failures with
// ErrStore; every other outcome, including an undecodable reference, is a
// successful delivery that must not be retried.
func (r *Reconciler) HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) (WebhookResult, error) {
	ev, err := r.provider.VerifyEvent(payload, signatureHeader)
	if err != nil {
		r.log.WithError(err).Warn("Rejected webhook delivery")
		return WebhookResult{}, err
	}

	res := WebhookResult{EventID: ev.ID, EventType: ev.Type}
	entry := r.log.WithFields(logrus.Fields{"event_id": ev.ID, "event_type": ev.Type})

	switch ev.Type {
	case payment.EventCheckoutCompleted, payment.EventCheckoutAsyncPaymentSucceeded:
	default:
		entry.Debug("Ignoring webhook event type")
		return res, nil
	}
	if !ev.HasSession {
		return res, nil
	}
	res.Handled = true

	session := ev.Session
	entry = entry.WithField("session_id", session.ID)
	if ev.Type == payment.EventCheckoutCompleted && !session.IsPaid() {
		entry.Info("Checkout completed without payment yet, waiting for async confirmation")
		return res, nil
	}

	raw := referenceOf(session)
	if raw == "" {
		entry.Warn("Paid session carries no client reference")
		return res, nil
	}
	ref, err := checkout.DecodeReference(raw)
	if err != nil {
		entry.WithError(err).Warn("Paid session carries an undecodable reference")
		return res, nil
	}

	out, err := r.apply(ctx, ref)
	res.ListingID = out.listingID
	if err != nil {
		entry.WithError(err).Error("Activation failed")
		return res, err
	}

	res.Activated = out.changed > 0
	entry.WithFields(logrus.Fields{
		"listing_id": out.listingID,
		"activated":  res.Activated,
	}).Info("Webhook reconciled")
	return res, nil
}
