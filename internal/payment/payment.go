// Package payment abstracts the hosted checkout provider: session creation,
// session listing over a time window and verified webhook events.
package payment

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
)

var (
	// ErrProvider marks failures talking to the payment provider.
	ErrProvider = errors.New("payment provider failure")
	// ErrSignature marks webhook payloads whose signature did not verify.
	ErrSignature = errors.New("webhook signature verification failed")
)

// Session states as reported by the provider.
const (
	StatusComplete        = "complete"
	PaymentStatusPaid     = "paid"
	IntentStatusSucceeded = "succeeded"
)

// Event types the reconciliation worker reacts to.
const (
	EventCheckoutCompleted             = "checkout.session.completed"
	EventCheckoutAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
)

// SessionRequest describes a one-item hosted checkout.
type SessionRequest struct {
	ProductName     string
	Description     string
	AmountCents     int64
	Currency        string
	SuccessURL      string
	CancelURL       string
	ClientReference string
	Metadata        map[string]string
}

// Session is the provider-neutral view of a checkout session.
type Session struct {
	ID                  string
	URL                 string
	Status              string
	PaymentStatus       string
	PaymentIntentStatus string
	ClientReference     string
	Metadata            map[string]string
	Created             time.Time
}

// IsPaid reports whether the money has actually been captured.
func (s Session) IsPaid() bool {
	if s.PaymentStatus == PaymentStatusPaid {
		return true
	}
	return s.Status == StatusComplete && s.PaymentIntentStatus == IntentStatusSucceeded
}

// Event is a verified webhook delivery.
type Event struct {
	ID         string
	Type       string
	HasSession bool
	Session    Session
}

// Provider is implemented by StripeProvider and by test fakes.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, req SessionRequest) (Session, error)
	// ListSessions returns sessions created at or after since, with the
	// payment intent status expanded.
	ListSessions(ctx context.Context, since time.Time) ([]Session, error)
	// VerifyEvent checks the signature header before decoding the payload.
	VerifyEvent(payload []byte, signatureHeader string) (Event, error)
}
