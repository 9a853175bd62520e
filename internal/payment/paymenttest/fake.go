// Package paymenttest provides an in-memory payment.Provider for tests.
package paymenttest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/geotsn/aggeliesergasias/internal/payment"
)

// Fake records created sessions and serves canned listings and events.
type Fake struct {
	mu sync.Mutex

	Created   []payment.SessionRequest
	Sessions  []payment.Session
	ListSince []time.Time

	CreateErr error
	ListErr   error
	// Events maps a signature header to the event it verifies as.
	Events    map[string]payment.Event
	VerifyErr error
}

// NewFake returns an empty fake.
func NewFake() *Fake {
	return &Fake{Events: make(map[string]payment.Event)}
}

func (f *Fake) CreateCheckoutSession(ctx context.Context, req payment.SessionRequest) (payment.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.CreateErr != nil {
		return payment.Session{}, f.CreateErr
	}
	f.Created = append(f.Created, req)
	id := fmt.Sprintf("cs_test_%d", len(f.Created))
	return payment.Session{
		ID:              id,
		URL:             "https://checkout.stripe.com/c/pay/" + id,
		Status:          "open",
		PaymentStatus:   "unpaid",
		ClientReference: req.ClientReference,
		Metadata:        req.Metadata,
	}, nil
}

func (f *Fake) ListSessions(ctx context.Context, since time.Time) ([]payment.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.ListSince = append(f.ListSince, since)
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return append([]payment.Session(nil), f.Sessions...), nil
}

func (f *Fake) VerifyEvent(payload []byte, signatureHeader string) (payment.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.VerifyErr != nil {
		return payment.Event{}, f.VerifyErr
	}
	ev, ok := f.Events[signatureHeader]
	if !ok {
		return payment.Event{}, payment.ErrSignature
	}
	return ev, nil
}

// CreatedRequests returns a copy of the recorded session requests.
func (f *Fake) CreatedRequests() []payment.SessionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]payment.SessionRequest(nil), f.Created...)
}

// ListCalls reports how many times ListSessions was called.
func (f *Fake) ListCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ListSince)
}
