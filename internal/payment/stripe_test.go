package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webhookSecret = "whsec_test_secret"

// signPayload builds a Stripe-Signature header for payload at ts.
func signPayload(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

type fakeStripe struct {
	mu       sync.Mutex
	forms    []url.Values
	queries  []string
	status   int
	response string
}

func (f *fakeStripe) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	form, _ := url.ParseQuery(string(body))

	f.mu.Lock()
	f.forms = append(f.forms, form)
	f.queries = append(f.queries, r.URL.Path+"?"+r.URL.RawQuery)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(f.status)
	_, _ = io.WriteString(w, f.response)
}

func (f *fakeStripe) recorded() ([]url.Values, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]url.Values(nil), f.forms...), append([]string(nil), f.queries...)
}

func newProvider(t *testing.T, f *fakeStripe) *StripeProvider {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	logger, _ := test.NewNullLogger()
	return NewStripeProvider(StripeConfig{
		SecretKey:     "sk_test_123",
		WebhookSecret: webhookSecret,
		Timeout:       5 * time.Second,
		BaseURL:       srv.URL,
	}, logger)
}

func TestStripe_CreateCheckoutSession(t *testing.T) {
	f := &fakeStripe{status: http.StatusOK, response: `{
		"id": "cs_test_1",
		"object": "checkout.session",
		"url": "https://checkout.stripe.com/c/pay/cs_test_1",
		"status": "open",
		"payment_status": "unpaid",
		"client_reference_id": "ref123"
	}`}
	p := newProvider(t, f)

	s, err := p.CreateCheckoutSession(context.Background(), SessionRequest{
		ProductName:     "Premium Job Listing",
		Description:     "Driver at Acme",
		AmountCents:     399,
		Currency:        "eur",
		SuccessURL:      "https://aggelies.gr/success",
		CancelURL:       "https://aggelies.gr/cancel",
		ClientReference: "ref123",
		Metadata:        map[string]string{"listing_id": "l1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", s.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", s.URL)

	forms, _ := f.recorded()
	require.Len(t, forms, 1)
	form := forms[0]
	assert.Equal(t, "payment", form.Get("mode"))
	assert.Equal(t, "ref123", form.Get("client_reference_id"))
	assert.Equal(t, "https://aggelies.gr/success", form.Get("success_url"))
	assert.Equal(t, "https://aggelies.gr/cancel", form.Get("cancel_url"))
	assert.Equal(t, "399", form.Get("line_items[0][price_data][unit_amount]"))
	assert.Equal(t, "eur", form.Get("line_items[0][price_data][currency]"))
	assert.Equal(t, "Premium Job Listing", form.Get("line_items[0][price_data][product_data][name]"))
	assert.Equal(t, "Driver at Acme", form.Get("line_items[0][price_data][product_data][description]"))
	assert.Equal(t, "l1", form.Get("metadata[listing_id]"))
}

func TestStripe_CreateCheckoutSessionError(t *testing.T) {
	f := &fakeStripe{status: http.StatusBadRequest, response: `{"error":{"type":"invalid_request_error","message":"Invalid currency"}}`}
	p := newProvider(t, f)

	_, err := p.CreateCheckoutSession(context.Background(), SessionRequest{Currency: "xxx"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProvider))
	assert.Contains(t, err.Error(), "Invalid currency")
}

func TestStripe_ListSessions(t *testing.T) {
	f := &fakeStripe{status: http.StatusOK, response: `{
		"object": "list",
		"url": "/v1/checkout/sessions",
		"has_more": false,
		"data": [
			{"id": "cs_1", "object": "checkout.session", "status": "complete", "payment_status": "paid",
			 "client_reference_id": "abc", "created": 1780000000,
			 "payment_intent": {"id": "pi_1", "object": "payment_intent", "status": "succeeded"}},
			{"id": "cs_2", "object": "checkout.session", "status": "open", "payment_status": "unpaid",
			 "payment_intent": "pi_2"}
		]
	}`}
	p := newProvider(t, f)

	since := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	sessions, err := p.ListSessions(context.Background(), since)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	assert.True(t, sessions[0].IsPaid())
	assert.Equal(t, "abc", sessions[0].ClientReference)
	assert.Equal(t, "succeeded", sessions[0].PaymentIntentStatus)
	assert.Equal(t, time.Unix(1780000000, 0).UTC(), sessions[0].Created)
	assert.False(t, sessions[1].IsPaid())

	_, queries := f.recorded()
	require.Len(t, queries, 1)
	query, err := url.QueryUnescape(queries[0])
	require.NoError(t, err)
	assert.Contains(t, query, "/v1/checkout/sessions")
	assert.Contains(t, query, "created[gte]="+strconv.FormatInt(since.Unix(), 10))
	assert.Contains(t, query, "data.payment_intent")
	assert.Contains(t, query, "limit=100")
}

func TestStripe_ListSessionsError(t *testing.T) {
	f := &fakeStripe{status: http.StatusUnauthorized, response: `{"error":{"type":"invalid_request_error","message":"Invalid API Key provided"}}`}
	p := newProvider(t, f)

	_, err := p.ListSessions(context.Background(), time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProvider))
}

func TestStripe_VerifyEvent(t *testing.T) {
	p := newProvider(t, &fakeStripe{status: http.StatusOK})

	payload := []byte(`{
		"id": "evt_1",
		"object": "event",
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_1", "object": "checkout.session", "status": "complete",
			"payment_status": "paid", "client_reference_id": "abc", "metadata": {"listing_id": "l1"}}}
	}`)

	ev, err := p.VerifyEvent(payload, signPayload(payload, webhookSecret, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, "evt_1", ev.ID)
	assert.Equal(t, EventCheckoutCompleted, ev.Type)
	require.True(t, ev.HasSession)
	assert.Equal(t, "abc", ev.Session.ClientReference)
	assert.Equal(t, "l1", ev.Session.Metadata["listing_id"])
	assert.True(t, ev.Session.IsPaid())
}

func TestStripe_VerifyEventRejectsBadSignature(t *testing.T) {
	p := newProvider(t, &fakeStripe{status: http.StatusOK})
	payload := []byte(`{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{}}}`)

	tests := map[string]string{
		"wrong secret": signPayload(payload, "whsec_other", time.Now()),
		"stale":        signPayload(payload, webhookSecret, time.Now().Add(-time.Hour)),
		"empty":        "",
	}
	for name, header := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := p.VerifyEvent(payload, header)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSignature))
		})
	}
}

func TestStripe_VerifyEventOtherType(t *testing.T) {
	p := newProvider(t, &fakeStripe{status: http.StatusOK})
	payload := []byte(`{"id":"evt_2","object":"event","type":"customer.created","data":{"object":{"id":"cus_1","object":"customer"}}}`)

	ev, err := p.VerifyEvent(payload, signPayload(payload, webhookSecret, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, "customer.created", ev.Type)
	assert.False(t, ev.HasSession)
}

func TestStripe_VerifyEventUndecodableSessionIsAcknowledged(t *testing.T) {
	p := newProvider(t, &fakeStripe{status: http.StatusOK})
	payload := []byte(`{"id":"evt_3","object":"event","type":"checkout.session.completed",` +
		`"data":{"object":{"id":"cs_1","object":"checkout.session","amount_total":"lots"}}}`)

	ev, err := p.VerifyEvent(payload, signPayload(payload, webhookSecret, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, "evt_3", ev.ID)
	assert.Equal(t, EventCheckoutCompleted, ev.Type)
	assert.False(t, ev.HasSession)
}

func TestSession_IsPaid(t *testing.T) {
	assert.True(t, Session{PaymentStatus: "paid"}.IsPaid())
	assert.True(t, Session{Status: "complete", PaymentIntentStatus: "succeeded"}.IsPaid())
	assert.False(t, Session{Status: "complete", PaymentStatus: "unpaid", PaymentIntentStatus: "processing"}.IsPaid())
	assert.False(t, Session{Status: "expired"}.IsPaid())
}
