package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geotsn/aggeliesergasias/internal/checkout"
	"github.com/geotsn/aggeliesergasias/internal/feed"
	"github.com/geotsn/aggeliesergasias/internal/intake"
	"github.com/geotsn/aggeliesergasias/internal/listing"
	"github.com/geotsn/aggeliesergasias/internal/payment"
	"github.com/geotsn/aggeliesergasias/internal/payment/paymenttest"
	"github.com/geotsn/aggeliesergasias/internal/reconcile"
	"github.com/geotsn/aggeliesergasias/internal/store"
	"github.com/geotsn/aggeliesergasias/models"
)

const adminToken = "s3cret"

type testApp struct {
	app      *fiber.App
	store    *store.MemoryStore
	provider *paymenttest.Fake
}

func newTestApp(t *testing.T) testApp {
	t.Helper()
	logger, _ := test.NewNullLogger()
	s := store.NewMemoryStore()
	fake := paymenttest.NewFake()
	policy := listing.DefaultPolicy()

	h := NewApplicationHandler(
		listing.NewService(s, policy, logger),
		checkout.NewBridge(s, fake, policy, checkout.DefaultPricing(), logger),
		feed.New(s),
		reconcile.New(s, fake, reconcile.Config{Window: 24 * time.Hour, Timeout: 5 * time.Second, Workers: 2}, logger),
		logger,
		"https://aggelies.gr/",
	)

	app := fiber.New()
	h.RegisterRoutes(app, adminToken)
	return testApp{app: app, store: s, provider: fake}
}

func payload(typ string) intake.Payload {
	return intake.Payload{
		Title:       "Delivery Driver",
		Company:     "TechMove",
		Location:    "Athens",
		Category:    "driver",
		Description: "Scooter deliveries in the city centre",
		Phone:       "6912345678",
		Email:       "jobs@techmove.gr",
		Type:        typ,
	}
}

func (ta testApp) do(t *testing.T, method, target string, body any, headers map[string]string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := ta.app.Test(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestSubmitListing_Free(t *testing.T) {
	ta := newTestApp(t)

	resp := ta.do(t, "POST", "/api/v1/listings", payload("free"), nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	created := decode[ListingSuccessResponse](t, resp)
	assert.Equal(t, "success", created.Status)
	assert.True(t, created.Data.IsActive)
	assert.Equal(t, models.ListingFree, created.Data.Type)
	assert.Positive(t, created.Data.DaysLeft)

	resp = ta.do(t, "GET", "/api/v1/listings", nil, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	list := decode[FeedSuccessResponse](t, resp)
	require.Len(t, list.Data, 1)
	assert.Equal(t, created.Data.ID, list.Data[0].ID)

	resp = ta.do(t, "GET", "/api/v1/listings/"+created.Data.ID, nil, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestSubmitListing_Validation(t *testing.T) {
	ta := newTestApp(t)

	p := payload("free")
	p.Phone = ""
	p.Email = "not-an-email"
	resp := ta.do(t, "POST", "/api/v1/listings", p, nil)
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	body := decode[ValidationErrorResponse](t, resp)
	assert.Equal(t, []string{"phone"}, body.MissingFields)
	assert.Equal(t, []string{"email"}, body.InvalidFields)
	assert.Zero(t, ta.store.Len())
}

func TestSubmitListing_MalformedJSON(t *testing.T) {
	ta := newTestApp(t)

	req := httptest.NewRequest("POST", "/api/v1/listings", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := ta.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSubmitListing_PremiumStartsCheckout(t *testing.T) {
	ta := newTestApp(t)

	resp := ta.do(t, "POST", "/api/v1/listings", payload("premium"), map[string]string{"Origin": "https://preview.aggelies.gr"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	res := decode[CheckoutSuccessResponse](t, resp)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", res.Data.RedirectURL)

	reqs := ta.provider.CreatedRequests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "https://preview.aggelies.gr/success", reqs[0].SuccessURL)
	assert.Equal(t, "Delivery Driver at TechMove", reqs[0].Description)

	ref, err := checkout.DecodeReference(reqs[0].ClientReference)
	require.NoError(t, err)
	assert.Equal(t, res.Data.ListingID, ref.ID)

	// pending rows are not on the board
	resp = ta.do(t, "GET", "/api/v1/listings", nil, nil)
	assert.Empty(t, decode[FeedSuccessResponse](t, resp).Data)
	resp = ta.do(t, "GET", "/api/v1/listings/"+res.Data.ListingID, nil, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestCreateCheckout_DefaultOrigin(t *testing.T) {
	ta := newTestApp(t)

	resp := ta.do(t, "POST", "/api/v1/checkout", payload(""), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	reqs := ta.provider.CreatedRequests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "https://aggelies.gr/cancel", reqs[0].CancelURL)
}

func TestCreateCheckout_ProviderFailure(t *testing.T) {
	ta := newTestApp(t)
	ta.provider.CreateErr = errors.Mark(errors.New("card declined"), payment.ErrProvider)

	resp := ta.do(t, "POST", "/api/v1/checkout", payload("premium"), nil)
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, 1, ta.store.Len())
}

func TestListListings_Filters(t *testing.T) {
	ta := newTestApp(t)

	for _, p := range []intake.Payload{
		payload("free"),
		{Title: "Chef", Company: "Taverna", Location: "Volos", Category: "chef", Description: "Grill", Phone: "2421012345", Email: "a@b.gr"},
	} {
		resp := ta.do(t, "POST", "/api/v1/listings", p, nil)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	}

	resp := ta.do(t, "GET", "/api/v1/listings?category=chef", nil, nil)
	list := decode[FeedSuccessResponse](t, resp)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "Chef", list.Data[0].Title)

	resp = ta.do(t, "GET", "/api/v1/listings?category=all&q=tech", nil, nil)
	list = decode[FeedSuccessResponse](t, resp)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "Delivery Driver", list.Data[0].Title)
}

func TestApplyToListing(t *testing.T) {
	ta := newTestApp(t)

	resp := ta.do(t, "POST", "/api/v1/listings", payload("free"), nil)
	created := decode[ListingSuccessResponse](t, resp)

	resp = ta.do(t, "GET", "/api/v1/listings/"+created.Data.ID+"/apply?client=gmail", nil, nil)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), "https://mail.google.com/"))

	resp = ta.do(t, "GET", "/api/v1/listings/"+created.Data.ID+"/apply", nil, nil)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), "mailto:jobs@techmove.gr?"))

	resp = ta.do(t, "GET", "/api/v1/listings/missing/apply", nil, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

// uuidColumnStore rejects ids the way a uuid primary key column does.
type uuidColumnStore struct{ *store.MemoryStore }

func (uuidColumnStore) Get(_ context.Context, id string) (models.Listing, error) {
	return models.Listing{}, errors.Newf("invalid input syntax for type uuid: %q", id)
}

func TestGetListing_MalformedID(t *testing.T) {
	logger, hook := test.NewNullLogger()
	s := uuidColumnStore{store.NewMemoryStore()}
	h := NewApplicationHandler(nil, nil, feed.New(s), nil, logger, "")
	app := fiber.New()
	h.RegisterRoutes(app, adminToken)

	for _, target := range []string{"/api/v1/listings/not-a-uuid", "/api/v1/listings/not-a-uuid/apply"} {
		resp, err := app.Test(httptest.NewRequest("GET", target, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode, target)
	}
	assert.Empty(t, hook.AllEntries())
}

func TestListCategories(t *testing.T) {
	ta := newTestApp(t)

	resp := ta.do(t, "GET", "/api/v1/categories", nil, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decode[CategoriesSuccessResponse](t, resp)
	assert.Equal(t, models.Categories, body.Data)
}

func paidEvent(t *testing.T, listingID string) payment.Event {
	t.Helper()
	ref, err := checkout.EncodeReference(checkout.Reference{ID: listingID})
	require.NoError(t, err)
	return payment.Event{
		ID:         "evt_1",
		Type:       payment.EventCheckoutCompleted,
		HasSession: true,
		Session: payment.Session{
			ID:              "cs_test_1",
			Status:          payment.StatusComplete,
			PaymentStatus:   payment.PaymentStatusPaid,
			ClientReference: ref,
		},
	}
}

func TestStripeWebhook(t *testing.T) {
	ta := newTestApp(t)

	resp := ta.do(t, "POST", "/api/v1/checkout", payload("premium"), nil)
	res := decode[CheckoutSuccessResponse](t, resp)
	ta.provider.Events["t=1,v1=good"] = paidEvent(t, res.Data.ListingID)

	resp = ta.do(t, "POST", "/api/v1/webhooks/stripe", map[string]string{"id": "evt_1"}, map[string]string{StripeSignatureHeader: "t=1,v1=bad"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = ta.do(t, "POST", "/api/v1/webhooks/stripe", map[string]string{"id": "evt_1"}, map[string]string{StripeSignatureHeader: "t=1,v1=good"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	ack := decode[WebhookResponse](t, resp)
	assert.True(t, ack.Received)
	assert.True(t, ack.Activated)
	assert.Equal(t, res.Data.ListingID, ack.ListingID)

	row, err := ta.store.Get(context.Background(), res.Data.ListingID)
	require.NoError(t, err)
	assert.True(t, row.IsActive)
	assert.Equal(t, models.PaymentCompleted, *row.PaymentStatus)

	// redelivery is acknowledged without a second activation
	resp = ta.do(t, "POST", "/api/v1/webhooks/stripe", map[string]string{"id": "evt_1"}, map[string]string{StripeSignatureHeader: "t=1,v1=good"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.False(t, decode[WebhookResponse](t, resp).Activated)

	resp = ta.do(t, "GET", "/api/v1/listings/"+res.Data.ListingID, nil, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

type failingActivation struct{ *store.MemoryStore }

func (failingActivation) ActivatePending(context.Context, string, time.Time) (int, error) {
	return 0, errors.New("connection reset")
}

func TestStripeWebhook_StoreFailureIsRetryable(t *testing.T) {
	logger, _ := test.NewNullLogger()
	s := failingActivation{store.NewMemoryStore()}
	fake := paymenttest.NewFake()
	h := NewApplicationHandler(nil, nil, feed.New(s), reconcile.New(s, fake, reconcile.DefaultConfig(), logger), logger, "")
	app := fiber.New()
	h.RegisterRoutes(app, adminToken)

	fake.Events["sig"] = paidEvent(t, "9b2f6c1e-3a4d-4e5f-8a7b-1c2d3e4f5a6b")
	req := httptest.NewRequest("POST", "/api/v1/webhooks/stripe", strings.NewReader(`{}`))
	req.Header.Set(StripeSignatureHeader, "sig")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestRunReconciliation(t *testing.T) {
	ta := newTestApp(t)

	resp := ta.do(t, "POST", "/api/v1/checkout", payload("premium"), nil)
	res := decode[CheckoutSuccessResponse](t, resp)
	ev := paidEvent(t, res.Data.ListingID)
	ta.provider.Sessions = []payment.Session{ev.Session, ev.Session, {ID: "cs_open", Status: "open"}}

	resp = ta.do(t, "POST", "/api/v1/admin/reconcile", nil, nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	auth := map[string]string{"Authorization": "Bearer " + adminToken}
	resp = ta.do(t, "POST", "/api/v1/admin/reconcile?window=bogus", nil, auth)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = ta.do(t, "POST", "/api/v1/admin/reconcile?window=48h", nil, auth)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decode[ReconcileResponse](t, resp)
	assert.True(t, body.Success)
	assert.Equal(t, 3, body.TotalSessions)
	assert.Equal(t, 2, body.CompletedSessions)
	assert.Equal(t, 1, body.UniquePaidJobs)
	assert.Equal(t, 1, body.ProcessedJobs)

	resp = ta.do(t, "POST", "/api/v1/admin/reconcile", nil, auth)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, decode[ReconcileResponse](t, resp).ProcessedJobs)
}

func TestRunReconciliation_ProviderFailure(t *testing.T) {
	ta := newTestApp(t)
	ta.provider.ListErr = errors.Mark(errors.New("timeout"), payment.ErrProvider)

	resp := ta.do(t, "POST", "/api/v1/admin/reconcile", nil, map[string]string{"Authorization": "Bearer " + adminToken})
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
}
