package store

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Prefer string
	Auth   string
	Body   []byte
}

// fakePostgREST answers every request with the same status and body and
// remembers what it was asked.
func fakePostgREST(t *testing.T, status int, body string) (*SupabaseStore, func() []recordedRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		seen []recordedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Prefer: r.Header.Get("Prefer"),
			Auth:   r.Header.Get("Authorization"),
			Body:   b,
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	client, err := NewRESTClient(srv.URL, "service-key")
	require.NoError(t, err)

	logger, _ := test.NewNullLogger()
	return NewSupabaseStore(client, "", logger), func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), seen...)
	}
}

func TestSupabase_Insert(t *testing.T) {
	s, seen := fakePostgREST(t, http.StatusCreated, `[{"id":"6f1d","title":"Driver","company":"Acme","type":"premium","is_active":false,"payment_status":"pending"}]`)

	got, err := s.Insert(context.Background(), pendingListing("Driver", "Acme"))
	require.NoError(t, err)
	assert.Equal(t, "6f1d", got.ID)
	assert.True(t, got.IsPending())

	require.Len(t, seen(), 1)
	req := seen()[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/rest/v1/jobs", req.Path)
	assert.Contains(t, req.Prefer, "return=representation")
	assert.Equal(t, "Bearer service-key", req.Auth)

	var sent map[string]interface{}
	require.NoError(t, json.Unmarshal(req.Body, &sent))
	assert.Equal(t, "pending", sent["payment_status"])
	assert.Equal(t, false, sent["is_active"])
	assert.NotContains(t, sent, "id")
}

func TestSupabase_InsertEmptyRepresentation(t *testing.T) {
	s, _ := fakePostgREST(t, http.StatusCreated, `[]`)

	_, err := s.Insert(context.Background(), pendingListing("Driver", "Acme"))
	assert.ErrorIs(t, err, ErrNoRowReturned)
}

func TestSupabase_ActivatePendingConditional(t *testing.T) {
	s, seen := fakePostgREST(t, http.StatusOK, `[{"id":"6f1d","payment_status":"completed","is_active":true}]`)

	n, err := s.ActivatePending(context.Background(), "6f1d", base)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	req := seen()[0]
	assert.Equal(t, http.MethodPatch, req.Method)
	assert.Equal(t, "eq.6f1d", req.Query.Get("id"))
	assert.Equal(t, "eq.pending", req.Query.Get("payment_status"))
	assert.Contains(t, req.Prefer, "return=representation")

	var sent map[string]interface{}
	require.NoError(t, json.Unmarshal(req.Body, &sent))
	assert.Equal(t, "completed", sent["payment_status"])
	assert.Equal(t, true, sent["is_active"])
}

func TestSupabase_ActivatePendingNoRows(t *testing.T) {
	s, _ := fakePostgREST(t, http.StatusOK, `[]`)

	n, err := s.ActivatePending(context.Background(), "6f1d", base)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSupabase_ErrorResponse(t *testing.T) {
	s, _ := fakePostgREST(t, http.StatusBadRequest, `{"code":"22P02","message":"invalid input syntax for type uuid","details":null,"hint":null}`)

	_, err := s.ActivatePending(context.Background(), "not-a-uuid", base)
	require.Error(t, err)
}

func TestSupabase_ListActiveFilters(t *testing.T) {
	s, seen := fakePostgREST(t, http.StatusOK, `[
		{"id":"f","title":"Free","type":"free","is_active":true,"posted_at":"2026-05-10T09:00:00Z"},
		{"id":"p","title":"Premium","type":"premium","is_active":true,"posted_at":"2026-05-10T08:00:00Z"}
	]`)

	got, err := s.ListActive(context.Background(), ActiveQuery{Now: base, Category: "driver"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "p", got[0].ID)

	req := seen()[0]
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "eq.true", req.Query.Get("is_active"))
	assert.Equal(t, "eq.driver", req.Query.Get("category"))
	assert.Contains(t, req.Query.Get("or"), "expires_at.gt.2026-05-10T09:00:00Z")
	assert.Contains(t, req.Query.Get("or"), "expires_at.is.null")
}

func TestSupabase_FindPendingMatch(t *testing.T) {
	s, seen := fakePostgREST(t, http.StatusOK, `[{"id":"old"}]`)

	id, err := s.FindPendingMatch(context.Background(), "web", "Driver", "Acme")
	require.NoError(t, err)
	assert.Equal(t, "old", id)

	q := seen()[0].Query
	assert.Equal(t, "eq.web", q.Get("source"))
	assert.Equal(t, "eq.Driver", q.Get("title"))
	assert.Equal(t, "eq.Acme", q.Get("company"))
	assert.Equal(t, "eq.pending", q.Get("payment_status"))
}

func TestSupabase_GetNotFound(t *testing.T) {
	s, _ := fakePostgREST(t, http.StatusOK, `[]`)

	_, err := s.Get(context.Background(), "6f1d")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSupabase_CanceledContext(t *testing.T) {
	s, seen := fakePostgREST(t, http.StatusOK, `[]`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.ActivatePending(ctx, "6f1d", base)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, seen())
}

// hungPostgREST never answers until the test ends.
func hungPostgREST(t *testing.T) *SupabaseStore {
	t.Helper()
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	client, err := NewRESTClient(srv.URL, "service-key")
	require.NoError(t, err)
	logger, _ := test.NewNullLogger()
	return NewSupabaseStore(client, "", logger)
}

func TestSupabase_CallerDeadlineStopsHungRequest(t *testing.T) {
	s := hungPostgREST(t)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	started := time.Now()
	_, err := s.ActivatePending(ctx, "6f1d", base)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(started), 2*time.Second)
}

func TestSupabase_RequestTimeoutStopsHungRequest(t *testing.T) {
	s := hungPostgREST(t).WithTimeout(100 * time.Millisecond)

	started := time.Now()
	_, err := s.Get(context.Background(), "6f1d")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Less(t, time.Since(started), 2*time.Second)

	_, err = s.ListActive(context.Background(), ActiveQuery{Now: base})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
