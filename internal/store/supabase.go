package store

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	postgrest "github.com/supabase-community/postgrest-go"

	"github.com/geotsn/aggeliesergasias/models"
)

// Querier is satisfied by both *supabase.Client and *postgrest.Client.
type Querier interface {
	From(table string) *postgrest.QueryBuilder
}

// DefaultRequestTimeout bounds a single PostgREST call.
const DefaultRequestTimeout = 15 * time.Second

// SupabaseStore keeps listings in a Supabase table through PostgREST.
type SupabaseStore struct {
	client  Querier
	table   string
	timeout time.Duration
	log     logrus.FieldLogger
}

// NewSupabaseStore creates a store over the given client. An empty table
// name selects DefaultTable.
func NewSupabaseStore(client Querier, table string, log logrus.FieldLogger) *SupabaseStore {
	if table == "" {
		table = DefaultTable
	}
	return &SupabaseStore{client: client, table: table, timeout: DefaultRequestTimeout, log: log}
}

// WithTimeout caps every PostgREST call. Zero leaves only the caller's
// deadline in force.
func (s *SupabaseStore) WithTimeout(d time.Duration) *SupabaseStore {
	s.timeout = d
	return s
}

// run executes call until it returns or ctx ends, whichever comes first.
// postgrest-go takes no context, so an abandoned request keeps running in
// the background and its result is dropped.
func (s *SupabaseStore) run(ctx context.Context, call func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() { done <- call() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		s.log.WithField("table", s.table).Warn("PostgREST request abandoned")
		return errors.Wrap(ctx.Err(), "waiting for postgrest")
	}
}

// NewRESTClient builds a bare PostgREST client against a Supabase project,
// authenticating with the service key.
func NewRESTClient(supabaseURL, serviceKey string) (*postgrest.Client, error) {
	client := postgrest.NewClient(supabaseURL+"/rest/v1", "", map[string]string{
		"apikey":        serviceKey,
		"Authorization": fmt.Sprintf("Bearer %s", serviceKey),
	})
	if client.ClientError != nil {
		return nil, errors.Wrap(client.ClientError, "initializing postgrest client")
	}
	return client, nil
}

// Insert creates the row and returns the representation echoed by PostgREST.
func (s *SupabaseStore) Insert(ctx context.Context, listing models.Listing) (models.Listing, error) {
	var results []models.Listing
	err := s.run(ctx, func() error {
		_, err := s.client.From(s.table).Insert(listing, false, "", "representation", "").ExecuteTo(&results)
		return err
	})
	if err != nil {
		return models.Listing{}, errors.Wrap(err, "inserting listing")
	}
	if len(results) == 0 {
		return models.Listing{}, ErrNoRowReturned
	}

	s.log.WithFields(logrus.Fields{
		"listing_id": results[0].ID,
		"type":       results[0].Type,
	}).Info("Listing inserted")
	return results[0], nil
}

// Get fetches a single listing by id.
func (s *SupabaseStore) Get(ctx context.Context, id string) (models.Listing, error) {
	var results []models.Listing
	err := s.run(ctx, func() error {
		_, err := s.client.From(s.table).
			Select("*", "", false).
			Eq("id", id).
			Limit(1, "").
			ExecuteTo(&results)
		return err
	})
	if err != nil {
		return models.Listing{}, errors.Wrapf(err, "fetching listing %s", id)
	}
	if len(results) == 0 {
		return models.Listing{}, ErrNotFound
	}
	return results[0], nil
}

// ActivatePending issues a PATCH filtered on id and payment_status=pending.
// PostgREST returns only the rows it changed, so their count is the result.
func (s *SupabaseStore) ActivatePending(ctx context.Context, id string, at time.Time) (int, error) {
	updateData := map[string]interface{}{
		"payment_status": models.PaymentCompleted,
		"is_active":      true,
		"updated_at":     at.UTC(),
	}

	var changed []models.Listing
	err := s.run(ctx, func() error {
		_, err := s.client.From(s.table).
			Update(updateData, "representation", "").
			Eq("id", id).
			Eq("payment_status", string(models.PaymentPending)).
			ExecuteTo(&changed)
		return err
	})
	if err != nil {
		return 0, errors.Wrapf(err, "activating listing %s", id)
	}
	return len(changed), nil
}

// FindPendingMatch looks up the oldest pending row for the given provenance.
func (s *SupabaseStore) FindPendingMatch(ctx context.Context, source, title, company string) (string, error) {
	var results []struct {
		ID string `json:"id"`
	}
	err := s.run(ctx, func() error {
		_, err := s.client.From(s.table).
			Select("id", "", false).
			Eq("source", source).
			Eq("title", title).
			Eq("company", company).
			Eq("payment_status", string(models.PaymentPending)).
			Order("created_at", &postgrest.OrderOpts{Ascending: true}).
			Limit(1, "").
			ExecuteTo(&results)
		return err
	})
	if err != nil {
		return "", errors.Wrap(err, "matching pending listing")
	}
	if len(results) == 0 {
		return "", ErrNotFound
	}
	return results[0].ID, nil
}

// ListActive selects visible rows. "premium" sorts after "free", so a
// descending order on type puts premium listings first.
func (s *SupabaseStore) ListActive(ctx context.Context, q ActiveQuery) ([]models.Listing, error) {
	now := q.Now.UTC().Format(time.RFC3339)
	query := s.client.From(s.table).
		Select("*", "", false).
		Eq("is_active", "true").
		Or(fmt.Sprintf("expires_at.is.null,expires_at.gt.%s", now), "")
	if q.Category != "" {
		query = query.Eq("category", q.Category)
	}
	query = query.
		Order("type", &postgrest.OrderOpts{Ascending: false}).
		Order("posted_at", &postgrest.OrderOpts{Ascending: false})

	var listings []models.Listing
	err := s.run(ctx, func() error {
		_, err := query.ExecuteTo(&listings)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "listing active listings")
	}
	SortFeed(listings)
	return listings, nil
}
