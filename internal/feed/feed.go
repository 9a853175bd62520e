// Package feed is the read path behind the public job board.
package feed

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/geotsn/aggeliesergasias/internal/store"
	"github.com/geotsn/aggeliesergasias/models"
)

// Query holds the optional feed filters.
type Query struct {
	Category string
	Term     string
	Locale   models.Locale
}

// Feed selects visible listings.
type Feed struct {
	store store.Store
	now   func() time.Time
}

// New creates a Feed over s.
func New(s store.Store) *Feed {
	return &Feed{store: s, now: time.Now}
}

// WithClock replaces the time source; used by tests.
func (f *Feed) WithClock(now func() time.Time) *Feed {
	f.now = now
	return f
}

// Query returns active, unexpired listings matching q, premium first and
// most recent first within each tier.
func (f *Feed) Query(ctx context.Context, q Query) ([]models.Listing, error) {
	now := f.now()
	rows, err := f.store.ListActive(ctx, store.ActiveQuery{
		Category: categoryFilter(q.Category),
		Now:      now,
	})
	if err != nil {
		return nil, errors.Wrap(err, "querying feed")
	}

	term := strings.ToLower(strings.TrimSpace(q.Term))
	out := make([]models.Listing, 0, len(rows))
	for _, l := range rows {
		if !l.IsVisible(now) || !MatchesTerm(l, term) {
			continue
		}
		if q.Locale != "" {
			l = l.Localized(q.Locale)
		}
		out = append(out, l)
	}
	store.SortFeed(out)
	return out, nil
}

// Get returns a single listing while it is visible, else store.ErrNotFound.
// Ids are uuids; anything else cannot name a row.
func (f *Feed) Get(ctx context.Context, id string, locale models.Locale) (models.Listing, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.Listing{}, store.ErrNotFound
	}
	l, err := f.store.Get(ctx, id)
	if err != nil {
		return models.Listing{}, err
	}
	if !l.IsVisible(f.now()) {
		return models.Listing{}, store.ErrNotFound
	}
	if locale != "" {
		l = l.Localized(locale)
	}
	return l, nil
}

// MatchesTerm is a case-insensitive substring match on title, company or
// location. term must already be lower-cased; empty matches everything.
func MatchesTerm(l models.Listing, term string) bool {
	if term == "" {
		return true
	}
	for _, field := range []string{l.Title, l.Company, l.Location} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func categoryFilter(category string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == string(models.CategoryAll) {
		return ""
	}
	return category
}
