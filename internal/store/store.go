// Package store persists job listings. Every backend offers the same
// operations: insert, lookup, a conditional pending→completed transition and
// the filtered, ordered select behind the public feed.
package store

import (
	"context"
	"sort"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/geotsn/aggeliesergasias/models"
)

// DefaultTable is the table holding job listings.
const DefaultTable = "jobs"

var (
	// ErrNotFound is returned when no row matches a lookup.
	ErrNotFound = errors.New("listing not found")
	// ErrNoRowReturned is returned when an insert does not echo the new row back.
	ErrNoRowReturned = errors.New("store returned no row after insert")
)

// ActiveQuery selects visible listings as of Now, optionally for one category.
type ActiveQuery struct {
	Category string
	Now      time.Time
}

// Store is the listing persistence contract.
type Store interface {
	// Insert writes a new listing and returns it with its generated identifier.
	Insert(ctx context.Context, listing models.Listing) (models.Listing, error)
	// Get returns a listing by identifier or ErrNotFound.
	Get(ctx context.Context, id string) (models.Listing, error)
	// ActivatePending flips a pending listing to completed and active. It only
	// touches rows whose payment_status is still pending and reports how many
	// rows changed; zero is not an error.
	ActivatePending(ctx context.Context, id string, at time.Time) (int, error)
	// FindPendingMatch returns the oldest pending listing for source, title
	// and company, or ErrNotFound.
	FindPendingMatch(ctx context.Context, source, title, company string) (string, error)
	// ListActive returns active, unexpired listings, premium first then most
	// recently posted.
	ListActive(ctx context.Context, q ActiveQuery) ([]models.Listing, error)
}

// SortFeed orders listings premium first, then by posted_at descending.
// Listings without posted_at sort last within their tier.
func SortFeed(listings []models.Listing) {
	sort.SliceStable(listings, func(i, j int) bool {
		a, b := listings[i], listings[j]
		if a.IsPremium() != b.IsPremium() {
			return a.IsPremium()
		}
		switch {
		case a.PostedAt == nil:
			return false
		case b.PostedAt == nil:
			return true
		}
		return a.PostedAt.After(*b.PostedAt)
	})
}
