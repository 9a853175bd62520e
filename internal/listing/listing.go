// Package listing owns the lifecycle policy of job listings and the direct
// insert path used by free postings.
package listing

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"github.com/geotsn/aggeliesergasias/internal/intake"
	"github.com/geotsn/aggeliesergasias/internal/store"
	"github.com/geotsn/aggeliesergasias/models"
)

var (
	// ErrStore marks failures of the underlying listing store.
	ErrStore = errors.New("listing store failure")
	// ErrPremiumNeedsCheckout is returned when a premium posting is sent to the free path.
	ErrPremiumNeedsCheckout = errors.New("premium listings must go through checkout")
)

// Policy holds the lifecycle durations.
type Policy struct {
	FreeDuration    time.Duration
	PremiumDuration time.Duration
	// LocalShift is added to posted_at so that it reads as local posting time.
	LocalShift time.Duration
}

// DefaultPolicy: free listings run 10 days, premium 30, posted_at is shifted +2h.
func DefaultPolicy() Policy {
	return Policy{
		FreeDuration:    10 * 24 * time.Hour,
		PremiumDuration: 30 * 24 * time.Hour,
		LocalShift:      2 * time.Hour,
	}
}

// NewListing turns a validated posting into the row to insert. Free listings
// start active; premium listings start inactive with a pending payment. Both
// expiry dates are fixed here, at creation time.
func (p Policy) NewListing(posting intake.Posting, now time.Time, origin string) models.Listing {
	now = now.UTC()
	l := models.Listing{
		Title:       posting.Title,
		Company:     posting.Company,
		Location:    posting.Location,
		Description: posting.Description,
		Category:    models.StringPtr(string(posting.Category)),
		Phone:       models.StringPtr(posting.Phone),
		Email:       models.StringPtr(posting.Email),
		Type:        posting.Type,
		PostedAt:    models.TimePtr(now.Add(p.LocalShift)),
		Source:      models.SourceWeb,
		URL:         origin,
	}
	if posting.Salary != "" {
		l.Salary = models.StringPtr(posting.Salary)
	}

	switch posting.Type {
	case models.ListingPremium:
		l.IsActive = false
		l.PaymentStatus = models.PaymentStatusPtr(models.PaymentPending)
		l.ExpiresAt = models.TimePtr(now.Add(p.PremiumDuration))
	default:
		l.Type = models.ListingFree
		l.IsActive = true
		l.ExpiresAt = models.TimePtr(now.Add(p.FreeDuration))
	}

	applyTranslations(&l, posting.Translations)
	return l
}

func applyTranslations(l *models.Listing, tr map[models.Locale]intake.Translation) {
	set := func(dst **string, v string) {
		if v != "" {
			*dst = models.StringPtr(v)
		}
	}
	for loc, t := range tr {
		switch loc {
		case models.LocaleEN:
			set(&l.TitleEN, t.Title)
			set(&l.DescriptionEN, t.Description)
		case models.LocaleZH:
			set(&l.TitleZH, t.Title)
			set(&l.DescriptionZH, t.Description)
		case models.LocaleRU:
			set(&l.TitleRU, t.Title)
			set(&l.DescriptionRU, t.Description)
		case models.LocaleES:
			set(&l.TitleES, t.Title)
			set(&l.DescriptionES, t.Description)
		case models.LocaleDE:
			set(&l.TitleDE, t.Title)
			set(&l.DescriptionDE, t.Description)
		}
	}
}

// Service accepts free postings.
type Service struct {
	store  store.Store
	policy Policy
	now    func() time.Time
	log    logrus.FieldLogger
}

// NewService wires the free posting path.
func NewService(s store.Store, policy Policy, log logrus.FieldLogger) *Service {
	return &Service{store: s, policy: policy, now: time.Now, log: log}
}

// WithClock replaces the time source; used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Submit validates the payload and stores it as an active free listing.
// Validation failures come back as *intake.ValidationError.
func (s *Service) Submit(ctx context.Context, payload intake.Payload, origin string) (models.Listing, error) {
	posting, err := intake.Validate(payload)
	if err != nil {
		return models.Listing{}, err
	}
	if posting.Type == models.ListingPremium {
		return models.Listing{}, ErrPremiumNeedsCheckout
	}

	row := s.policy.NewListing(posting, s.now(), origin)
	created, err := s.store.Insert(ctx, row)
	if err != nil {
		s.log.WithError(err).WithField("title", row.Title).Error("Failed to store free listing")
		return models.Listing{}, errors.Mark(errors.Wrap(err, "storing free listing"), ErrStore)
	}

	s.log.WithFields(logrus.Fields{
		"listing_id": created.ID,
		"category":   created.CategoryValue(),
	}).Info("Free listing published")
	return created, nil
}
