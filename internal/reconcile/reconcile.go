// Package reconcile activates premium listings whose payment went through.
//
// It runs either as a pull sweep over recent checkout sessions or as a push
// handler for verified webhook events. Both paths end in the same
// conditional update, which only matches rows still pending, so repeated or
// concurrent deliveries of the same payment activate a listing at most once.
package reconcile

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"github.com/geotsn/aggeliesergasias/internal/checkout"
	"github.com/geotsn/aggeliesergasias/internal/payment"
	"github.com/geotsn/aggeliesergasias/internal/store"
	"github.com/geotsn/aggeliesergasias/models"
)

// ErrStore marks store failures while activating; webhook callers answer
// with a 5xx so the provider redelivers.
var ErrStore = errors.New("reconciliation store failure")

// Config tunes the sweep.
type Config struct {
	Window  time.Duration
	Timeout time.Duration
	Workers int
}

// DefaultConfig sweeps the last 24 hours with four workers and a one minute cap.
func DefaultConfig() Config {
	return Config{
		Window:  24 * time.Hour,
		Timeout: time.Minute,
		Workers: 4,
	}
}

// Summary aggregates one sweep.
type Summary struct {
	Scanned   int `json:"scanned"`
	Paid      int `json:"paid"`
	Matched   int `json:"matched"`
	Unique    int `json:"unique"`
	Activated int `json:"activated"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// Reconciler drives both reconciliation variants.
type Reconciler struct {
	store    store.Store
	provider payment.Provider
	cfg      Config
	now      func() time.Time
	log      logrus.FieldLogger
}

// New creates a Reconciler.
func New(s store.Store, provider payment.Provider, cfg Config, log logrus.FieldLogger) *Reconciler {
	if cfg.Window <= 0 {
		cfg.Window = DefaultConfig().Window
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Reconciler{store: s, provider: provider, cfg: cfg, now: time.Now, log: log}
}

// WithClock replaces the time source; used by tests.
func (r *Reconciler) WithClock(now func() time.Time) *Reconciler {
	r.now = now
	return r
}

// outcome is the result of resolving and activating one reference.
type outcome struct {
	listingID string
	matched   bool
	changed   int
}

// apply resolves a reference to a listing id and performs the conditional
// update. A reference that resolves to nothing is not an error.
func (r *Reconciler) apply(ctx context.Context, ref checkout.Reference) (outcome, error) {
	id := ref.ID
	if !ref.HasID() {
		source := ref.Source
		if source == "" {
			source = models.SourceWeb
		}
		found, err := r.store.FindPendingMatch(ctx, source, ref.Title, ref.Company)
		switch {
		case errors.Is(err, store.ErrNotFound):
			r.log.WithFields(logrus.Fields{
				"title":   ref.Title,
				"company": ref.Company,
			}).Warn("No pending listing matches reference")
			return outcome{}, nil
		case err != nil:
			return outcome{}, errors.Mark(errors.Wrap(err, "matching reference"), ErrStore)
		}
		id = found
	}

	n, err := r.store.ActivatePending(ctx, id, r.now())
	if err != nil {
		return outcome{listingID: id, matched: true}, errors.Mark(err, ErrStore)
	}
	return outcome{listingID: id, matched: true, changed: n}, nil
}

// referenceOf extracts the client reference, falling back to the listing id
// stored in session metadata.
func referenceOf(s payment.Session) string {
	if s.ClientReference != "" {
		return s.ClientReference
	}
	return s.Metadata[checkout.MetadataListingID]
}

// activationJob adapts one reference to the worker pool.
type activationJob struct {
	r   *Reconciler
	key string
	ref checkout.Reference

	mu  sync.Mutex
	out outcome
	err error
}

func (j *activationJob) ID() string { return j.key }

func (j *activationJob) Execute(ctx context.Context) error {
	out, err := j.r.apply(ctx, j.ref)
	j.mu.Lock()
	j.out, j.err = out, err
	j.mu.Unlock()
	return err
}

func (j *activationJob) result() (outcome, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.out, j.err
}

func dedupKey(ref checkout.Reference) string {
	if ref.HasID() {
		return "id:" + ref.ID
	}
	return "match:" + ref.Source + "|" + ref.Title + "|" + ref.Company
}
