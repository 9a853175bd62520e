package reconcile

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"github.com/geotsn/aggeliesergasias/internal/checkout"
	"github.com/geotsn/aggeliesergasias/internal/worker"
)

// Sweep lists the sessions created within window (the configured window when
// zero), and activates every pending listing they paid for. A provider error
// aborts the sweep; per-session problems are counted and logged.
func (r *Reconciler) Sweep(ctx context.Context, window time.Duration) (Summary, error) {
	if window <= 0 {
		window = r.cfg.Window
	}
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	since := r.now().Add(-window)
	sessions, err := r.provider.ListSessions(ctx, since)
	if err != nil {
		r.log.WithError(err).Error("Sweep aborted: could not list checkout sessions")
		return Summary{}, errors.Wrap(err, "sweep")
	}

	summary := Summary{Scanned: len(sessions)}
	var jobs []*activationJob
	seen := make(map[string]bool)

	for _, s := range sessions {
		raw := referenceOf(s)
		if !s.IsPaid() || raw == "" {
			continue
		}
		summary.Paid++

		ref, err := checkout.DecodeReference(raw)
		if err != nil {
			summary.Skipped++
			r.log.WithError(err).WithField("session_id", s.ID).Warn("Skipping session with undecodable reference")
			continue
		}

		key := dedupKey(ref)
		if seen[key] {
			continue
		}
		seen[key] = true
		jobs = append(jobs, &activationJob{r: r, key: key, ref: ref})
	}

	d := worker.NewDispatcher(r.cfg.Workers, len(jobs), r.log)
	d.Run(ctx)
	for _, job := range jobs {
		if err := d.Submit(ctx, job); err != nil {
			// the queue is sized for every job, so this only happens on cancellation
			job.mu.Lock()
			job.err = err
			job.mu.Unlock()
		}
	}
	d.Stop()

	ids := make(map[string]bool)
	for _, job := range jobs {
		out, err := job.result()
		if out.matched {
			summary.Matched++
			ids[out.listingID] = true
		}
		summary.Activated += out.changed
		if err != nil {
			summary.Failed++
		}
	}
	summary.Unique = len(ids)

	r.log.WithFields(logrus.Fields{
		"scanned":   summary.Scanned,
		"paid":      summary.Paid,
		"matched":   summary.Matched,
		"activated": summary.Activated,
		"skipped":   summary.Skipped,
		"failed":    summary.Failed,
		"window":    window.String(),
	}).Info("Reconciliation sweep finished")
	return summary, nil
}

// Watch runs Sweep every interval until ctx is canceled. Sweep errors are
// logged and retried on the next tick.
func (r *Reconciler) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.log.WithField("interval", interval.String()).Info("Periodic reconciliation started")
	if _, err := r.Sweep(ctx, 0); err != nil {
		r.log.WithError(err).Warn("Initial sweep failed")
	}

	for {
		select {
		case <-ctx.Done():
			r.log.Info("Periodic reconciliation stopped")
			return
		case <-ticker.C:
			if _, err := r.Sweep(ctx, 0); err != nil {
				r.log.WithError(err).Warn("Sweep failed, retrying next tick")
			}
		}
	}
}
