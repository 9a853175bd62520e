package worker

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
)

// ErrStopped is returned by Submit once the dispatcher has been stopped.
var ErrStopped = errors.New("dispatcher stopped")

// Job represents a unit of work to be executed.
type Job interface {
	Execute(ctx context.Context) error // The method that performs the actual work
	ID() string                        // A unique identifier for the job
}

// Worker pulls jobs from the dispatcher queue until it is closed.
type Worker struct {
	ID       int
	JobQueue <-chan Job
	Wg       *sync.WaitGroup
	log      logrus.FieldLogger
}

// NewWorker creates a new Worker.
func NewWorker(id int, jobQueue <-chan Job, wg *sync.WaitGroup, log logrus.FieldLogger) Worker {
	return Worker{
		ID:       id,
		JobQueue: jobQueue,
		Wg:       wg,
		log:      log,
	}
}

// Start makes the Worker process jobs in its own goroutine. Jobs still queued
// when ctx is canceled are executed with the canceled context so that they
// fail fast instead of being dropped silently.
func (w Worker) Start(ctx context.Context) {
	w.Wg.Add(1)
	go func() {
		defer w.Wg.Done()
		for job := range w.JobQueue {
			entry := w.log.WithFields(logrus.Fields{"worker": w.ID, "job_id": job.ID()})
			if err := job.Execute(ctx); err != nil {
				entry.WithError(err).Warn("Job failed")
				continue
			}
			entry.Debug("Job finished")
		}
	}()
}

// Dispatcher manages a fixed pool of workers fed from one buffered queue.
type Dispatcher struct {
	MaxWorkers int
	JobQueue   chan Job

	wg      sync.WaitGroup
	mu      sync.RWMutex
	stopped bool
	log     logrus.FieldLogger
}

// NewDispatcher creates a new Dispatcher. maxWorkers below one is treated as one.
func NewDispatcher(maxWorkers int, jobQueueSize int, log logrus.FieldLogger) *Dispatcher {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if jobQueueSize < 0 {
		jobQueueSize = 0
	}
	return &Dispatcher{
		MaxWorkers: maxWorkers,
		JobQueue:   make(chan Job, jobQueueSize),
		log:        log,
	}
}

// Run starts the workers.
func (d *Dispatcher) Run(ctx context.Context) {
	for i := 1; i <= d.MaxWorkers; i++ {
		NewWorker(i, d.JobQueue, &d.wg, d.log).Start(ctx)
	}
	d.log.WithField("workers", d.MaxWorkers).Debug("Dispatcher running")
}

// Submit queues a job, blocking while the queue is full.
func (d *Dispatcher) Submit(ctx context.Context, job Job) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		return ErrStopped
	}
	select {
	case d.JobQueue <- job:
		return nil
	case <-ctx.Done():
		return errors.Wrapf(ctx.Err(), "submitting job %s", job.ID())
	}
}

// Stop closes the queue and waits until every queued job has run.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.JobQueue)
	d.mu.Unlock()

	d.wg.Wait()
	d.log.Debug("Dispatcher drained")
}
