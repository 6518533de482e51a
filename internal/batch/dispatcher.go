package batch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Job is one unit of work for the dispatcher: a single document to process.
type Job struct {
	DocumentID uuid.UUID
	EnqueuedAt time.Time
}

// Dispatcher runs documents through the controller on a fixed worker pool.
// Enqueue applies backpressure by blocking when the buffer is full.
type Dispatcher struct {
	ctrl    *Controller
	log     *slog.Logger
	workers int
	timeout time.Duration

	jobs chan Job
	wg   sync.WaitGroup

	mu     sync.Mutex
	closed bool
	once   sync.Once
}

type Option func(*Dispatcher)

func WithWorkers(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.jobs = make(chan Job, n)
		}
	}
}

// WithProcessTimeout bounds how long one document may spend in extraction.
func WithProcessTimeout(t time.Duration) Option {
	return func(d *Dispatcher) {
		if t > 0 {
			d.timeout = t
		}
	}
}

func NewDispatcher(ctrl *Controller, log *slog.Logger, opts ...Option) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	d := &Dispatcher{
		ctrl:    ctrl,
		log:     log,
		workers: 4,
		timeout: 3 * time.Minute,
		jobs:    make(chan Job, 256),
	}
	for _, opt := range opts {
		opt(d)
	}

	d.wg.Add(d.workers)
	for i := 0; i < d.workers; i++ {
		go d.worker(i)
	}
	d.log.Info("dispatcher started", "workers", d.workers, "queue_size", cap(d.jobs))
	return d
}

// Enqueue submits one document. It blocks while the buffer is full and
// returns the context error if the caller gives up first. The send happens
// under the mutex so Shutdown can never close the channel mid-send.
func (d *Dispatcher) Enqueue(ctx context.Context, documentID uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return errors.New("dispatcher is shut down")
	}

	select {
	case d.jobs <- Job{DocumentID: documentID, EnqueuedAt: time.Now()}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dispatch starts (or resumes) processing of a batch and enqueues every
// pending document. It returns the number of documents enqueued.
func (d *Dispatcher) Dispatch(ctx context.Context, batchID uuid.UUID) (int, error) {
	docs, err := d.ctrl.BeginDispatch(ctx, batchID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, doc := range docs {
		if err := d.Enqueue(ctx, doc.ID); err != nil {
			return n, err
		}
		n++
	}
	d.log.Info("batch dispatched", "batch_id", batchID, "documents", n)
	return n, nil
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	for job := range d.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		start := time.Now()
		err := d.ctrl.ProcessDocument(ctx, job.DocumentID)
		cancel()
		if err != nil {
			d.log.Error("document processing errored",
				"worker", id,
				"document_id", job.DocumentID,
				"queued_for", time.Since(job.EnqueuedAt).String(),
				"error", err,
			)
			continue
		}
		d.log.Debug("document processed",
			"worker", id,
			"document_id", job.DocumentID,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}
}

// Shutdown stops intake, drains queued jobs and waits for the workers, or
// returns the context error if the deadline passes first.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.once.Do(func() {
		// Taking the mutex waits out any sender still inside Enqueue, so the
		// close below cannot race a send.
		d.mu.Lock()
		d.closed = true
		close(d.jobs)
		d.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		d.log.Info("dispatcher stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
