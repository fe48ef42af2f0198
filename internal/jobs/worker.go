package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"
)

const (
	maxAttempts     = 3
	baseBackoff     = 30 * time.Second
	maxBackoff      = 10 * time.Minute
	defaultInterval = 5 * time.Second
)

// HandlerFunc processes one job payload. A returned error schedules a retry
// until the attempt budget is spent.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) error

type Worker struct {
	store    Store
	handlers map[string]HandlerFunc
	interval time.Duration
	logger   *log.Logger
	now      func() time.Time
}

func NewWorker(store Store, logger *log.Logger) *Worker {
	if logger == nil {
		logger = log.Default()
	}
	return &Worker{
		store:    store,
		handlers: make(map[string]HandlerFunc),
		interval: defaultInterval,
		logger:   logger,
		now:      time.Now,
	}
}

func (w *Worker) Register(jobType string, handler HandlerFunc) {
	w.handlers[jobType] = handler
}

// Run polls the queue until the context is cancelled, draining all runnable
// jobs on every tick.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

func (w *Worker) drain(ctx context.Context) {
	for {
		if err := w.RunOnce(ctx); err != nil {
			if !errors.Is(err, ErrNoJob) {
				w.logger.Printf("job queue poll failed: %v", err)
			}
			return
		}
	}
}

// RunOnce claims and processes a single job. Returns ErrNoJob when the queue
// has nothing runnable.
func (w *Worker) RunOnce(ctx context.Context) error {
	job, err := w.store.ClaimNext(ctx)
	if err != nil {
		return err
	}

	handler, ok := w.handlers[job.Type]
	if !ok {
		w.logger.Printf("no handler registered for job type %q, failing job %s", job.Type, job.ID)
		return w.store.MarkFailed(ctx, job.ID, job.Attempts+1, w.now(), StatusFailed, "no handler registered")
	}

	if err := handler(ctx, job.Payload); err != nil {
		attempts := job.Attempts + 1
		if attempts >= maxAttempts {
			w.logger.Printf("job %s (%s) failed permanently after %d attempts: %v", job.ID, job.Type, attempts, err)
			return w.store.MarkFailed(ctx, job.ID, attempts, w.now(), StatusFailed, err.Error())
		}
		retryAt := w.now().Add(backoff(attempts))
		w.logger.Printf("job %s (%s) failed (attempt %d), retrying at %s: %v", job.ID, job.Type, attempts, retryAt.Format(time.RFC3339), err)
		return w.store.MarkFailed(ctx, job.ID, attempts, retryAt, StatusPending, err.Error())
	}

	return w.store.MarkCompleted(ctx, job.ID)
}

// backoff doubles per attempt, capped.
func backoff(attempts int) time.Duration {
	d := baseBackoff
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
