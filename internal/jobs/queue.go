// Package jobs runs optimizations in the background on a persisted queue.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/piwi3910/barcut/internal/model"
)

// Defaults for the worker pool.
const (
	DefaultQueue   = "long"
	DefaultWorkers = 2
	DefaultTimeout = 1500 * time.Second

	pollInterval = time.Second
)

// ErrUnknownKind is returned for a job whose kind has no registered handler.
var ErrUnknownKind = errors.New("unknown job kind")

// JobStore persists jobs.
type JobStore interface {
	CreateJob(ctx context.Context, j model.Job) error
	GetJob(ctx context.Context, id string) (model.Job, error)
	ClaimNextJob(ctx context.Context, queue string, at time.Time) (model.Job, bool, error)
	FinishJob(ctx context.Context, id string, output []byte, at time.Time) error
	FailJob(ctx context.Context, id, message string, at time.Time) error
	RequeueJob(ctx context.Context, id string) error
	PendingJobs(ctx context.Context, queue string) ([]model.Job, error)
}

// Observer is told when jobs start and end.
type Observer interface {
	JobStarted(kind string)
	JobFinished(kind string, status model.JobStatus, elapsed time.Duration)
}

// Handler runs one job. The returned value is stored as the job output.
type Handler func(ctx context.Context, job model.Job) (any, error)

// Options configures a Queue.
type Options struct {
	Queue   string
	Workers int
	Timeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.Queue == "" {
		o.Queue = DefaultQueue
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

// Queue is a bounded worker pool over a persisted job table. Delivery is at
// least once: jobs interrupted by a shutdown are run again on the next start.
type Queue struct {
	store    JobStore
	opts     Options
	handlers map[string]Handler
	log      *zap.SugaredLogger
	observer Observer
	wake     chan struct{}
	now      func() time.Time
}

func NewQueue(store JobStore, opts Options, log *zap.SugaredLogger) *Queue {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	opts = opts.withDefaults()
	return &Queue{
		store:    store,
		opts:     opts,
		handlers: make(map[string]Handler),
		log:      log,
		wake:     make(chan struct{}, opts.Workers),
		now:      time.Now,
	}
}

// WithObserver sets the receiver of job notifications.
func (q *Queue) WithObserver(obs Observer) *Queue {
	q.observer = obs
	return q
}

// Register sets the handler for a job kind. It must be called before Run.
func (q *Queue) Register(kind string, h Handler) {
	q.handlers[kind] = h
}

// Enqueue persists a queued job and wakes a worker. It returns the job id.
func (q *Queue) Enqueue(ctx context.Context, kind string, payload any, user string) (string, error) {
	if _, ok := q.handlers[kind]; !ok {
		return "", fmt.Errorf("%s: %w", kind, ErrUnknownKind)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode payload: %w", err)
	}
	job := model.Job{
		ID:         uuid.NewString(),
		Kind:       kind,
		Queue:      q.opts.Queue,
		User:       user,
		Status:     model.JobQueued,
		Payload:    data,
		EnqueuedAt: q.now().UTC(),
	}
	if err := q.store.CreateJob(ctx, job); err != nil {
		return "", fmt.Errorf("failed to enqueue job: %w", err)
	}
	q.log.Infow("job enqueued", "job_id", job.ID, "kind", kind, "user", user)

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return job.ID, nil
}

// Get returns the pollable view of a job.
func (q *Queue) Get(ctx context.Context, id string) (model.JobResult, error) {
	job, err := q.store.GetJob(ctx, id)
	if err != nil {
		return model.JobResult{}, err
	}
	res := model.JobResult{Status: job.Status, Error: job.Error}
	if len(job.Output) > 0 {
		res.Output = json.RawMessage(job.Output)
	}
	return res, nil
}

// Run re-queues interrupted jobs and then processes the queue until ctx is
// cancelled. Running jobs see the cancellation through their context and
// are put back into the queue.
func (q *Queue) Run(ctx context.Context) error {
	if err := q.requeueInterrupted(ctx); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < q.opts.Workers; i++ {
		worker := i
		g.Go(func() error {
			q.work(ctx, worker)
			return nil
		})
	}
	return g.Wait()
}

// requeueInterrupted puts jobs left in the started state back into the queue.
func (q *Queue) requeueInterrupted(ctx context.Context) error {
	pending, err := q.store.PendingJobs(ctx, q.opts.Queue)
	if err != nil {
		return fmt.Errorf("failed to list pending jobs: %w", err)
	}
	for _, job := range pending {
		if job.Status != model.JobStarted {
			continue
		}
		if err := q.store.RequeueJob(ctx, job.ID); err != nil {
			return fmt.Errorf("failed to requeue job %s: %w", job.ID, err)
		}
		q.log.Warnw("requeued interrupted job", "job_id", job.ID, "kind", job.Kind, "attempts", job.Attempts)
	}
	return nil
}

func (q *Queue) work(ctx context.Context, worker int) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		for ctx.Err() == nil {
			job, ok, err := q.store.ClaimNextJob(ctx, q.opts.Queue, q.now().UTC())
			if err != nil {
				if ctx.Err() == nil {
					q.log.Errorw("failed to claim job", "worker", worker, "error", err)
				}
				break
			}
			if !ok {
				break
			}
			q.process(ctx, job)
		}

		select {
		case <-ctx.Done():
			return
		case <-q.wake:
		case <-ticker.C:
		}
	}
}

func (q *Queue) process(ctx context.Context, job model.Job) {
	start := time.Now()
	log := q.log.With("job_id", job.ID, "kind", job.Kind, "attempt", job.Attempts)
	log.Infow("job started")
	if q.observer != nil {
		q.observer.JobStarted(job.Kind)
	}

	output, err := q.run(ctx, job)
	status := model.JobFinished
	// The job record is written even when the pool is shutting down.
	writeCtx := context.WithoutCancel(ctx)
	if ctx.Err() != nil {
		// Shutdown interrupted the job; whatever it returned is discarded and
		// the job runs again on the next start.
		status = model.JobQueued
		log.Warnw("job interrupted by shutdown", "elapsed", time.Since(start))
		if rerr := q.store.RequeueJob(writeCtx, job.ID); rerr != nil {
			log.Errorw("failed to requeue interrupted job", "error", rerr)
		}
	} else if err != nil {
		status = model.JobFailed
		log.Errorw("job failed", "error", err, "elapsed", time.Since(start))
		if ferr := q.store.FailJob(writeCtx, job.ID, err.Error(), q.now().UTC()); ferr != nil {
			log.Errorw("failed to record job failure", "error", ferr)
		}
	} else {
		log.Infow("job finished", "elapsed", time.Since(start))
		if ferr := q.store.FinishJob(writeCtx, job.ID, output, q.now().UTC()); ferr != nil {
			log.Errorw("failed to record job result", "error", ferr)
		}
	}

	if q.observer != nil {
		q.observer.JobFinished(job.Kind, status, time.Since(start))
	}
}

// Interrupted reports whether a handler's context was cancelled by a queue
// shutdown, as opposed to the job timeout.
func Interrupted(ctx context.Context) bool {
	return errors.Is(ctx.Err(), context.Canceled)
}

// run calls the handler under the job timeout and encodes its output.
func (q *Queue) run(ctx context.Context, job model.Job) (output []byte, err error) {
	h, ok := q.handlers[job.Kind]
	if !ok {
		return nil, fmt.Errorf("%s: %w", job.Kind, ErrUnknownKind)
	}

	ctx, cancel := context.WithTimeout(ctx, q.opts.Timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			q.log.Errorw("job panicked", "job_id", job.ID, "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()

	result, err := h(ctx, job)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	return json.Marshal(result)
}
