package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"survai/internal/cache"
	"survai/internal/config"
	"survai/internal/logger"
	"survai/internal/model"
	"survai/internal/service"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var (
	ErrQueueFull     = errors.New("job queue is full")
	ErrJobInProgress = errors.New("a job for this survey is already running")
	ErrRunnerStopped = errors.New("job runner stopped")
)

// lockMargin is added to a job's ceiling when sizing its lock TTL
const lockMargin = time.Minute

// Job is one unit of background work for a survey
type Job interface {
	ID() string
	SurveyID() string
	Operation() model.Operation
	// Ceiling bounds how long the job may hold its lock
	Ceiling() time.Duration
	Run(ctx context.Context, t *Tracker) error
}

// NewJobID returns a short id for log correlation
func NewJobID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}

// queuedJob carries the tracker that already published the queued event
type queuedJob struct {
	job     Job
	tracker *Tracker
}

// Runner is a bounded queue served by a fixed pool of workers. Each worker
// runs one job to completion before taking the next.
type Runner struct {
	queue       chan queuedJob
	enqueueMu   sync.Mutex
	concurrency int
	events      service.Broadcaster
	lock        cache.JobLock
	log         *logger.Logger
	now         func() time.Time

	stopped chan struct{}
}

// NewRunner creates a runner. lock may be nil to allow duplicate jobs.
func NewRunner(cfg config.JobsConfig, events service.Broadcaster, lock cache.JobLock, log *logger.Logger) *Runner {
	if log == nil {
		log = logger.Nop()
	}
	if events == nil {
		events = service.NopBroadcaster{}
	}
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	size := cfg.QueueSize
	if size < 1 {
		size = 1
	}
	return &Runner{
		queue:       make(chan queuedJob, size),
		concurrency: concurrency,
		events:      events,
		lock:        lock,
		log:         log.With("service", "JobRunner"),
		now:         time.Now,
		stopped:     make(chan struct{}),
	}
}

// Enqueue schedules job and publishes a queued event. It never blocks:
// a full queue yields ErrQueueFull, a running duplicate ErrJobInProgress.
func (r *Runner) Enqueue(ctx context.Context, job Job) error {
	select {
	case <-r.stopped:
		return ErrRunnerStopped
	default:
	}

	if r.lock != nil {
		ok, err := r.lock.Acquire(ctx, job.SurveyID(), job.Operation(), job.ID(), job.Ceiling()+lockMargin)
		if err != nil {
			return fmt.Errorf("acquire job lock: %w", err)
		}
		if !ok {
			return ErrJobInProgress
		}
	}

	// Workers only drain the queue, so a free slot seen under enqueueMu is
	// still free at the send. Queued goes out before any worker can see the job.
	r.enqueueMu.Lock()
	defer r.enqueueMu.Unlock()
	if len(r.queue) == cap(r.queue) {
		r.release(job)
		return ErrQueueFull
	}
	t := r.tracker(job)
	t.Queued()
	r.queue <- queuedJob{job: job, tracker: t}

	r.log.Info("job queued", "jobId", job.ID(), "surveyId", job.SurveyID(), "operation", job.Operation())
	return nil
}

// Run starts the workers and blocks until ctx is cancelled and every
// in-flight job has returned
func (r *Runner) Run(ctx context.Context) error {
	r.log.Info("starting job worker pool", "concurrency", r.concurrency, "queueSize", cap(r.queue))
	defer close(r.stopped)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < r.concurrency; i++ {
		workerID := i + 1
		g.Go(func() error {
			r.loop(gctx, workerID)
			return nil
		})
	}
	return g.Wait()
}

func (r *Runner) loop(ctx context.Context, workerID int) {
	for {
		select {
		case <-ctx.Done():
			r.log.Debug("worker stopped", "worker", workerID)
			return
		case q := <-r.queue:
			r.execute(ctx, workerID, q.job, q.tracker)
		}
	}
}

func (r *Runner) tracker(job Job) *Tracker {
	return newTracker(job.ID(), job.SurveyID(), job.Operation(), r.events, r.now)
}

// execute runs one job. Errors and panics become error events; nothing
// escapes to the worker.
func (r *Runner) execute(ctx context.Context, workerID int, job Job, t *Tracker) {
	log := r.log.With("jobId", job.ID(), "surveyId", job.SurveyID(), "operation", job.Operation(), "worker", workerID)
	start := r.now()

	defer r.release(job)
	defer func() {
		if p := recover(); p != nil {
			log.Error("job panicked", "panic", p)
			t.Fail("Unexpected error while processing the job.")
		}
	}()

	log.Info("job started")
	if err := job.Run(ctx, t); err != nil {
		log.Error("job failed", "error", err, "elapsed", r.now().Sub(start))
		t.Fail(userMessage(err))
		return
	}
	if !t.Done() {
		t.Complete("Done", nil, 0)
	}
	log.Info("job finished", "elapsed", r.now().Sub(start))
}

func (r *Runner) release(job Job) {
	if r.lock == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.lock.Release(ctx, job.SurveyID(), job.Operation(), job.ID()); err != nil {
		r.log.Warn("release job lock failed", "jobId", job.ID(), "error", err)
	}
}

// userMessage picks the text shown to subscribers for a failed job
func userMessage(err error) string {
	var (
		ierr *service.InputError
		derr *service.DataError
	)
	switch {
	case errors.Is(err, ErrJobTimeout):
		return TimeoutMessage
	case errors.As(err, &ierr):
		return ierr.Message
	case errors.As(err, &derr):
		return derr.Error()
	case errors.Is(err, service.ErrSurveyNotFound):
		return "Survey not found."
	case errors.Is(err, context.Canceled):
		return "Job cancelled."
	}
	return err.Error()
}
