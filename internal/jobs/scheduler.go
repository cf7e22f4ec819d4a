package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"cab-route-estimator/internal/models"
)

// Task computes the result for a claimed job. report raises the job's
// progress (the store keeps it monotonic). The context carries the job's
// execution budget; tasks must honor cancellation.
type Task func(ctx context.Context, job *models.Job, report func(progress int)) (*models.RouteResult, error)

// Config carries the scheduler tunables
type Config struct {
	Workers      int
	JobTimeout   time.Duration
	PollInterval time.Duration

	// Classify maps a task error to a diagnostic category. Optional; an
	// empty return falls back to WorkerFailure. Timeouts are classified
	// before Classify is consulted.
	Classify func(err error) string
}

// Scheduler runs jobs on a worker pool separate from the request path.
// Submission persists the job and returns immediately; workers claim jobs
// via the store's atomic queued->running transition, so a job nudged over
// the channel and simultaneously found by a poll still runs exactly once.
type Scheduler struct {
	store Store
	task  Task
	cfg   Config

	nudge chan string
	quit  chan struct{}
	wg    sync.WaitGroup
}

// NewScheduler creates a scheduler; Start launches the workers.
func NewScheduler(store Store, task Task, cfg Config) *Scheduler {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 60 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	return &Scheduler{
		store: store,
		task:  task,
		cfg:   cfg,
		nudge: make(chan string, 64),
		quit:  make(chan struct{}),
	}
}

// Start launches the worker pool
func (s *Scheduler) Start() {
	log.Printf("[JOBS] Starting scheduler: workers=%d timeout=%s", s.cfg.Workers, s.cfg.JobTimeout)
	for i := 0; i < s.cfg.Workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
}

// Stop shuts the workers down, waiting for in-flight jobs up to the
// context deadline.
func (s *Scheduler) Stop(ctx context.Context) error {
	close(s.quit)
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit creates a queued job for the request and returns it immediately;
// the computation happens on a worker.
func (s *Scheduler) Submit(ctx context.Context, req models.RouteRequest) (*models.Job, error) {
	now := time.Now().UTC()
	job := &models.Job{
		JobID:     "job_" + uuid.NewString()[:8],
		UserID:    req.UserID,
		Status:    models.JobQueued,
		Params:    req,
		Progress:  0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to persist job: %w", err)
	}
	log.Printf("[JOBS] Submitted job: job_id=%s user_id=%s stops=%d", job.JobID, job.UserID, len(req.Stops))

	select {
	case s.nudge <- job.JobID:
	default:
		// Channel full; the periodic poll will pick the job up.
	}
	return job, nil
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.quit:
			return
		case jobID := <-s.nudge:
			s.runJob(jobID)
		case <-ticker.C:
			job, err := s.store.NextQueued(context.Background())
			if err != nil {
				log.Printf("[ERROR] Worker %d failed to poll queue: err=%v", id, err)
				continue
			}
			if job != nil {
				s.runJob(job.JobID)
			}
		}
	}
}

// runJob claims and executes one job. Losing the claim is not an error:
// another worker got there first.
func (s *Scheduler) runJob(jobID string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.JobTimeout)
	defer cancel()

	claimed, err := s.store.Claim(ctx, jobID)
	if err != nil {
		log.Printf("[ERROR] Failed to claim job: job_id=%s err=%v", jobID, err)
		return
	}
	if !claimed {
		return
	}

	job, err := s.store.Get(ctx, jobID)
	if err != nil {
		log.Printf("[ERROR] Failed to load claimed job: job_id=%s err=%v", jobID, err)
		return
	}

	log.Printf("[WORKER] Processing job: job_id=%s", jobID)
	result, err := s.execute(ctx, job)
	if err != nil {
		diagnostic := DiagnosticWorkerFailure
		if errors.Is(err, context.DeadlineExceeded) {
			diagnostic = DiagnosticTimeout
		} else if s.cfg.Classify != nil {
			if d := s.cfg.Classify(err); d != "" {
				diagnostic = d
			}
		}
		log.Printf("[ERROR] Job failed: job_id=%s diagnostic=%s err=%v", jobID, diagnostic, err)
		if failErr := s.store.Fail(context.Background(), jobID, diagnostic); failErr != nil {
			log.Printf("[ERROR] Failed to mark job failed: job_id=%s err=%v", jobID, failErr)
		}
		return
	}

	if err := s.store.Complete(context.Background(), jobID, result); err != nil {
		log.Printf("[ERROR] Failed to store job result: job_id=%s err=%v", jobID, err)
		return
	}
	log.Printf("[WORKER] Completed job: job_id=%s", jobID)
}

// execute runs the task with panic containment, so an uncaught fault in a
// solver surfaces as a failed job rather than tearing down the worker.
func (s *Scheduler) execute(ctx context.Context, job *models.Job) (result *models.RouteResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()

	report := func(progress int) {
		if setErr := s.store.SetProgress(ctx, job.JobID, progress); setErr != nil {
			log.Printf("[ERROR] Failed to update progress: job_id=%s err=%v", job.JobID, setErr)
		}
	}
	report(10)
	return s.task(ctx, job, report)
}
