package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cab-route-estimator/internal/models"
)

// MemoryStore is an in-process Store used in tests and as a fallback when
// no database path is configured. All methods copy jobs on the way in and
// out, so pollers can never observe a worker's in-flight mutation.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*models.Job
}

// NewMemoryStore creates an empty in-memory job store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*models.Job)}
}

func (s *MemoryStore) Create(ctx context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.JobID]; ok {
		return fmt.Errorf("jobs: job %s already exists", job.JobID)
	}
	clone := *job
	s.jobs[job.JobID] = &clone
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, jobID string) (*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	clone := *job
	return &clone, nil
}

func (s *MemoryStore) Claim(ctx context.Context, jobID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	if job.Status != models.JobQueued {
		return false, nil
	}
	job.Status = models.JobRunning
	job.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (s *MemoryStore) SetProgress(ctx context.Context, jobID string, progress int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	if job.Status.Terminal() || progress <= job.Progress {
		return nil
	}
	if progress > 100 {
		progress = 100
	}
	job.Progress = progress
	job.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) Complete(ctx context.Context, jobID string, result *models.RouteResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	if job.Status.Terminal() {
		return nil
	}
	job.Status = models.JobCompleted
	job.Progress = 100
	job.Result = result
	job.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) Fail(ctx context.Context, jobID string, diagnostic string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	if job.Status.Terminal() {
		return nil
	}
	job.Status = models.JobFailed
	job.Diagnostic = diagnostic
	job.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) NextQueued(ctx context.Context) (*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var oldest *models.Job
	for _, job := range s.jobs {
		if job.Status != models.JobQueued {
			continue
		}
		if oldest == nil || job.CreatedAt.Before(oldest.CreatedAt) {
			oldest = job
		}
	}
	if oldest == nil {
		return nil, nil
	}
	clone := *oldest
	return &clone, nil
}
