package jobs

import (
	"context"
	"errors"

	"cab-route-estimator/internal/models"
)

// ErrJobNotFound is returned when the requested job id does not exist
var ErrJobNotFound = errors.New("jobs: job not found")

// Failure categories recorded as the job diagnostic. User-visible failure
// detail is the category plus the job id; internals stay in the logs.
const (
	DiagnosticTimeout       = "Timeout"
	DiagnosticWorkerFailure = "WorkerFailure"
	DiagnosticNoPath        = "NotFound"
	DiagnosticInvalidRef    = "InvalidReference"
)

// Store persists jobs keyed by job id. Implementations must make Claim an
// atomic queued->running transition so at most one worker executes a given
// job, must never let Progress move backward, and must never transition a
// job out of a terminal status.
type Store interface {
	// Create persists a new job; the job arrives with status queued.
	Create(ctx context.Context, job *models.Job) error

	// Get returns a snapshot of the job. Idempotent, side-effect free.
	Get(ctx context.Context, jobID string) (*models.Job, error)

	// Claim attempts the atomic queued->running transition and reports
	// whether this caller won the claim.
	Claim(ctx context.Context, jobID string) (bool, error)

	// SetProgress raises the job's progress. Lower values and writes to
	// terminal jobs are ignored.
	SetProgress(ctx context.Context, jobID string, progress int) error

	// Complete stores the result and moves the job to completed with
	// progress 100. No-op if the job is already terminal.
	Complete(ctx context.Context, jobID string, result *models.RouteResult) error

	// Fail moves the job to failed with a diagnostic category. No-op if
	// the job is already terminal.
	Fail(ctx context.Context, jobID string, diagnostic string) error

	// NextQueued returns the oldest queued job, or nil when none is
	// waiting. Used by workers to pick up work across restarts.
	NextQueued(ctx context.Context) (*models.Job, error)
}
