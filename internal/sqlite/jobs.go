package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cab-route-estimator/internal/jobs"
	"cab-route-estimator/internal/models"
)

type jobRepository struct {
	store *Store
}

func (r *jobRepository) Create(ctx context.Context, job *models.Job) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	params, err := json.Marshal(job.Params)
	if err != nil {
		return fmt.Errorf("failed to encode job params: %w", err)
	}

	query := `INSERT INTO jobs (job_id, user_id, status, params, progress, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err = r.store.db.ExecContext(ctx, query,
		job.JobID, job.UserID, string(job.Status), string(params), job.Progress,
		job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

func (r *jobRepository) Get(ctx context.Context, jobID string) (*models.Job, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	query := `SELECT job_id, user_id, status, params, progress, result, diagnostic, created_at, updated_at
	          FROM jobs WHERE job_id = ?`
	return r.scanJob(r.store.db.QueryRowContext(ctx, query, jobID), jobID)
}

func (r *jobRepository) Claim(ctx context.Context, jobID string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	query := `UPDATE jobs SET status = ?, updated_at = ? WHERE job_id = ? AND status = ?`
	result, err := r.store.db.ExecContext(ctx, query,
		string(models.JobRunning), time.Now().UTC(), jobID, string(models.JobQueued),
	)
	if err != nil {
		return false, fmt.Errorf("failed to claim job: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows > 0 {
		return true, nil
	}
	if err := r.exists(ctx, jobID); err != nil {
		return false, err
	}
	return false, nil
}

func (r *jobRepository) SetProgress(ctx context.Context, jobID string, progress int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if progress > 100 {
		progress = 100
	}

	// Progress only moves forward and terminal jobs are left alone.
	query := `UPDATE jobs SET progress = ?, updated_at = ?
	          WHERE job_id = ? AND progress < ? AND status NOT IN (?, ?)`
	result, err := r.store.db.ExecContext(ctx, query,
		progress, time.Now().UTC(), jobID, progress,
		string(models.JobCompleted), string(models.JobFailed),
	)
	if err != nil {
		return fmt.Errorf("failed to update job progress: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return r.exists(ctx, jobID)
	}
	return nil
}

func (r *jobRepository) Complete(ctx context.Context, jobID string, routeResult *models.RouteResult) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	encoded, err := json.Marshal(routeResult)
	if err != nil {
		return fmt.Errorf("failed to encode job result: %w", err)
	}

	query := `UPDATE jobs SET status = ?, progress = 100, result = ?, updated_at = ?
	          WHERE job_id = ? AND status NOT IN (?, ?)`
	result, err := r.store.db.ExecContext(ctx, query,
		string(models.JobCompleted), string(encoded), time.Now().UTC(), jobID,
		string(models.JobCompleted), string(models.JobFailed),
	)
	if err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return r.exists(ctx, jobID)
	}
	return nil
}

func (r *jobRepository) Fail(ctx context.Context, jobID string, diagnostic string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	query := `UPDATE jobs SET status = ?, diagnostic = ?, updated_at = ?
	          WHERE job_id = ? AND status NOT IN (?, ?)`
	result, err := r.store.db.ExecContext(ctx, query,
		string(models.JobFailed), diagnostic, time.Now().UTC(), jobID,
		string(models.JobCompleted), string(models.JobFailed),
	)
	if err != nil {
		return fmt.Errorf("failed to fail job: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return r.exists(ctx, jobID)
	}
	return nil
}

func (r *jobRepository) NextQueued(ctx context.Context) (*models.Job, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	query := `SELECT job_id, user_id, status, params, progress, result, diagnostic, created_at, updated_at
	          FROM jobs WHERE status = ?
	          ORDER BY created_at ASC, job_id ASC
	          LIMIT 1`
	job, err := r.scanJob(r.store.db.QueryRowContext(ctx, query, string(models.JobQueued)), "")
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return job, nil
}

// exists translates a zero-row update into either a not-found error or a
// silent no-op on a job whose state made the update inapplicable.
func (r *jobRepository) exists(ctx context.Context, jobID string) error {
	var one int
	err := r.store.db.QueryRowContext(ctx, `SELECT 1 FROM jobs WHERE job_id = ?`, jobID).Scan(&one)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: %s", jobs.ErrJobNotFound, jobID)
	}
	if err != nil {
		return fmt.Errorf("failed to check job existence: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *jobRepository) scanJob(row rowScanner, jobID string) (*models.Job, error) {
	var job models.Job
	var status, params string
	var result, diagnostic sql.NullString

	err := row.Scan(&job.JobID, &job.UserID, &status, &params, &job.Progress,
		&result, &diagnostic, &job.CreatedAt, &job.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", jobs.ErrJobNotFound, jobID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan job: %w", err)
	}

	job.Status = models.JobStatus(status)
	if err := json.Unmarshal([]byte(params), &job.Params); err != nil {
		return nil, fmt.Errorf("failed to decode job params: %w", err)
	}
	if result.Valid && result.String != "" {
		job.Result = &models.RouteResult{}
		if err := json.Unmarshal([]byte(result.String), job.Result); err != nil {
			return nil, fmt.Errorf("failed to decode job result: %w", err)
		}
	}
	if diagnostic.Valid {
		job.Diagnostic = diagnostic.String
	}
	return &job, nil
}
