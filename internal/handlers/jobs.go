package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"cab-route-estimator/internal/jobs"
	"cab-route-estimator/internal/models"
)

// GetJob returns the lifecycle state of a job
func (h *Handler) GetJob(c *gin.Context) {
	jobID := c.Param("job_id")

	job, err := h.Jobs.Get(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		log.Printf("[ERROR] Job lookup failed: job_id=%s err=%v", jobID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "job lookup failed"})
		return
	}

	resp := gin.H{
		"job_id":     job.JobID,
		"status":     job.Status,
		"progress":   job.Progress,
		"created_at": job.CreatedAt,
		"updated_at": job.UpdatedAt,
	}
	if job.Diagnostic != "" {
		resp["diagnostic"] = job.Diagnostic
	}
	c.JSON(http.StatusOK, resp)
}

// GetJobResult returns the result of a completed job. A job still in
// flight answers 202 with its progress; a failed job answers 422 with its
// diagnostic category.
func (h *Handler) GetJobResult(c *gin.Context) {
	jobID := c.Param("job_id")

	job, err := h.Jobs.Get(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		log.Printf("[ERROR] Job lookup failed: job_id=%s err=%v", jobID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "job lookup failed"})
		return
	}

	switch job.Status {
	case models.JobCompleted:
		c.JSON(http.StatusOK, gin.H{
			"job_id": job.JobID,
			"status": job.Status,
			"result": job.Result,
		})
	case models.JobFailed:
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"job_id":     job.JobID,
			"status":     job.Status,
			"diagnostic": job.Diagnostic,
		})
	default:
		c.JSON(http.StatusAccepted, gin.H{
			"job_id":   job.JobID,
			"status":   job.Status,
			"progress": job.Progress,
		})
	}
}
