package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"cab-route-estimator/internal/estimator"
	"cab-route-estimator/internal/geocoding"
	"cab-route-estimator/internal/jobs"
)

// Handler holds all HTTP handler dependencies
type Handler struct {
	Estimator *estimator.Estimator
	Scheduler *jobs.Scheduler
	Jobs      jobs.Store
	Geocoder  geocoding.Geocoder

	// HealthCheck reports backing-store health; nil means no store to check.
	HealthCheck func(ctx context.Context) error
}

// Register wires all routes onto the engine
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/health", h.Health)

	api := r.Group("/api/v1")
	{
		api.GET("/health", h.Health)
		api.POST("/routes/estimate", h.EstimateRoute)
		api.GET("/jobs/:job_id", h.GetJob)
		api.GET("/jobs/:job_id/result", h.GetJobResult)
		api.GET("/geocode", h.Geocode)
	}
}

// Health reports service and backing-store health
func (h *Handler) Health(c *gin.Context) {
	if h.HealthCheck != nil {
		if err := h.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
