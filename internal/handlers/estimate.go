package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"cab-route-estimator/internal/models"
	"cab-route-estimator/internal/solver"
)

type coordinateDTO struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type estimateRequestDTO struct {
	UserID        string          `json:"user_id"`
	Pickup        *coordinateDTO  `json:"pickup" binding:"required"`
	Dropoff       *coordinateDTO  `json:"dropoff" binding:"required"`
	Stops         []coordinateDTO `json:"stops"`
	OptimizeFor   string          `json:"optimize_for"`
	Algorithm     string          `json:"algorithm"`
	AsyncMode     bool            `json:"async_mode"`
	DetailedSteps bool            `json:"detailed_steps"`
	CompareMode   bool            `json:"compare_mode"`
}

// toDomain validates the wire request and resolves its enum strings
func (d *estimateRequestDTO) toDomain() (*models.RouteRequest, error) {
	points := make([]coordinateDTO, 0, len(d.Stops)+2)
	points = append(points, *d.Pickup)
	points = append(points, d.Stops...)
	points = append(points, *d.Dropoff)
	for i, p := range points {
		if p.Lat < -90 || p.Lat > 90 {
			return nil, fmt.Errorf("waypoint %d: latitude %f out of range", i, p.Lat)
		}
		if p.Lng < -180 || p.Lng > 180 {
			return nil, fmt.Errorf("waypoint %d: longitude %f out of range", i, p.Lng)
		}
	}

	algorithm, err := models.ParseAlgorithm(d.Algorithm)
	if err != nil {
		return nil, err
	}
	optimizeFor, err := models.ParseOptimizeFor(d.OptimizeFor)
	if err != nil {
		return nil, err
	}

	stops := make([]models.Coordinates, len(d.Stops))
	for i, s := range d.Stops {
		stops[i] = models.Coordinates{Lat: s.Lat, Lng: s.Lng}
	}

	return &models.RouteRequest{
		UserID:        d.UserID,
		Pickup:        models.Coordinates{Lat: d.Pickup.Lat, Lng: d.Pickup.Lng},
		Dropoff:       models.Coordinates{Lat: d.Dropoff.Lat, Lng: d.Dropoff.Lng},
		Stops:         stops,
		OptimizeFor:   optimizeFor,
		Algorithm:     algorithm,
		AsyncMode:     d.AsyncMode,
		DetailedSteps: d.DetailedSteps,
		CompareMode:   d.CompareMode,
	}, nil
}

// EstimateRoute computes a route estimate, either inline or as a queued
// job when the request's execution plan defers it.
func (h *Handler) EstimateRoute(c *gin.Context) {
	var dto estimateRequestDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := dto.toDomain()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	log.Printf("[API] Estimate request: user_id=%s stops=%d algorithm=%s async=%t compare=%t",
		req.UserID, len(req.Stops), req.Algorithm, req.AsyncMode, req.CompareMode)

	plan := h.Estimator.Plan(req)
	if plan.Async {
		job, err := h.Scheduler.Submit(c.Request.Context(), *req)
		if err != nil {
			log.Printf("[ERROR] Job submission failed: user_id=%s err=%v", req.UserID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to queue route computation"})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{
			"job_id": job.JobID,
			"status": job.Status,
		})
		return
	}

	result, err := h.Estimator.Estimate(c.Request.Context(), req)
	if err != nil {
		h.renderEstimateError(c, req, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) renderEstimateError(c *gin.Context, req *models.RouteRequest, err error) {
	switch {
	case errors.Is(err, solver.ErrNoPath):
		c.JSON(http.StatusNotFound, gin.H{"error": "no route found between the requested locations"})
	case errors.Is(err, solver.ErrInvalidReference):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Printf("[ERROR] Estimate failed: user_id=%s err=%v", req.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "route computation failed"})
	}
}
