package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"cab-route-estimator/internal/config"
	"cab-route-estimator/internal/estimator"
	"cab-route-estimator/internal/geocoding"
	"cab-route-estimator/internal/handlers"
	"cab-route-estimator/internal/jobs"
	"cab-route-estimator/internal/selector"
	"cab-route-estimator/internal/sqlite"
)

// Server wraps the HTTP server and all dependencies
type Server struct {
	httpServer *http.Server
	store      *sqlite.Store
	scheduler  *jobs.Scheduler
	cfg        config.Config
}

// New creates and initializes a server (does not start it)
func New(cfg config.Config) (*Server, error) {
	log.Printf("Initializing data store...")
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize data store: %w", err)
	}

	log.Printf("Loading road graph...")
	roadGraph, err := store.Graphs().Load(context.Background())
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to load road graph: %w", err)
	}
	log.Printf("Road graph loaded: nodes=%d", roadGraph.NodeCount())

	est := estimator.New(roadGraph, selector.Config{SyncStopThreshold: cfg.SyncStopThreshold})

	scheduler := jobs.NewScheduler(store.Jobs(), est.Task(), jobs.Config{
		Workers:    cfg.Workers,
		JobTimeout: cfg.JobTimeout(),
		Classify:   estimator.ClassifyError,
	})

	handler := &handlers.Handler{
		Estimator:   est,
		Scheduler:   scheduler,
		Jobs:        store.Jobs(),
		Geocoder:    geocoding.NewNominatim(cfg.NominatimBaseURL),
		HealthCheck: store.HealthCheck,
	}

	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSOrigins) == 1 && cfg.CORSOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.CORSOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"*"}
	engine.Use(cors.New(corsConfig))

	handler.Register(engine)

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.ListenAddr,
			Handler:      engine,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		store:     store,
		scheduler: scheduler,
		cfg:       cfg,
	}, nil
}

// Start runs the scheduler and the HTTP server; it blocks until the
// server stops listening.
func (s *Server) Start() error {
	s.scheduler.Start()
	log.Printf("Server listening on %s", s.cfg.ListenAddr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and jobs, then closes the store
func (s *Server) Shutdown(ctx context.Context) error {
	log.Printf("Shutting down server...")

	var firstErr error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		firstErr = err
	}
	if err := s.scheduler.Stop(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := s.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}

	log.Printf("Server stopped")
	return firstErr
}
