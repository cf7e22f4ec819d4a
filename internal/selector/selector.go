package selector

import (
	"cab-route-estimator/internal/models"
)

// DefaultSyncStopThreshold is the largest stop count computed on the
// request path; anything above is deferred to the job scheduler.
const DefaultSyncStopThreshold = 6

// Config carries the tunables of the selection policy
type Config struct {
	SyncStopThreshold int
}

// ExecutionPlan describes how a request will be computed. Algorithms is
// the set of point-to-point solvers to run; AlgorithmAuto is resolved
// here and never appears in a plan.
type ExecutionPlan struct {
	Algorithms []models.Algorithm
	UseTour    bool
	Async      bool
}

// Plan maps a request's shape to an execution plan. Pure and deterministic:
// no side effects, identical inputs yield identical plans.
func Plan(req *models.RouteRequest, cfg Config) ExecutionPlan {
	threshold := cfg.SyncStopThreshold
	if threshold <= 0 {
		threshold = DefaultSyncStopThreshold
	}

	plan := ExecutionPlan{
		UseTour: len(req.Stops) > 0,
		Async:   req.AsyncMode || len(req.Stops) > threshold,
	}

	if req.CompareMode {
		// Both solvers run on the same input; neither cancels the other.
		plan.Algorithms = []models.Algorithm{models.AlgorithmDijkstra, models.AlgorithmAStar}
		return plan
	}

	switch req.Algorithm {
	case models.AlgorithmDijkstra:
		plan.Algorithms = []models.Algorithm{models.AlgorithmDijkstra}
	case models.AlgorithmAStar:
		plan.Algorithms = []models.Algorithm{models.AlgorithmAStar}
	default:
		// A* is the auto choice for point-to-point legs.
		plan.Algorithms = []models.Algorithm{models.AlgorithmAStar}
	}
	return plan
}
