package estimator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"cab-route-estimator/internal/geo"
	"cab-route-estimator/internal/graph"
	"cab-route-estimator/internal/jobs"
	"cab-route-estimator/internal/models"
	"cab-route-estimator/internal/selector"
	"cab-route-estimator/internal/solver"
	"cab-route-estimator/internal/tour"
)

// maxSnapKm is how far a waypoint may sit from its nearest seeded graph
// node before the request is considered outside the seeded graph's
// coverage and an ad-hoc graph is built instead.
const maxSnapKm = 5.0

// Estimator computes route estimates. It is safe for concurrent use: the
// seeded road graph is a read-only snapshot and every request solves on
// either that snapshot or its own ad-hoc graph.
type Estimator struct {
	roadGraph *graph.Graph
	selCfg    selector.Config
}

// New creates an estimator. roadGraph may be nil; every request then runs
// on an ad-hoc graph built over its own waypoints.
func New(roadGraph *graph.Graph, selCfg selector.Config) *Estimator {
	return &Estimator{roadGraph: roadGraph, selCfg: selCfg}
}

// Plan exposes the execution plan for a request, used by the API layer to
// decide between the synchronous path and job submission.
func (e *Estimator) Plan(req *models.RouteRequest) selector.ExecutionPlan {
	return selector.Plan(req, e.selCfg)
}

// Estimate computes a route estimate synchronously
func (e *Estimator) Estimate(ctx context.Context, req *models.RouteRequest) (*models.RouteResult, error) {
	return e.estimate(ctx, req, nil)
}

// Task adapts the estimator into a scheduler task for deferred requests
func (e *Estimator) Task() jobs.Task {
	return func(ctx context.Context, job *models.Job, report func(int)) (*models.RouteResult, error) {
		req := job.Params
		return e.estimate(ctx, &req, report)
	}
}

// ClassifyError maps estimator errors to job diagnostic categories
func ClassifyError(err error) string {
	switch {
	case errors.Is(err, solver.ErrNoPath):
		return jobs.DiagnosticNoPath
	case errors.Is(err, solver.ErrInvalidReference), errors.Is(err, graph.ErrInvalidReference):
		return jobs.DiagnosticInvalidRef
	}
	return ""
}

func (e *Estimator) estimate(ctx context.Context, req *models.RouteRequest, report func(int)) (*models.RouteResult, error) {
	if report == nil {
		report = func(int) {}
	}
	started := time.Now()
	plan := selector.Plan(req, e.selCfg)

	g, waypointNodes, adHoc, err := e.workingGraph(req)
	if err != nil {
		return nil, err
	}
	report(30)

	points := req.Waypoints()
	visitOrder := make([]int, len(points))
	for i := range visitOrder {
		visitOrder[i] = i
	}

	if plan.UseTour {
		matrix, err := solver.PairwiseDistances(ctx, g, points)
		if err != nil {
			return nil, err
		}
		tourRes, err := tour.Optimize(ctx, matrix)
		if err != nil {
			return nil, err
		}
		visitOrder = tourRes.Order
		log.Printf("[ESTIMATOR] Tour optimized: stops=%d baseline_km=%.2f optimized_km=%.2f passes=%d",
			len(req.Stops), tourRes.BaselineKm, tourRes.DistanceKm, tourRes.Passes)
	}
	report(60)

	legNodes := make([]int64, len(visitOrder))
	for i, pos := range visitOrder {
		legNodes[i] = waypointNodes[pos]
	}

	var primary *legRun
	var dijkstraStats, astarStats *models.AlgorithmStats
	if req.CompareMode {
		dRun, err := e.solveLegs(g, legNodes, models.AlgorithmDijkstra, false, adHoc)
		if err != nil {
			return nil, err
		}
		aRun, err := e.solveLegs(g, legNodes, models.AlgorithmAStar, req.DetailedSteps, adHoc)
		if err != nil {
			return nil, err
		}
		dijkstraStats = dRun.stats()
		astarStats = aRun.stats()
		primary = aRun
		log.Printf("[ESTIMATOR] Compare mode: dijkstra_steps=%d astar_steps=%d distance_km=%.2f",
			dRun.expansions, aRun.expansions, aRun.distanceKm)
	} else {
		primary, err = e.solveLegs(g, legNodes, plan.Algorithms[0], req.DetailedSteps, adHoc)
		if err != nil {
			return nil, err
		}
	}
	report(90)

	algorithm := primary.algorithm
	if plan.UseTour {
		algorithm = models.AlgorithmNN2Opt
	}

	result := &models.RouteResult{
		RouteGeoJSON:    lineString(g, primary.path),
		DistanceKm:      primary.distanceKm,
		EtaMin:          etaMinutes(g, primary.path, primary.distanceKm),
		Algorithm:       algorithm,
		ExecutionTimeMs: float64(time.Since(started).Microseconds()) / 1000,
		Steps:           primary.steps,
		Locations:       visitLocations(req, visitOrder),
		DijkstraStats:   dijkstraStats,
		AStarStats:      astarStats,
	}
	return result, nil
}

// workingGraph picks the graph a request solves on. The seeded road graph
// is used when every waypoint snaps to a node within maxSnapKm; otherwise
// an ad-hoc nearest-neighbor graph is built over the waypoints themselves.
// The bool reports the ad-hoc case, which enables straight-line fallback
// for legs the sparse ad-hoc graph cannot connect.
func (e *Estimator) workingGraph(req *models.RouteRequest) (*graph.Graph, []int64, bool, error) {
	points := req.Waypoints()

	if e.roadGraph != nil && e.roadGraph.NodeCount() > 0 {
		nodes := make([]int64, len(points))
		covered := true
		for i, p := range points {
			id, ok := e.roadGraph.NearestNode(p)
			if !ok {
				covered = false
				break
			}
			c, _ := e.roadGraph.CoordinateOf(id)
			if geo.Haversine(p, c) > maxSnapKm {
				covered = false
				break
			}
			nodes[i] = id
		}
		if covered {
			return e.roadGraph, nodes, false, nil
		}
		log.Printf("[ESTIMATOR] Waypoints outside seeded graph coverage, building ad-hoc graph: waypoints=%d", len(points))
	}

	locs := make([]models.Location, len(points))
	for i, p := range points {
		locs[i] = models.Location{ID: fmt.Sprintf("wp_%d", i), Lat: p.Lat, Lng: p.Lng}
	}
	g, ids, err := graph.BuildNearestNeighbor(locs, graph.DefaultNeighborLinks)
	if err != nil {
		return nil, nil, false, err
	}
	nodes := make([]int64, len(points))
	for i := range points {
		nodes[i] = ids[locs[i].ID]
	}
	return g, nodes, true, nil
}

// legRun accumulates one solver's pass over all consecutive leg pairs
type legRun struct {
	algorithm  models.Algorithm
	path       []int64
	distanceKm float64
	expansions int
	steps      []models.AlgorithmStep
	elapsed    time.Duration
}

func (r *legRun) stats() *models.AlgorithmStats {
	return &models.AlgorithmStats{
		DistanceKm:      r.distanceKm,
		StepsCount:      r.expansions,
		ExecutionTimeMs: float64(r.elapsed.Microseconds()) / 1000,
	}
}

// solveLegs runs the point-to-point solver over each consecutive node pair
// and concatenates the leg paths. Legs between identical nodes contribute
// nothing. On an ad-hoc graph (directFallback) a leg the sparse graph
// cannot connect falls back to the straight great-circle segment; on the
// seeded graph a missing path is surfaced as an error.
func (e *Estimator) solveLegs(g *graph.Graph, nodes []int64, algo models.Algorithm, trace bool, directFallback bool) (*legRun, error) {
	started := time.Now()
	run := &legRun{algorithm: algo}

	var collector *solver.TraceCollector
	opts := solver.Options{}
	if trace {
		collector = solver.NewTraceCollector(algo)
		opts.Observer = collector
	}

	for i := 0; i+1 < len(nodes); i++ {
		src, dst := nodes[i], nodes[i+1]
		if src == dst {
			if len(run.path) == 0 {
				run.path = append(run.path, src)
			}
			continue
		}

		var res *solver.Result
		var err error
		if algo == models.AlgorithmDijkstra {
			res, err = solver.Dijkstra(g, src, dst, opts)
		} else {
			res, err = solver.AStar(g, src, dst, opts)
		}
		if err != nil {
			if directFallback && errors.Is(err, solver.ErrNoPath) {
				from, _ := g.CoordinateOf(src)
				to, _ := g.CoordinateOf(dst)
				run.distanceKm += geo.Haversine(from, to)
				run.expansions += res.Expansions
				run.path = appendLeg(run.path, []int64{src, dst})
				continue
			}
			return nil, fmt.Errorf("leg %d->%d: %w", src, dst, err)
		}

		run.distanceKm += res.DistanceKm
		run.expansions += res.Expansions
		run.path = appendLeg(run.path, res.Path)
	}

	if collector != nil {
		run.steps = collector.Steps()
	}
	run.elapsed = time.Since(started)
	return run, nil
}

// appendLeg concatenates a leg path, dropping the shared junction node
func appendLeg(path, leg []int64) []int64 {
	if len(path) > 0 && len(leg) > 0 && path[len(path)-1] == leg[0] {
		leg = leg[1:]
	}
	return append(path, leg...)
}

// etaMinutes sums per-edge travel times along the path. When any edge on
// the path carries no usable time (straight-line fallback legs), the whole
// estimate falls back to 2 minutes per kilometer.
func etaMinutes(g *graph.Graph, path []int64, distanceKm float64) float64 {
	if len(path) < 2 {
		return 0
	}
	total := 0.0
	for i := 0; i+1 < len(path); i++ {
		t, ok := g.TravelTime(path[i], path[i+1])
		if !ok {
			return distanceKm * 2
		}
		total += t
	}
	return total
}

// lineString builds the route geometry from the path's node coordinates
func lineString(g *graph.Graph, path []int64) *models.GeoJSONLineString {
	coords := make([]models.Coordinates, 0, len(path))
	for _, id := range path {
		if c, ok := g.CoordinateOf(id); ok {
			coords = append(coords, c)
		}
	}
	if len(coords) == 1 {
		coords = append(coords, coords[0])
	}
	return models.NewLineString(coords)
}

// visitLocations labels the waypoints and returns them in visit order
func visitLocations(req *models.RouteRequest, order []int) []models.Location {
	points := req.Waypoints()
	labels := make([]string, len(points))
	labels[0] = "pickup"
	labels[len(points)-1] = "dropoff"
	for i := 1; i < len(points)-1; i++ {
		labels[i] = fmt.Sprintf("stop_%d", i)
	}

	out := make([]models.Location, len(order))
	for i, pos := range order {
		out[i] = models.Location{ID: labels[pos], Lat: points[pos].Lat, Lng: points[pos].Lng, Name: labels[pos]}
	}
	return out
}
