package solver

import (
	"fmt"

	"cab-route-estimator/internal/geo"
	"cab-route-estimator/internal/graph"
)

// AStar computes the shortest path from source to target using the
// great-circle distance to the target as frontier priority bias. The
// heuristic is admissible and consistent (straight-line distance never
// exceeds road distance), so optimality matches Dijkstra while typically
// expanding fewer nodes.
func AStar(g *graph.Graph, source, target int64, opts Options) (*Result, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: graph is nil", ErrInvalidReference)
	}
	goal, ok := g.CoordinateOf(target)
	if !ok {
		return nil, fmt.Errorf("%w: target %d", ErrInvalidReference, target)
	}

	heuristic := func(node int64) float64 {
		c, ok := g.CoordinateOf(node)
		if !ok {
			return 0
		}
		return geo.Haversine(c, goal)
	}
	return run(g, source, target, heuristic, opts)
}
