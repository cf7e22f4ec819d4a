package solver

import (
	"cab-route-estimator/internal/graph"
)

// Dijkstra computes the shortest path from source to target over
// non-negative edge weights, expanding nodes in order of accumulated
// distance. By default it terminates as soon as the target is popped from
// the frontier; Options.FullTree computes the complete shortest-path tree.
func Dijkstra(g *graph.Graph, source, target int64, opts Options) (*Result, error) {
	return run(g, source, target, func(int64) float64 { return 0 }, opts)
}
