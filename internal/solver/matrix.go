package solver

import (
	"context"
	"errors"
	"log"

	"cab-route-estimator/internal/geo"
	"cab-route-estimator/internal/graph"
	"cab-route-estimator/internal/models"
)

// PairwiseDistances computes a complete distance matrix over waypoints for
// the tour optimizer. With a road graph each ordered pair is solved with
// Dijkstra between the waypoints' nearest nodes; without a graph, or for
// pairs the graph cannot connect, the great-circle distance is used as a
// fallback. The matrix is fully populated and non-negative.
func PairwiseDistances(ctx context.Context, g *graph.Graph, points []models.Coordinates) ([][]float64, error) {
	n := len(points)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			matrix[i][j] = pairDistance(g, points[i], points[j])
		}
	}
	return matrix, nil
}

func pairDistance(g *graph.Graph, from, to models.Coordinates) float64 {
	if g == nil || g.NodeCount() == 0 {
		return geo.Haversine(from, to)
	}

	src, okSrc := g.NearestNode(from)
	dst, okDst := g.NearestNode(to)
	if !okSrc || !okDst || src == dst {
		return geo.Haversine(from, to)
	}

	result, err := Dijkstra(g, src, dst, Options{})
	if err != nil {
		if !errors.Is(err, ErrNoPath) {
			log.Printf("[ERROR] Pairwise distance solve failed: src=%d dst=%d err=%v", src, dst, err)
		}
		return geo.Haversine(from, to)
	}
	return result.DistanceKm
}
