package graph

import (
	"fmt"
	"sort"

	"cab-route-estimator/internal/geo"
	"cab-route-estimator/internal/models"
)

// DefaultNeighborLinks is how many nearest neighbors each request location
// is connected to when no seeded road graph covers the request. Sparse
// connectivity keeps Dijkstra and A* from degenerating into the same search.
const DefaultNeighborLinks = 3

// BuildNearestNeighbor constructs an ad-hoc graph over request locations,
// connecting each location to its k nearest neighbors by great-circle
// distance. Node ids are the location indices, so the returned map resolves
// a location id back to its graph node.
func BuildNearestNeighbor(locations []models.Location, k int) (*Graph, map[string]int64, error) {
	if len(locations) < 2 {
		return nil, nil, fmt.Errorf("graph: need at least 2 locations, got %d", len(locations))
	}
	if k < 1 {
		k = DefaultNeighborLinks
	}

	g := New()
	nodeIDs := make(map[string]int64, len(locations))
	for i, loc := range locations {
		id := int64(i)
		if err := g.AddNode(models.Node{ID: id, Lat: loc.Lat, Lng: loc.Lng, Name: loc.Name}); err != nil {
			return nil, nil, err
		}
		nodeIDs[loc.ID] = id
	}

	type candidate struct {
		id   int64
		dist float64
	}

	for i := range locations {
		candidates := make([]candidate, 0, len(locations)-1)
		for j := range locations {
			if i == j {
				continue
			}
			candidates = append(candidates, candidate{
				id:   int64(j),
				dist: geo.Haversine(locations[i].GetCoords(), locations[j].GetCoords()),
			})
		}
		sort.Slice(candidates, func(a, b int) bool {
			if candidates[a].dist != candidates[b].dist {
				return candidates[a].dist < candidates[b].dist
			}
			return candidates[a].id < candidates[b].id
		})

		links := k
		if links > len(candidates) {
			links = len(candidates)
		}
		for _, c := range candidates[:links] {
			edge := models.Edge{FromNode: int64(i), ToNode: c.id, DistanceKm: c.dist}
			if err := g.AddEdge(edge, false); err != nil {
				return nil, nil, err
			}
		}
	}

	return g, nodeIDs, nil
}
