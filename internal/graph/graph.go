package graph

import (
	"errors"
	"fmt"
	"sort"

	"cab-route-estimator/internal/geo"
	"cab-route-estimator/internal/models"
)

// ErrInvalidReference is returned when an edge names a node that does not
// exist in the graph, or when the graph's integrity is otherwise violated.
var ErrInvalidReference = errors.New("graph: invalid node reference")

// Neighbor is one outgoing adjacency of a node
type Neighbor struct {
	NodeID        int64
	DistanceKm    float64
	TravelTimeMin float64
}

// Graph is an in-memory weighted road graph. It is built once by a loader
// and treated as a read-only snapshot during solving; none of the solver
// paths mutate it.
type Graph struct {
	nodes     map[int64]models.Node
	adjacency map[int64][]Neighbor
}

// New creates an empty graph
func New() *Graph {
	return &Graph{
		nodes:     make(map[int64]models.Node),
		adjacency: make(map[int64][]Neighbor),
	}
}

// AddNode inserts a node. Nodes are immutable once created; re-adding an
// existing id is rejected.
func (g *Graph) AddNode(n models.Node) error {
	if _, ok := g.nodes[n.ID]; ok {
		return fmt.Errorf("graph: node %d already exists", n.ID)
	}
	g.nodes[n.ID] = n
	return nil
}

// AddEdge inserts a directed edge. With bidirectional set, the reverse
// direction is inserted as well. Both endpoints must already exist and the
// weight must be non-negative (required for Dijkstra/A* correctness).
func (g *Graph) AddEdge(e models.Edge, bidirectional bool) error {
	if _, ok := g.nodes[e.FromNode]; !ok {
		return fmt.Errorf("%w: edge %d->%d names missing node %d", ErrInvalidReference, e.FromNode, e.ToNode, e.FromNode)
	}
	if _, ok := g.nodes[e.ToNode]; !ok {
		return fmt.Errorf("%w: edge %d->%d names missing node %d", ErrInvalidReference, e.FromNode, e.ToNode, e.ToNode)
	}
	if e.DistanceKm < 0 {
		return fmt.Errorf("%w: edge %d->%d has negative weight %f", ErrInvalidReference, e.FromNode, e.ToNode, e.DistanceKm)
	}

	g.adjacency[e.FromNode] = append(g.adjacency[e.FromNode], Neighbor{
		NodeID:        e.ToNode,
		DistanceKm:    e.DistanceKm,
		TravelTimeMin: e.TravelTimeMin,
	})
	if bidirectional {
		g.adjacency[e.ToNode] = append(g.adjacency[e.ToNode], Neighbor{
			NodeID:        e.FromNode,
			DistanceKm:    e.DistanceKm,
			TravelTimeMin: e.TravelTimeMin,
		})
	}
	return nil
}

// HasNode reports whether the node exists
func (g *Graph) HasNode(id int64) bool {
	_, ok := g.nodes[id]
	return ok
}

// Node returns the node with the given id
func (g *Graph) Node(id int64) (models.Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// NodeCount returns the number of nodes
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// Neighbors returns the outgoing adjacencies of a node in insertion order
func (g *Graph) Neighbors(id int64) []Neighbor {
	return g.adjacency[id]
}

// CoordinateOf returns the coordinates of a node
func (g *Graph) CoordinateOf(id int64) (models.Coordinates, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return models.Coordinates{}, false
	}
	return n.GetCoords(), true
}

// EdgeWeight returns the minimum distance among parallel edges from u to v
func (g *Graph) EdgeWeight(from, to int64) (float64, bool) {
	found := false
	best := 0.0
	for _, nb := range g.adjacency[from] {
		if nb.NodeID != to {
			continue
		}
		if !found || nb.DistanceKm < best {
			best = nb.DistanceKm
			found = true
		}
	}
	return best, found
}

// TravelTime returns the travel time in minutes of the cheapest edge from
// u to v, falling back to 2 min/km when the edge carries no time attribute.
func (g *Graph) TravelTime(from, to int64) (float64, bool) {
	found := false
	bestDist := 0.0
	bestTime := 0.0
	for _, nb := range g.adjacency[from] {
		if nb.NodeID != to {
			continue
		}
		if !found || nb.DistanceKm < bestDist {
			bestDist = nb.DistanceKm
			bestTime = nb.TravelTimeMin
			found = true
		}
	}
	if !found {
		return 0, false
	}
	if bestTime <= 0 {
		bestTime = bestDist * 2
	}
	return bestTime, true
}

// NearestNode returns the node closest to the given coordinates by
// great-circle distance, scanning all nodes. Ties break on the lowest id so
// repeated lookups are deterministic.
func (g *Graph) NearestNode(c models.Coordinates) (int64, bool) {
	if len(g.nodes) == 0 {
		return 0, false
	}
	ids := make([]int64, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	best := ids[0]
	bestNode := g.nodes[best]
	bestDist := geo.Haversine(c, bestNode.GetCoords())
	for _, id := range ids[1:] {
		n := g.nodes[id]
		d := geo.Haversine(c, n.GetCoords())
		if d < bestDist {
			bestDist = d
			best = id
		}
	}
	return best, true
}
