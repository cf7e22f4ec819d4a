package solver

import (
	"fmt"
	"sort"
	"time"

	"cab-route-estimator/internal/models"
)

// TraceCollector records one AlgorithmStep per node expansion, capturing
// the full visited set, frontier, distance map and predecessor map at that
// instant. It is a pure observer: it copies everything it keeps and never
// feeds back into the search. Trace length equals the number of node
// expansions, not edge relaxations, which bounds trace size.
type TraceCollector struct {
	algorithm models.Algorithm
	steps     []models.AlgorithmStep
}

// NewTraceCollector creates a collector labeled with the algorithm whose
// run it observes (the label only affects step descriptions).
func NewTraceCollector(algorithm models.Algorithm) *TraceCollector {
	return &TraceCollector{algorithm: algorithm}
}

// NodePopped appends one step for the expansion of node
func (t *TraceCollector) NodePopped(node int64, distanceKm, priority float64, state SearchState) {
	visited := make([]int64, 0, len(state.Visited))
	for id := range state.Visited {
		visited = append(visited, id)
	}
	sort.Slice(visited, func(i, j int) bool { return visited[i] < visited[j] })

	distances := make(map[int64]float64, len(state.Distances))
	for id, d := range state.Distances {
		distances[id] = d
	}
	previous := make(map[int64]int64, len(state.Previous))
	for id, p := range state.Previous {
		previous[id] = p
	}
	frontier := make([]models.FrontierEntry, len(state.Frontier))
	copy(frontier, state.Frontier)

	var description string
	if t.algorithm == models.AlgorithmAStar {
		description = fmt.Sprintf("Visiting node %d. Priority: %.2f km, actual distance: %.2f km", node, priority, distanceKm)
	} else {
		description = fmt.Sprintf("Visiting node %d. Current distance: %.2f km", node, distanceKm)
	}

	t.steps = append(t.steps, models.AlgorithmStep{
		StepNumber:    len(t.steps) + 1,
		CurrentNode:   node,
		VisitedNodes:  visited,
		FrontierNodes: frontier,
		Distances:     distances,
		PreviousNodes: previous,
		Description:   description,
		Timestamp:     time.Now().UTC(),
	})
}

// EdgeRelaxed is a no-op; relaxations are checkpointed but not traced
func (t *TraceCollector) EdgeRelaxed(from, to int64, newDistanceKm float64) {}

// Steps returns the recorded steps in expansion order
func (t *TraceCollector) Steps() []models.AlgorithmStep {
	return t.steps
}
