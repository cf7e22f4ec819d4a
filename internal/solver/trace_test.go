package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cab-route-estimator/internal/models"
)

func TestTraceLengthEqualsExpansions(t *testing.T) {
	g := cityGraph(t)

	collector := NewTraceCollector(models.AlgorithmDijkstra)
	res, err := Dijkstra(g, 1, 4, Options{Observer: collector})
	require.NoError(t, err)

	assert.Len(t, collector.Steps(), res.Expansions)
}

func TestTraceStepContents(t *testing.T) {
	g := cityGraph(t)

	collector := NewTraceCollector(models.AlgorithmDijkstra)
	_, err := Dijkstra(g, 1, 4, Options{Observer: collector})
	require.NoError(t, err)

	steps := collector.Steps()
	require.NotEmpty(t, steps)

	// First step: source popped with itself as the only visited node.
	first := steps[0]
	assert.Equal(t, 1, first.StepNumber)
	assert.Equal(t, int64(1), first.CurrentNode)
	assert.Equal(t, []int64{1}, first.VisitedNodes)
	assert.Equal(t, 0.0, first.Distances[1])
	assert.Contains(t, first.Description, "Visiting node 1")

	for i, step := range steps {
		assert.Equal(t, i+1, step.StepNumber)
		assert.Len(t, step.VisitedNodes, i+1)
		assert.Contains(t, step.Distances, step.CurrentNode)
		assert.False(t, step.Timestamp.IsZero())
	}
}

func TestTraceStepsAreSnapshots(t *testing.T) {
	g := cityGraph(t)

	collector := NewTraceCollector(models.AlgorithmDijkstra)
	_, err := Dijkstra(g, 1, 4, Options{FullTree: true, Observer: collector})
	require.NoError(t, err)

	steps := collector.Steps()
	require.Greater(t, len(steps), 2)

	// Earlier steps must not reflect later search state.
	assert.Len(t, steps[0].VisitedNodes, 1)
	assert.Len(t, steps[1].VisitedNodes, 2)
	assert.True(t, len(steps[0].Distances) < len(steps[len(steps)-1].Distances))
}

func TestTraceDistancesOmitUnreached(t *testing.T) {
	g := simpleGraph(t)
	require.NoError(t, g.AddNode(models.Node{ID: 50, Lat: 1, Lng: 1}))

	collector := NewTraceCollector(models.AlgorithmDijkstra)
	_, err := Dijkstra(g, 1, 4, Options{Observer: collector})
	require.NoError(t, err)

	// The isolated node never appears in any step's distance map.
	for _, step := range collector.Steps() {
		assert.NotContains(t, step.Distances, int64(50))
	}
}

func TestTraceAStarDescription(t *testing.T) {
	g := cityGraph(t)

	collector := NewTraceCollector(models.AlgorithmAStar)
	_, err := AStar(g, 1, 4, Options{Observer: collector})
	require.NoError(t, err)

	steps := collector.Steps()
	require.NotEmpty(t, steps)
	assert.Contains(t, steps[0].Description, "Priority")
}
