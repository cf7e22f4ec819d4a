package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cab-route-estimator/internal/geo"
	"cab-route-estimator/internal/graph"
	"cab-route-estimator/internal/models"
)

// cityGraph builds a ten-node ring with chord connections over central
// Bengaluru, edge weights equal to the great-circle distance between the
// endpoints. Haversine weights keep the A* heuristic consistent.
func cityGraph(t *testing.T) *graph.Graph {
	t.Helper()

	nodes := []models.Node{
		{ID: 1, Lat: 12.9716, Lng: 77.5946},
		{ID: 2, Lat: 12.9784, Lng: 77.6408},
		{ID: 3, Lat: 12.9352, Lng: 77.6245},
		{ID: 4, Lat: 12.9166, Lng: 77.6101},
		{ID: 5, Lat: 12.9081, Lng: 77.5831},
		{ID: 6, Lat: 12.9304, Lng: 77.5649},
		{ID: 7, Lat: 12.9698, Lng: 77.5519},
		{ID: 8, Lat: 12.9915, Lng: 77.5712},
		{ID: 9, Lat: 13.0067, Lng: 77.6134},
		{ID: 10, Lat: 12.9941, Lng: 77.6419},
	}
	connections := [][2]int64{
		{1, 2}, {2, 3}, {3, 4}, {4, 5}, {5, 6},
		{6, 7}, {7, 8}, {8, 9}, {9, 10}, {10, 1},
		{1, 7}, {2, 8}, {3, 9}, {4, 10}, {5, 1},
	}

	g := graph.New()
	byID := make(map[int64]models.Node)
	for _, n := range nodes {
		require.NoError(t, g.AddNode(n))
		byID[n.ID] = n
	}
	for _, c := range connections {
		from, to := byID[c[0]], byID[c[1]]
		d := geo.Haversine(from.GetCoords(), to.GetCoords())
		require.NoError(t, g.AddEdge(models.Edge{FromNode: c[0], ToNode: c[1], DistanceKm: d}, true))
	}
	return g
}

// simpleGraph is a four-node graph with hand-picked weights where the
// direct edge is worse than the two-hop detour.
func simpleGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	for id := int64(1); id <= 4; id++ {
		require.NoError(t, g.AddNode(models.Node{ID: id, Lat: float64(id) * 0.01, Lng: 0}))
	}
	require.NoError(t, g.AddEdge(models.Edge{FromNode: 1, ToNode: 2, DistanceKm: 1}, true))
	require.NoError(t, g.AddEdge(models.Edge{FromNode: 2, ToNode: 3, DistanceKm: 1}, true))
	require.NoError(t, g.AddEdge(models.Edge{FromNode: 1, ToNode: 3, DistanceKm: 5}, true))
	require.NoError(t, g.AddEdge(models.Edge{FromNode: 3, ToNode: 4, DistanceKm: 1}, true))
	return g
}

func TestDijkstraPrefersDetourOverHeavyEdge(t *testing.T) {
	g := simpleGraph(t)

	res, err := Dijkstra(g, 1, 3, Options{})
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2, 3}, res.Path)
	assert.InDelta(t, 2.0, res.DistanceKm, 1e-9)
}

func TestDijkstraSourceEqualsTarget(t *testing.T) {
	g := simpleGraph(t)

	res, err := Dijkstra(g, 2, 2, Options{})
	require.NoError(t, err)

	assert.Equal(t, []int64{2}, res.Path)
	assert.Equal(t, 0.0, res.DistanceKm)
	assert.Equal(t, 1, res.Expansions)
}

func TestDijkstraInvalidReference(t *testing.T) {
	g := simpleGraph(t)

	_, err := Dijkstra(g, 99, 1, Options{})
	assert.ErrorIs(t, err, ErrInvalidReference)

	_, err = Dijkstra(g, 1, 99, Options{})
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestDijkstraNoPath(t *testing.T) {
	g := simpleGraph(t)
	require.NoError(t, g.AddNode(models.Node{ID: 50, Lat: 1, Lng: 1}))

	res, err := Dijkstra(g, 1, 50, Options{})
	assert.ErrorIs(t, err, ErrNoPath)

	// The partial tree is still returned for diagnostics.
	require.NotNil(t, res)
	assert.Equal(t, 4, res.Expansions)
	assert.Contains(t, res.Distances, int64(4))
}

func TestAStarMatchesDijkstraDistance(t *testing.T) {
	g := cityGraph(t)

	pairs := [][2]int64{{1, 4}, {2, 6}, {3, 8}, {5, 10}, {7, 3}, {9, 5}}
	for _, p := range pairs {
		d, err := Dijkstra(g, p[0], p[1], Options{})
		require.NoError(t, err)
		a, err := AStar(g, p[0], p[1], Options{})
		require.NoError(t, err)

		assert.InDelta(t, d.DistanceKm, a.DistanceKm, 1e-9, "pair %v", p)
	}
}

func TestAStarExpandsNoMoreThanDijkstra(t *testing.T) {
	g := cityGraph(t)

	pairs := [][2]int64{{1, 4}, {2, 6}, {5, 10}, {9, 5}}
	for _, p := range pairs {
		d, err := Dijkstra(g, p[0], p[1], Options{})
		require.NoError(t, err)
		a, err := AStar(g, p[0], p[1], Options{})
		require.NoError(t, err)

		assert.LessOrEqual(t, a.Expansions, d.Expansions, "pair %v", p)
	}
}

func TestFullTreeExpandsMore(t *testing.T) {
	g := cityGraph(t)

	early, err := Dijkstra(g, 1, 2, Options{})
	require.NoError(t, err)

	full, err := Dijkstra(g, 1, 2, Options{FullTree: true})
	require.NoError(t, err)

	assert.Equal(t, 10, full.Expansions)
	assert.Less(t, early.Expansions, full.Expansions)
	assert.InDelta(t, early.DistanceKm, full.DistanceKm, 1e-9)
	assert.Len(t, full.Distances, 10)
}

func TestReconstructedPathIsContiguous(t *testing.T) {
	g := cityGraph(t)

	res, err := AStar(g, 1, 4, Options{})
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(res.Path), 2)
	assert.Equal(t, int64(1), res.Path[0])
	assert.Equal(t, int64(4), res.Path[len(res.Path)-1])

	total := 0.0
	for i := 0; i+1 < len(res.Path); i++ {
		w, ok := g.EdgeWeight(res.Path[i], res.Path[i+1])
		require.True(t, ok, "edge %d->%d missing", res.Path[i], res.Path[i+1])
		total += w
	}
	assert.InDelta(t, res.DistanceKm, total, 1e-9)
}

func TestDeterministicExpansionOrder(t *testing.T) {
	g := cityGraph(t)

	first := NewTraceCollector(models.AlgorithmDijkstra)
	_, err := Dijkstra(g, 1, 4, Options{Observer: first})
	require.NoError(t, err)

	second := NewTraceCollector(models.AlgorithmDijkstra)
	_, err = Dijkstra(g, 1, 4, Options{Observer: second})
	require.NoError(t, err)

	require.Equal(t, len(first.Steps()), len(second.Steps()))
	for i := range first.Steps() {
		assert.Equal(t, first.Steps()[i].CurrentNode, second.Steps()[i].CurrentNode)
		assert.Equal(t, first.Steps()[i].VisitedNodes, second.Steps()[i].VisitedNodes)
		assert.Equal(t, first.Steps()[i].FrontierNodes, second.Steps()[i].FrontierNodes)
	}
}

func TestObserverDoesNotChangeOutcome(t *testing.T) {
	g := cityGraph(t)

	plain, err := AStar(g, 2, 6, Options{})
	require.NoError(t, err)

	observed, err := AStar(g, 2, 6, Options{Observer: NewTraceCollector(models.AlgorithmAStar)})
	require.NoError(t, err)

	assert.Equal(t, plain.Path, observed.Path)
	assert.InDelta(t, plain.DistanceKm, observed.DistanceKm, 1e-12)
	assert.Equal(t, plain.Expansions, observed.Expansions)
}

func TestNilGraph(t *testing.T) {
	_, err := Dijkstra(nil, 1, 2, Options{})
	assert.ErrorIs(t, err, ErrInvalidReference)

	_, err = AStar(nil, 1, 2, Options{})
	assert.ErrorIs(t, err, ErrInvalidReference)
}
