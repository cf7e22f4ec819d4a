package estimator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cab-route-estimator/internal/geo"
	"cab-route-estimator/internal/graph"
	"cab-route-estimator/internal/jobs"
	"cab-route-estimator/internal/models"
	"cab-route-estimator/internal/selector"
	"cab-route-estimator/internal/solver"
)

var bengaluruNodes = []models.Node{
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

func seededGraph(t *testing.T) *graph.Graph {
	t.Helper()

	connections := [][2]int64{
		{1, 2}, {2, 3}, {3, 4}, {4, 5}, {5, 6},
		{6, 7}, {7, 8}, {8, 9}, {9, 10}, {10, 1},
		{1, 7}, {2, 8}, {3, 9}, {4, 10}, {5, 1},
	}

	g := graph.New()
	byID := make(map[int64]models.Node)
	for _, n := range bengaluruNodes {
		require.NoError(t, g.AddNode(n))
		byID[n.ID] = n
	}
	for _, c := range connections {
		from, to := byID[c[0]], byID[c[1]]
		d := geo.Haversine(from.GetCoords(), to.GetCoords())
		require.NoError(t, g.AddEdge(models.Edge{
			FromNode: c[0], ToNode: c[1], DistanceKm: d, TravelTimeMin: d * 2,
		}, true))
	}
	return g
}

func coordOf(id int64) models.Coordinates {
	for _, n := range bengaluruNodes {
		if n.ID == id {
			return n.GetCoords()
		}
	}
	return models.Coordinates{}
}

func TestEstimateSingleLeg(t *testing.T) {
	est := New(seededGraph(t), selector.Config{})

	req := &models.RouteRequest{
		UserID:  "user_1",
		Pickup:  coordOf(1),
		Dropoff: coordOf(4),
	}
	result, err := est.Estimate(context.Background(), req)
	require.NoError(t, err)

	want, err := solver.AStar(seededGraph(t), 1, 4, solver.Options{})
	require.NoError(t, err)

	assert.InDelta(t, want.DistanceKm, result.DistanceKm, 1e-9)
	assert.InDelta(t, result.DistanceKm*2, result.EtaMin, 1e-6)
	assert.Equal(t, models.AlgorithmAStar, result.Algorithm)
	assert.GreaterOrEqual(t, result.ExecutionTimeMs, 0.0)
	assert.Empty(t, result.Steps)
	assert.Nil(t, result.DijkstraStats)

	// Geometry follows the path node coordinates, [lng, lat] order.
	require.NotNil(t, result.RouteGeoJSON)
	assert.Equal(t, "LineString", result.RouteGeoJSON.Type)
	first := result.RouteGeoJSON.Coordinates[0]
	assert.Equal(t, [2]float64{coordOf(1).Lng, coordOf(1).Lat}, first)
	last := result.RouteGeoJSON.Coordinates[len(result.RouteGeoJSON.Coordinates)-1]
	assert.Equal(t, [2]float64{coordOf(4).Lng, coordOf(4).Lat}, last)

	require.Len(t, result.Locations, 2)
	assert.Equal(t, "pickup", result.Locations[0].ID)
	assert.Equal(t, "dropoff", result.Locations[1].ID)
}

func TestEstimateExplicitDijkstra(t *testing.T) {
	est := New(seededGraph(t), selector.Config{})

	req := &models.RouteRequest{
		Pickup:    coordOf(2),
		Dropoff:   coordOf(6),
		Algorithm: models.AlgorithmDijkstra,
	}
	result, err := est.Estimate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.AlgorithmDijkstra, result.Algorithm)
}

func TestEstimateDetailedSteps(t *testing.T) {
	est := New(seededGraph(t), selector.Config{})

	req := &models.RouteRequest{
		Pickup:        coordOf(1),
		Dropoff:       coordOf(4),
		DetailedSteps: true,
	}
	result, err := est.Estimate(context.Background(), req)
	require.NoError(t, err)

	require.NotEmpty(t, result.Steps)
	assert.Equal(t, 1, result.Steps[0].StepNumber)
	assert.Equal(t, int64(1), result.Steps[0].CurrentNode)
}

func TestEstimateCompareMode(t *testing.T) {
	est := New(seededGraph(t), selector.Config{})

	req := &models.RouteRequest{
		Pickup:      coordOf(1),
		Dropoff:     coordOf(4),
		CompareMode: true,
	}
	result, err := est.Estimate(context.Background(), req)
	require.NoError(t, err)

	require.NotNil(t, result.DijkstraStats)
	require.NotNil(t, result.AStarStats)

	// Both solvers agree on the optimal distance; A* expands no more nodes.
	assert.InDelta(t, result.DijkstraStats.DistanceKm, result.AStarStats.DistanceKm, 1e-9)
	assert.LessOrEqual(t, result.AStarStats.StepsCount, result.DijkstraStats.StepsCount)
	assert.InDelta(t, result.AStarStats.DistanceKm, result.DistanceKm, 1e-9)
}

func TestEstimateWithStops(t *testing.T) {
	est := New(seededGraph(t), selector.Config{})

	req := &models.RouteRequest{
		Pickup:  coordOf(1),
		Dropoff: coordOf(5),
		Stops:   []models.Coordinates{coordOf(3), coordOf(9)},
	}
	result, err := est.Estimate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, models.AlgorithmNN2Opt, result.Algorithm)
	assert.Greater(t, result.DistanceKm, 0.0)

	// Visit order keeps the endpoints fixed and covers every stop.
	require.Len(t, result.Locations, 4)
	assert.Equal(t, "pickup", result.Locations[0].ID)
	assert.Equal(t, "dropoff", result.Locations[3].ID)
	middle := []string{result.Locations[1].ID, result.Locations[2].ID}
	assert.ElementsMatch(t, []string{"stop_1", "stop_2"}, middle)
}

func TestEstimateAdHocGraphFallback(t *testing.T) {
	// No seeded graph at all: the request runs on a nearest-neighbor graph
	// built over its own waypoints.
	est := New(nil, selector.Config{})

	req := &models.RouteRequest{
		Pickup:  models.Coordinates{Lat: 40.7128, Lng: -74.0060},
		Dropoff: models.Coordinates{Lat: 40.7484, Lng: -73.9857},
	}
	result, err := est.Estimate(context.Background(), req)
	require.NoError(t, err)

	direct := geo.Haversine(req.Pickup, req.Dropoff)
	assert.InDelta(t, direct, result.DistanceKm, 1e-6)
	assert.InDelta(t, direct*2, result.EtaMin, 1e-6)
}

func TestEstimateOutsideCoverage(t *testing.T) {
	// Waypoints far from every seeded node trigger the ad-hoc graph even
	// when a seeded graph exists.
	est := New(seededGraph(t), selector.Config{})

	req := &models.RouteRequest{
		Pickup:  models.Coordinates{Lat: 40.7128, Lng: -74.0060},
		Dropoff: models.Coordinates{Lat: 40.7484, Lng: -73.9857},
	}
	result, err := est.Estimate(context.Background(), req)
	require.NoError(t, err)
	assert.InDelta(t, geo.Haversine(req.Pickup, req.Dropoff), result.DistanceKm, 1e-6)
}

func TestEstimateNoPath(t *testing.T) {
	g := seededGraph(t)
	// An isolated node the pickup snaps onto.
	require.NoError(t, g.AddNode(models.Node{ID: 99, Lat: 12.9500, Lng: 77.5900}))

	est := New(g, selector.Config{})
	req := &models.RouteRequest{
		Pickup:  models.Coordinates{Lat: 12.9500, Lng: 77.5900},
		Dropoff: coordOf(4),
	}
	_, err := est.Estimate(context.Background(), req)
	assert.ErrorIs(t, err, solver.ErrNoPath)
}

func TestTaskReportsMilestones(t *testing.T) {
	est := New(seededGraph(t), selector.Config{})
	task := est.Task()

	var milestones []int
	job := &models.Job{
		JobID: "job_x",
		Params: models.RouteRequest{
			Pickup:  coordOf(1),
			Dropoff: coordOf(4),
		},
	}
	result, err := task(context.Background(), job, func(p int) { milestones = append(milestones, p) })
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, []int{30, 60, 90}, milestones)
}

func TestClassifyError(t *testing.T) {
	assert.Equal(t, jobs.DiagnosticNoPath, ClassifyError(solver.ErrNoPath))
	assert.Equal(t, jobs.DiagnosticInvalidRef, ClassifyError(solver.ErrInvalidReference))
	assert.Equal(t, jobs.DiagnosticInvalidRef, ClassifyError(graph.ErrInvalidReference))
	assert.Equal(t, "", ClassifyError(assert.AnError))
}
