package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cab-route-estimator/internal/models"
)

func sampleLocations() []models.Location {
	return []models.Location{
		{ID: "pickup", Lat: 12.9716, Lng: 77.5946},
		{ID: "stop_1", Lat: 12.9352, Lng: 77.6245},
		{ID: "stop_2", Lat: 12.9081, Lng: 77.5831},
		{ID: "stop_3", Lat: 12.9698, Lng: 77.5519},
		{ID: "dropoff", Lat: 12.9915, Lng: 77.5712},
	}
}

func TestBuildNearestNeighbor(t *testing.T) {
	g, ids, err := BuildNearestNeighbor(sampleLocations(), 3)
	require.NoError(t, err)

	assert.Equal(t, 5, g.NodeCount())
	assert.Len(t, ids, 5)

	// Node ids are location indices.
	assert.Equal(t, int64(0), ids["pickup"])
	assert.Equal(t, int64(4), ids["dropoff"])

	// Every node has exactly k outgoing links.
	for i := int64(0); i < 5; i++ {
		assert.Len(t, g.Neighbors(i), 3)
	}
}

func TestBuildNearestNeighborCapsLinks(t *testing.T) {
	locs := sampleLocations()[:2]
	g, _, err := BuildNearestNeighbor(locs, 3)
	require.NoError(t, err)

	// Only one candidate neighbor exists.
	assert.Len(t, g.Neighbors(0), 1)
	assert.Len(t, g.Neighbors(1), 1)
}

func TestBuildNearestNeighborTooFewLocations(t *testing.T) {
	_, _, err := BuildNearestNeighbor(sampleLocations()[:1], 3)
	assert.Error(t, err)
}

func TestBuildNearestNeighborLinksAreNearest(t *testing.T) {
	g, ids, err := BuildNearestNeighbor(sampleLocations(), 1)
	require.NoError(t, err)

	// Vijayanagar (stop_3) is closest to Malleshwaram (dropoff).
	neighbors := g.Neighbors(ids["stop_3"])
	require.Len(t, neighbors, 1)
	assert.Equal(t, ids["dropoff"], neighbors[0].NodeID)
}

func TestBuildNearestNeighborDefaultK(t *testing.T) {
	g, _, err := BuildNearestNeighbor(sampleLocations(), 0)
	require.NoError(t, err)
	assert.Len(t, g.Neighbors(0), DefaultNeighborLinks)
}
