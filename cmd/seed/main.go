package main

import (
	"context"
	"flag"
	"log"

	"github.com/joho/godotenv"

	"cab-route-estimator/internal/config"
	"cab-route-estimator/internal/geo"
	"cab-route-estimator/internal/models"
	"cab-route-estimator/internal/sqlite"
)

// Sample road graph covering central Bengaluru. Ten nodes in a ring with
// chord connections, so Dijkstra and A* have meaningful alternatives to
// explore.
var sampleNodes = []models.Node{
	{ID: 1, Lat: 12.9716, Lng: 77.5946, Name: "MG Road"},
	{ID: 2, Lat: 12.9784, Lng: 77.6408, Name: "Indiranagar"},
	{ID: 3, Lat: 12.9352, Lng: 77.6245, Name: "Koramangala"},
	{ID: 4, Lat: 12.9166, Lng: 77.6101, Name: "BTM Layout"},
	{ID: 5, Lat: 12.9081, Lng: 77.5831, Name: "Jayanagar"},
	{ID: 6, Lat: 12.9304, Lng: 77.5649, Name: "Banashankari"},
	{ID: 7, Lat: 12.9698, Lng: 77.5519, Name: "Vijayanagar"},
	{ID: 8, Lat: 12.9915, Lng: 77.5712, Name: "Malleshwaram"},
	{ID: 9, Lat: 13.0067, Lng: 77.6134, Name: "Hebbal South"},
	{ID: 10, Lat: 12.9941, Lng: 77.6419, Name: "Kalyan Nagar"},
}

// Ring plus chords; each pair is inserted in both directions.
var sampleConnections = [][2]int64{
	{1, 2}, {2, 3}, {3, 4}, {4, 5}, {5, 6},
	{6, 7}, {7, 8}, {8, 9}, {9, 10}, {10, 1},
	{1, 7}, {2, 8}, {3, 9}, {4, 10}, {5, 1},
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment as-is")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	byID := make(map[int64]models.Node, len(sampleNodes))
	for _, n := range sampleNodes {
		byID[n.ID] = n
	}

	edges := make([]models.Edge, 0, 2*len(sampleConnections))
	for _, conn := range sampleConnections {
		from, to := byID[conn[0]], byID[conn[1]]
		distance := geo.Haversine(from.GetCoords(), to.GetCoords())
		travelTime := distance * 2 // assume 2 min/km

		edges = append(edges,
			models.Edge{FromNode: from.ID, ToNode: to.ID, DistanceKm: distance, TravelTimeMin: travelTime},
			models.Edge{FromNode: to.ID, ToNode: from.ID, DistanceKm: distance, TravelTimeMin: travelTime},
		)
	}

	if err := store.Graphs().Replace(context.Background(), sampleNodes, edges); err != nil {
		log.Fatalf("Failed to seed graph: %v", err)
	}

	log.Printf("Seeded road graph: nodes=%d edges=%d db=%s", len(sampleNodes), len(edges), store.GetDBPath())
}
