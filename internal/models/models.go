package models

import (
	"fmt"
	"time"
)

// Coordinates represents a geographic point
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Node is a vertex of the road graph. Immutable once created.
type Node struct {
	ID   int64   `json:"id"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	Name string  `json:"name,omitempty"`
}

// GetCoords returns the coordinates of the node
func (n *Node) GetCoords() Coordinates {
	return Coordinates{Lat: n.Lat, Lng: n.Lng}
}

// Edge is a directed road-graph edge. Undirected connectivity is modeled
// by inserting both directions.
type Edge struct {
	FromNode      int64   `json:"from_node"`
	ToNode        int64   `json:"to_node"`
	DistanceKm    float64 `json:"distance_km"`
	TravelTimeMin float64 `json:"travel_time_min,omitempty"`
}

// Location is a named request waypoint (pickup, stop or dropoff)
type Location struct {
	ID   string  `json:"id"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	Name string  `json:"name,omitempty"`
}

// GetCoords returns the coordinates of the location
func (l *Location) GetCoords() Coordinates {
	return Coordinates{Lat: l.Lat, Lng: l.Lng}
}

// Algorithm identifies a route computation strategy. Request strings are
// parsed once at the API boundary; the solver core never branches on a
// raw string.
type Algorithm int

const (
	AlgorithmAuto Algorithm = iota
	AlgorithmDijkstra
	AlgorithmAStar
	AlgorithmNN2Opt
)

// String returns the wire name of the algorithm
func (a Algorithm) String() string {
	switch a {
	case AlgorithmDijkstra:
		return "dijkstra"
	case AlgorithmAStar:
		return "astar"
	case AlgorithmNN2Opt:
		return "nn+2opt"
	default:
		return "auto"
	}
}

// MarshalJSON encodes the algorithm by its wire name
func (a Algorithm) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON decodes an algorithm from its wire name
func (a *Algorithm) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := ParseAlgorithm(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAlgorithm converts a request string into an Algorithm
func ParseAlgorithm(s string) (Algorithm, error) {
	switch s {
	case "", "auto":
		return AlgorithmAuto, nil
	case "dijkstra":
		return AlgorithmDijkstra, nil
	case "astar":
		return AlgorithmAStar, nil
	case "nn+2opt":
		return AlgorithmNN2Opt, nil
	default:
		return AlgorithmAuto, fmt.Errorf("unknown algorithm %q", s)
	}
}

// OptimizeFor selects the quantity the route should minimize
type OptimizeFor string

const (
	OptimizeTime     OptimizeFor = "time"
	OptimizeDistance OptimizeFor = "distance"
	OptimizeFare     OptimizeFor = "fare"
)

// ParseOptimizeFor converts a request string into an OptimizeFor value
func ParseOptimizeFor(s string) (OptimizeFor, error) {
	switch s {
	case "", "time":
		return OptimizeTime, nil
	case "distance":
		return OptimizeDistance, nil
	case "fare":
		return OptimizeFare, nil
	default:
		return OptimizeTime, fmt.Errorf("unknown optimize_for %q", s)
	}
}

// RouteRequest is the domain form of an estimate request. Algorithm and
// OptimizeFor are already resolved from their wire strings.
type RouteRequest struct {
	UserID        string        `json:"user_id"`
	Pickup        Coordinates   `json:"pickup"`
	Dropoff       Coordinates   `json:"dropoff"`
	Stops         []Coordinates `json:"stops"`
	OptimizeFor   OptimizeFor   `json:"optimize_for"`
	Algorithm     Algorithm     `json:"algorithm"`
	AsyncMode     bool          `json:"async_mode"`
	DetailedSteps bool          `json:"detailed_steps"`
	CompareMode   bool          `json:"compare_mode"`
}

// Waypoints returns pickup, stops and dropoff in request order
func (r *RouteRequest) Waypoints() []Coordinates {
	points := make([]Coordinates, 0, len(r.Stops)+2)
	points = append(points, r.Pickup)
	points = append(points, r.Stops...)
	points = append(points, r.Dropoff)
	return points
}

// FrontierEntry is one prioritized entry of a solver's frontier
type FrontierEntry struct {
	Priority float64 `json:"priority"`
	NodeID   int64   `json:"node_id"`
}

// AlgorithmStep captures the full search state at one node expansion.
// Distances only holds discovered nodes; an absent node is unreached.
type AlgorithmStep struct {
	StepNumber    int               `json:"step_number"`
	CurrentNode   int64             `json:"current_node"`
	VisitedNodes  []int64           `json:"visited_nodes"`
	FrontierNodes []FrontierEntry   `json:"frontier_nodes"`
	Distances     map[int64]float64 `json:"distances"`
	PreviousNodes map[int64]int64   `json:"previous_nodes"`
	Description   string            `json:"description"`
	Timestamp     time.Time         `json:"timestamp"`
}

// JobStatus is the lifecycle state of an asynchronous job
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Terminal reports whether no further transitions are permitted
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// Job is a unit of deferred route computation with an observable lifecycle
type Job struct {
	JobID      string       `json:"job_id"`
	UserID     string       `json:"user_id"`
	Status     JobStatus    `json:"status"`
	Params     RouteRequest `json:"params"`
	Progress   int          `json:"progress"`
	Result     *RouteResult `json:"result,omitempty"`
	Diagnostic string       `json:"diagnostic,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// GeoJSONLineString is the route geometry in GeoJSON [lng, lat] order
type GeoJSONLineString struct {
	Type        string       `json:"type"`
	Coordinates [][2]float64 `json:"coordinates"`
}

// NewLineString builds a GeoJSON LineString from lat/lng coordinates
func NewLineString(points []Coordinates) *GeoJSONLineString {
	coords := make([][2]float64, len(points))
	for i, p := range points {
		coords[i] = [2]float64{p.Lng, p.Lat}
	}
	return &GeoJSONLineString{Type: "LineString", Coordinates: coords}
}

// AlgorithmStats summarizes one solver run for comparison views
type AlgorithmStats struct {
	DistanceKm      float64 `json:"distance_km"`
	StepsCount      int     `json:"steps_count"`
	ExecutionTimeMs float64 `json:"execution_time_ms"`
}

// RouteResult is the assembled response for a computed route
type RouteResult struct {
	RouteGeoJSON    *GeoJSONLineString `json:"route_geojson,omitempty"`
	DistanceKm      float64            `json:"distance_km"`
	EtaMin          float64            `json:"eta_min"`
	Algorithm       Algorithm          `json:"algorithm"`
	ExecutionTimeMs float64            `json:"execution_time_ms"`
	Steps           []AlgorithmStep    `json:"steps,omitempty"`
	Locations       []Location         `json:"locations,omitempty"`
	DijkstraStats   *AlgorithmStats    `json:"dijkstra_stats,omitempty"`
	AStarStats      *AlgorithmStats    `json:"astar_stats,omitempty"`
}
