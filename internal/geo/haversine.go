package geo

import (
	"math"

	"cab-route-estimator/internal/models"
)

// EarthRadiusKm is the mean Earth radius used by the spherical model
const EarthRadiusKm = 6371.0

// Haversine returns the great-circle distance in kilometers between two
// points, assuming a spherical Earth (accurate to roughly 0.5%). It is
// symmetric, returns 0 for identical points, and never overestimates road
// distance, which makes it an admissible A* heuristic.
func Haversine(a, b models.Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lng1 := a.Lng * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	lng2 := b.Lng * math.Pi / 180

	dLat := lat2 - lat1
	dLng := lng2 - lng1

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLng*sinLng

	// Floating-point rounding can push h just outside [0, 1] for coincident
	// or antipodal points; clamp before asin to avoid a NaN.
	root := math.Sqrt(h)
	if root > 1 {
		root = 1
	} else if root < -1 {
		root = -1
	}

	return 2 * EarthRadiusKm * math.Asin(root)
}
