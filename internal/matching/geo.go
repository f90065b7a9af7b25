package matching

import (
	"fmt"
	"math"

	"contractor-matching/internal/models"
)

const (
	earthRadiusMeters = 6378137.0
	metersToMiles     = 0.000621371
)

// DistanceMiles returns the great-circle distance between a and b. Malformed
// coordinates are an error, never a silent zero.
func DistanceMiles(a, b models.GeoPoint) (float64, error) {
	if err := a.Validate(); err != nil {
		return 0, fmt.Errorf("origin: %w", err)
	}
	if err := b.Validate(); err != nil {
		return 0, fmt.Errorf("destination: %w", err)
	}

	dLat := degreesToRadians(b.Lat - a.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(degreesToRadians(a.Lat))*math.Cos(degreesToRadians(b.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusMeters * c * metersToMiles, nil
}

func degreesToRadians(d float64) float64 {
	return d * math.Pi / 180
}
