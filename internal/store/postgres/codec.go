package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"

	"contractor-matching/internal/models"
)

// milesPerDegreeLat matches the equatorial radius used for distances.
const milesPerDegreeLat = 6378137 * 0.000621371 * math.Pi / 180

func decodeJSON(raw []byte, dst interface{}, column string) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", column, err)
	}
	return nil
}

func encodeJSON(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func point(lat, lng sql.NullFloat64) *models.GeoPoint {
	if !lat.Valid || !lng.Valid {
		return nil
	}
	return &models.GeoPoint{Lat: lat.Float64, Lng: lng.Float64}
}

func nullable(p *models.GeoPoint) (sql.NullFloat64, sql.NullFloat64) {
	if p == nil {
		return sql.NullFloat64{}, sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: p.Lat, Valid: true}, sql.NullFloat64{Float64: p.Lng, Valid: true}
}

// bounds is a latitude/longitude box that contains every point within the
// radius of the origin.
type bounds struct {
	minLat, maxLat, minLng, maxLng float64
}

// boundingBox returns false when no safe box exists: near the poles or when
// the box would wrap the antimeridian.
func boundingBox(origin models.GeoPoint, miles float64) (bounds, bool) {
	if miles <= 0 || origin.Validate() != nil {
		return bounds{}, false
	}
	// 10% slack keeps the box a strict superset of the circle.
	latDelta := miles / milesPerDegreeLat * 1.1
	cos := math.Cos(origin.Lat * math.Pi / 180)
	if cos < 0.1 {
		return bounds{}, false
	}
	lngDelta := latDelta / cos

	b := bounds{
		minLat: origin.Lat - latDelta,
		maxLat: origin.Lat + latDelta,
		minLng: origin.Lng - lngDelta,
		maxLng: origin.Lng + lngDelta,
	}
	if b.minLng < -180 || b.maxLng > 180 {
		return bounds{}, false
	}
	return b, true
}
