// Package geospatial holds distance helpers for small municipal areas.
package geospatial

import (
	"math"
	"sort"

	"github.com/samirrijal/looopone/internal/core/domain"
)

const earthRadiusMeters = 6371000.0

// metersPerDegreeLat is the length of one degree of latitude.
const metersPerDegreeLat = 111320.0

// Haversine returns the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Distance is Haversine over GeoPoints.
func Distance(a, b domain.GeoPoint) float64 {
	return Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
}

// BoundingBox returns a box that encloses every point within radiusMeters of
// center. It is a cheap prefilter; confirm candidates with Distance.
func BoundingBox(center domain.GeoPoint, radiusMeters float64) domain.Bounds {
	latDelta := radiusMeters / metersPerDegreeLat
	lonDelta := radiusMeters / (metersPerDegreeLat * math.Cos(toRad(center.Lat)))

	return domain.Bounds{
		MinLat: center.Lat - latDelta,
		MinLon: center.Lon - lonDelta,
		MaxLat: center.Lat + latDelta,
		MaxLon: center.Lon + lonDelta,
	}
}

// WithinRadius keeps the containers within radiusMeters of center, sets their
// Distance, and orders them nearest first. At most limit are returned when
// limit is positive.
func WithinRadius(center domain.GeoPoint, radiusMeters float64, containers []domain.Container, limit int) []domain.Container {
	out := make([]domain.Container, 0, len(containers))
	for _, c := range containers {
		d := Distance(center, c.Location)
		if d > radiusMeters {
			continue
		}
		c.Distance = &d
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return *out[i].Distance < *out[j].Distance })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
